package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

const ticketColumns = `locator, owner_id, passenger_name, national_id, nationality, address, gender,
	flight_code, flight_name, source, destination, travel_date, status, created_at, cancelled_at`

type ticketRow struct {
	Locator       string     `db:"locator"`
	OwnerID       string     `db:"owner_id"`
	PassengerName string     `db:"passenger_name"`
	NationalID    string     `db:"national_id"`
	Nationality   string     `db:"nationality"`
	Address       string     `db:"address"`
	Gender        string     `db:"gender"`
	FlightCode    string     `db:"flight_code"`
	FlightName    string     `db:"flight_name"`
	Source        string     `db:"source"`
	Destination   string     `db:"destination"`
	TravelDate    time.Time  `db:"travel_date"`
	Status        string     `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	CancelledAt   *time.Time `db:"cancelled_at"`
}

func (r *ticketRow) toEntity() *ticket.Ticket {
	return &ticket.Ticket{
		Locator: r.Locator,
		OwnerID: r.OwnerID,
		Passenger: ticket.Passenger{
			Name: r.PassengerName, NationalID: r.NationalID, Nationality: r.Nationality,
			Address: r.Address, Gender: r.Gender,
		},
		Route: ticket.Route{
			FlightCode: r.FlightCode, FlightName: r.FlightName,
			Source: r.Source, Destination: r.Destination,
		},
		TravelDate:  reservation.TruncateDate(r.TravelDate),
		Status:      ticket.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		CancelledAt: r.CancelledAt,
	}
}

type TicketRepository struct{ db *sqlx.DB }

func NewTicketRepository(db *sqlx.DB) *TicketRepository { return &TicketRepository{db: db} }

func (r *TicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`INSERT INTO tickets (` + ticketColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	p := t.Passenger
	if _, err := sqlTx.ExecContext(ctx, query,
		t.Locator, t.OwnerID, p.Name, p.NationalID, p.Nationality, p.Address, p.Gender,
		t.Route.FlightCode, t.Route.FlightName, t.Route.Source, t.Route.Destination,
		t.TravelDate, string(t.Status), t.CreatedAt, t.CancelledAt,
	); err != nil {
		switch {
		case isUniqueViolation(err):
			return reservation.ErrLocatorCollision
		case isForeignKeyViolation(err):
			return flight.ErrFlightNotFound
		}
		return fmt.Errorf("搭乗券作成に失敗: %w", err)
	}
	return nil
}

func (r *TicketRepository) ExistsByLocator(ctx context.Context, locator string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(`SELECT COUNT(*) FROM tickets WHERE locator = ?`), locator); err != nil {
		return false, fmt.Errorf("予約番号の確認に失敗: %w", err)
	}
	return count > 0, nil
}

func (r *TicketRepository) Cancel(ctx context.Context, tx transaction.Tx, locator string) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`UPDATE tickets SET status = ?, cancelled_at = ? WHERE locator = ? AND status = ?`)
	result, err := sqlTx.ExecContext(ctx, query,
		string(ticket.StatusCancelled), time.Now().UTC(), locator, string(ticket.StatusIssued))
	if err != nil {
		return fmt.Errorf("搭乗券キャンセルに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ticket.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) GetByLocator(ctx context.Context, locator string) (*ticket.Ticket, error) {
	var row ticketRow
	query := r.db.Rebind(`SELECT ` + ticketColumns + ` FROM tickets WHERE locator = ?`)
	if err := r.db.GetContext(ctx, &row, query, locator); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ticket.ErrTicketNotFound
		}
		return nil, fmt.Errorf("搭乗券取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

var _ ticket.Repository = (*TicketRepository)(nil)
