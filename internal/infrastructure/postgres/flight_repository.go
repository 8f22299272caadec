package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

const flightColumns = `flight_code, flight_name, source, destination, seats_available, total_seats, updated_at`

type flightRow struct {
	Code           string    `db:"flight_code"`
	Name           string    `db:"flight_name"`
	Source         string    `db:"source"`
	Destination    string    `db:"destination"`
	SeatsAvailable int       `db:"seats_available"`
	TotalSeats     int       `db:"total_seats"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r *flightRow) toEntity() *flight.Flight {
	return &flight.Flight{
		Code: r.Code, Name: r.Name, Source: r.Source, Destination: r.Destination,
		SeatsAvailable: r.SeatsAvailable, TotalSeats: r.TotalSeats, UpdatedAt: r.UpdatedAt,
	}
}

type inventoryAuditRow struct {
	FlightCode            string `db:"flight_code"`
	TotalSeats            int    `db:"total_seats"`
	SeatsAvailable        int    `db:"seats_available"`
	ConfirmedReservations int    `db:"confirmed_reservations"`
}

type FlightRepository struct{ db *sqlx.DB }

func NewFlightRepository(db *sqlx.DB) *FlightRepository { return &FlightRepository{db: db} }

func (r *FlightRepository) GetByCode(ctx context.Context, code string) (*flight.Flight, error) {
	var row flightRow
	query := r.db.Rebind(`SELECT ` + flightColumns + ` FROM flights WHERE flight_code = ?`)
	if err := r.db.GetContext(ctx, &row, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("便取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

// LockByCode は在庫行を FOR UPDATE でロックする
// ロックはトランザクション終了まで保持される
func (r *FlightRepository) LockByCode(ctx context.Context, tx transaction.Tx, code string) (*flight.Flight, error) {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return nil, err
	}
	var row flightRow
	query := sqlTx.Rebind(`SELECT ` + flightColumns + ` FROM flights WHERE flight_code = ? FOR UPDATE`)
	if err := sqlTx.GetContext(ctx, &row, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, flight.ErrFlightNotFound
		}
		return nil, fmt.Errorf("便ロックに失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *FlightRepository) DecrementSeats(ctx context.Context, tx transaction.Tx, code string) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`UPDATE flights SET seats_available = seats_available - 1, updated_at = ? WHERE flight_code = ? AND seats_available > 0`)
	result, err := sqlTx.ExecContext(ctx, query, time.Now().UTC(), code)
	if err != nil {
		if isCheckViolation(err) {
			return flight.ErrNoSeatsAvailable
		}
		return fmt.Errorf("空席数の減算に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return flight.ErrNoSeatsAvailable
	}
	return nil
}

func (r *FlightRepository) IncrementSeats(ctx context.Context, tx transaction.Tx, code string) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`UPDATE flights SET seats_available = seats_available + 1, updated_at = ? WHERE flight_code = ? AND seats_available < total_seats`)
	result, err := sqlTx.ExecContext(ctx, query, time.Now().UTC(), code)
	if err != nil {
		if isCheckViolation(err) {
			return flight.ErrSeatCountOverflow
		}
		return fmt.Errorf("空席数の加算に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return flight.ErrSeatCountOverflow
	}
	return nil
}

func (r *FlightRepository) AuditInventory(ctx context.Context) ([]*flight.InventoryAudit, error) {
	query := `SELECT f.flight_code, f.total_seats, f.seats_available,
		COALESCE(SUM(CASE WHEN r.status = 'confirmed' THEN 1 ELSE 0 END), 0) AS confirmed_reservations
		FROM flights f
		LEFT JOIN reservations r ON r.flight_code = f.flight_code
		GROUP BY f.flight_code, f.total_seats, f.seats_available
		ORDER BY f.flight_code`
	var rows []inventoryAuditRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("在庫集計に失敗: %w", err)
	}
	audits := make([]*flight.InventoryAudit, len(rows))
	for i, row := range rows {
		audits[i] = &flight.InventoryAudit{
			FlightCode: row.FlightCode, TotalSeats: row.TotalSeats,
			SeatsAvailable: row.SeatsAvailable, ConfirmedReservations: row.ConfirmedReservations,
		}
	}
	return audits, nil
}

var _ flight.Repository = (*FlightRepository)(nil)
