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
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

const reservationColumns = `locator, owner_id, flight_code, travel_date, fare_class, status, booked_at, cancelled_at`

type reservationRow struct {
	Locator     string     `db:"locator"`
	OwnerID     string     `db:"owner_id"`
	FlightCode  string     `db:"flight_code"`
	TravelDate  time.Time  `db:"travel_date"`
	FareClass   string     `db:"fare_class"`
	Status      string     `db:"status"`
	BookedAt    time.Time  `db:"booked_at"`
	CancelledAt *time.Time `db:"cancelled_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		Locator: r.Locator, OwnerID: r.OwnerID, FlightCode: r.FlightCode,
		TravelDate: reservation.TruncateDate(r.TravelDate), FareClass: reservation.FareClass(r.FareClass),
		Status: reservation.Status(r.Status), BookedAt: r.BookedAt, CancelledAt: r.CancelledAt,
	}
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`INSERT INTO reservations (` + reservationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := sqlTx.ExecContext(ctx, query,
		res.Locator, res.OwnerID, res.FlightCode, res.TravelDate, string(res.FareClass),
		string(res.Status), res.BookedAt, res.CancelledAt,
	); err != nil {
		switch {
		case isUniqueViolation(err):
			return reservation.ErrLocatorCollision
		case isForeignKeyViolation(err):
			return flight.ErrFlightNotFound
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

// LockByLocatorAndOwner は本人の予約行を FOR UPDATE でロックする
// 他人の予約は存在しないものとして扱う
func (r *ReservationRepository) LockByLocatorAndOwner(ctx context.Context, tx transaction.Tx, locator, ownerID string) (*reservation.Reservation, error) {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return nil, err
	}
	var row reservationRow
	query := sqlTx.Rebind(`SELECT ` + reservationColumns + ` FROM reservations WHERE locator = ? AND owner_id = ? FOR UPDATE`)
	if err := sqlTx.GetContext(ctx, &row, query, locator, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約ロックに失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) MarkCancelled(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	query := sqlTx.Rebind(`UPDATE reservations SET status = ?, cancelled_at = ? WHERE locator = ? AND status = ?`)
	result, err := sqlTx.ExecContext(ctx, query,
		string(reservation.StatusCancelled), res.CancelledAt, res.Locator, string(reservation.StatusConfirmed))
	if err != nil {
		return fmt.Errorf("予約キャンセルに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationAlreadyCancelled
	}
	return nil
}

func (r *ReservationRepository) GetByLocatorAndOwner(ctx context.Context, locator, ownerID string) (*reservation.Reservation, error) {
	var row reservationRow
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations WHERE locator = ? AND owner_id = ?`)
	if err := r.db.GetContext(ctx, &row, query, locator, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	query := r.db.Rebind(`SELECT ` + reservationColumns + ` FROM reservations WHERE owner_id = ? ORDER BY booked_at DESC, locator LIMIT ? OFFSET ?`)
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
