package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

type paymentRow struct {
	ID           int64           `db:"id"`
	Locator      string          `db:"locator"`
	Amount       decimal.Decimal `db:"amount"`
	Method       string          `db:"method"`
	Status       string          `db:"status"`
	TransactedAt time.Time       `db:"transacted_at"`
	RefundedAt   *time.Time      `db:"refunded_at"`
}

func (r *paymentRow) toEntity() *payment.Payment {
	return &payment.Payment{
		ID: r.ID, Locator: r.Locator, Amount: r.Amount, Method: r.Method,
		Status: payment.Status(r.Status), TransactedAt: r.TransactedAt, RefundedAt: r.RefundedAt,
	}
}

type PaymentRepository struct{ db *sqlx.DB }

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, tx transaction.Tx, p *payment.Payment) error {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return err
	}
	id, err := insertReturningID(ctx, sqlTx,
		`INSERT INTO payments (locator, amount, method, status, transacted_at) VALUES (?, ?, ?, ?, ?)`,
		p.Locator, p.Amount, p.Method, string(p.Status), p.TransactedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return reservation.ErrReservationNotFound
		}
		return fmt.Errorf("支払い記録に失敗: %w", err)
	}
	p.ID = id
	return nil
}

func (r *PaymentRepository) RefundByLocator(ctx context.Context, tx transaction.Tx, locator string) (int64, error) {
	sqlTx, err := unwrapRequired(tx)
	if err != nil {
		return 0, err
	}
	query := sqlTx.Rebind(`UPDATE payments SET status = ?, refunded_at = ? WHERE locator = ? AND status = ?`)
	result, err := sqlTx.ExecContext(ctx, query,
		string(payment.StatusRefunded), time.Now().UTC(), locator, string(payment.StatusCompleted))
	if err != nil {
		return 0, fmt.Errorf("返金処理に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (r *PaymentRepository) ListByLocator(ctx context.Context, locator string) ([]*payment.Payment, error) {
	var rows []paymentRow
	query := r.db.Rebind(`SELECT id, locator, amount, method, status, transacted_at, refunded_at FROM payments WHERE locator = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &rows, query, locator); err != nil {
		return nil, fmt.Errorf("支払い一覧取得に失敗: %w", err)
	}
	result := make([]*payment.Payment, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, nil
}

var _ payment.Repository = (*PaymentRepository)(nil)
