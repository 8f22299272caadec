package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
)

// CancellationCompensator は予約による変更をすべて取り消す
// 削除はせず、支払いは返金済み・搭乗券と予約はキャンセル済みとして残す
type CancellationCompensator struct {
	flights      flight.Repository
	reservations reservation.Repository
	tickets      ticket.Repository
	payments     payment.Repository
}

func NewCancellationCompensator(fr flight.Repository, rr reservation.Repository, tr ticket.Repository, pr payment.Repository) *CancellationCompensator {
	return &CancellationCompensator{flights: fr, reservations: rr, tickets: tr, payments: pr}
}

// Cancel は本人の予約をロックして取り消し、キャンセル済みの予約を返す
// 他人の予約は ErrReservationNotFound になる
// ロック後に失敗した場合もロックした予約をエラーと一緒に返す
func (c *CancellationCompensator) Cancel(ctx context.Context, tx transaction.Tx, locator, ownerID string) (*reservation.Reservation, error) {
	res, err := c.reservations.LockByLocatorAndOwner(ctx, tx, locator, ownerID)
	if err != nil {
		return nil, err
	}
	if err := res.Cancel(); err != nil {
		return res, err
	}

	refunded, err := c.payments.RefundByLocator(ctx, tx, locator)
	if err != nil {
		return res, err
	}
	if refunded == 0 {
		logger.Warn("返金対象の支払いがありません", logger.Booking(locator, res.FlightCode, ownerID)...)
	}

	if err := c.tickets.Cancel(ctx, tx, locator); err != nil {
		return res, err
	}
	if err := c.reservations.MarkCancelled(ctx, tx, res); err != nil {
		return res, err
	}

	if err := c.flights.IncrementSeats(ctx, tx, res.FlightCode); err != nil {
		if !errors.Is(err, flight.ErrSeatCountOverflow) {
			return res, err
		}
		// 空席数が既に総座席数に達している。キャンセルは完了させ、ずれは在庫監査で検出する
		logger.Warn("空席数が総座席数に達しているため加算しません",
			append(logger.Booking(locator, res.FlightCode, ownerID), zap.Error(err))...)
	}
	return res, nil
}
