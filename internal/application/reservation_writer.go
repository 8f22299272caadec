package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// WriteInput は1件の予約で書き込む内容
// Flight は InventoryGuard でロック済みの便
type WriteInput struct {
	Locator    string
	OwnerID    string
	Flight     *flight.Flight
	Passenger  ticket.Passenger
	TravelDate time.Time
	FareClass  reservation.FareClass
	Amount     decimal.Decimal
	Method     string
}

// ReservationWriter は搭乗券・予約・支払いの作成と空席数の減算を1つのトランザクション内で行う
// コミット・ロールバックは呼び出し側が行う
type ReservationWriter struct {
	flights      flight.Repository
	reservations reservation.Repository
	tickets      ticket.Repository
	payments     payment.Repository
}

func NewReservationWriter(fr flight.Repository, rr reservation.Repository, tr ticket.Repository, pr payment.Repository) *ReservationWriter {
	return &ReservationWriter{flights: fr, reservations: rr, tickets: tr, payments: pr}
}

func (w *ReservationWriter) Write(ctx context.Context, tx transaction.Tx, in WriteInput) (*reservation.Reservation, error) {
	travelDate := reservation.TruncateDate(in.TravelDate)
	route := ticket.Route{
		FlightCode:  in.Flight.Code,
		FlightName:  in.Flight.Name,
		Source:      in.Flight.Source,
		Destination: in.Flight.Destination,
	}

	tk := ticket.NewTicket(in.Locator, in.OwnerID, in.Passenger, route, travelDate)
	res := reservation.NewReservation(in.Locator, in.OwnerID, in.Flight.Code, travelDate, in.FareClass)
	p := payment.NewPayment(in.Locator, in.Amount, in.Method)

	// 書き込み前に検証し、保存できない値で途中まで書き込まないようにする
	if err := in.Passenger.Validate(); err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := w.tickets.Create(ctx, tx, tk); err != nil {
		return nil, err
	}
	if err := w.reservations.Create(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := w.payments.Create(ctx, tx, p); err != nil {
		return nil, err
	}

	// 相対更新で減算する（読み取った値からの書き戻しはしない）
	if err := w.flights.DecrementSeats(ctx, tx, in.Flight.Code); err != nil {
		return nil, err
	}
	return res, nil
}
