package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
)

const (
	defaultTxTimeout = 10 * time.Second
	defaultListLimit = 20
	maxListLimit     = 100
	afterCommitLimit = 2 * time.Second
)

// Repositories は BookingService が使うリポジトリ一式
type Repositories struct {
	Flights      flight.Repository
	Reservations reservation.Repository
	Tickets      ticket.Repository
	Payments     payment.Repository
}

// BookingOptions は予約トランザクションの設定
type BookingOptions struct {
	TxTimeout          time.Duration
	LocatorMaxAttempts int
}

// BookingService は予約・キャンセルのトランザクションを開始・コミット・ロールバックする唯一のコンポーネント
// 失敗時の自動リトライは行わない
type BookingService struct {
	txManager    transaction.Manager
	locators     *LocatorGenerator
	guard        *InventoryGuard
	writer       *ReservationWriter
	compensator  *CancellationCompensator
	reservations reservation.Repository
	tickets      ticket.Repository
	payments     payment.Repository
	cache        AvailabilityCache
	publisher    EventPublisher
	txTimeout    time.Duration
}

func NewBookingService(txm transaction.Manager, repos Repositories, cache AvailabilityCache, publisher EventPublisher, opts BookingOptions) *BookingService {
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = defaultTxTimeout
	}
	return &BookingService{
		txManager:    txm,
		locators:     NewLocatorGenerator(repos.Tickets, opts.LocatorMaxAttempts),
		guard:        NewInventoryGuard(repos.Flights),
		writer:       NewReservationWriter(repos.Flights, repos.Reservations, repos.Tickets, repos.Payments),
		compensator:  NewCancellationCompensator(repos.Flights, repos.Reservations, repos.Tickets, repos.Payments),
		reservations: repos.Reservations,
		tickets:      repos.Tickets,
		payments:     repos.Payments,
		cache:        cache,
		publisher:    publisher,
		txTimeout:    opts.TxTimeout,
	}
}

type BookFlightInput struct {
	OwnerID    string
	FlightCode string
	Passenger  ticket.Passenger
	TravelDate time.Time
	FareClass  string
	Amount     decimal.Decimal
	Method     string
}

func (in *BookFlightInput) validate() (reservation.FareClass, error) {
	if err := reservation.ValidateOwnerID(in.OwnerID); err != nil {
		return "", err
	}
	if in.FlightCode == "" {
		return "", reservation.ErrFlightCodeRequired
	}
	if err := in.Passenger.Validate(); err != nil {
		return "", err
	}
	if in.TravelDate.IsZero() {
		return "", reservation.ErrTravelDateRequired
	}
	if err := payment.ValidateAmount(in.Amount); err != nil {
		return "", err
	}
	if err := payment.ValidateMethod(in.Method); err != nil {
		return "", err
	}
	return reservation.ParseFareClass(in.FareClass)
}

// BookingDetail は予約・搭乗券・支払いをまとめた照会結果
type BookingDetail struct {
	Reservation *reservation.Reservation
	Ticket      *ticket.Ticket
	Payments    []*payment.Payment
}

// BookFlight は1席を予約し、確定したロケーターを返す
// 失敗した場合はすべての書き込みがロールバックされている
func (s *BookingService) BookFlight(ctx context.Context, input BookFlightInput) (string, error) {
	fareClass, err := input.validate()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()
	start := time.Now()

	locator := s.locators.Generate(ctx)
	fields := logger.Booking(locator, input.FlightCode, input.OwnerID)

	res, err := s.runInTx(ctx, "book", func(tx transaction.Tx) (*reservation.Reservation, error) {
		f, err := s.guard.LockAndCheck(ctx, tx, input.FlightCode)
		if err != nil {
			return nil, err
		}
		return s.writer.Write(ctx, tx, WriteInput{
			Locator:    locator,
			OwnerID:    input.OwnerID,
			Flight:     f,
			Passenger:  input.Passenger,
			TravelDate: input.TravelDate,
			FareClass:  fareClass,
			Amount:     input.Amount,
			Method:     input.Method,
		})
	})
	if err != nil {
		err = s.translateError(ctx, err)
		recordBooking(bookingStatus(err))
		if isBusinessError(err) {
			logger.Info("予約できませんでした", append(fields, zap.Error(err))...)
		} else {
			logger.Error("予約処理に失敗しました", append(fields, zap.Error(err))...)
		}
		return "", err
	}

	recordBooking("success")
	logger.Info("予約が確定しました", append(fields, zap.Duration("elapsed", time.Since(start)))...)

	s.afterCommit(ctx, res.FlightCode, RoutingKeyBookingConfirmed, BookingConfirmedEvent{
		Locator:    res.Locator,
		OwnerID:    res.OwnerID,
		FlightCode: res.FlightCode,
		TravelDate: res.TravelDate.Format(time.DateOnly),
		FareClass:  string(res.FareClass),
		Amount:     input.Amount.StringFixed(2),
		OccurredAt: res.BookedAt,
	})
	return res.Locator, nil
}

// CancelBooking は本人の予約を取り消す
// 存在しない予約と他人の予約はどちらも ErrReservationNotFound を返す
func (s *BookingService) CancelBooking(ctx context.Context, ownerID, locator string) error {
	locator = reservation.NormalizeLocator(locator)
	if err := reservation.ValidateOwnerID(ownerID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := reservation.ValidateLocator(locator); err != nil {
		if errors.Is(err, reservation.ErrInvalidLocator) {
			recordCancellation("not_found")
			return reservation.ErrReservationNotFound
		}
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var flightCode string
	res, err := s.runInTx(ctx, "cancel", func(tx transaction.Tx) (*reservation.Reservation, error) {
		locked, err := s.compensator.Cancel(ctx, tx, locator, ownerID)
		if locked != nil {
			flightCode = locked.FlightCode
		}
		return locked, err
	})
	if err != nil {
		fields := logger.Booking(locator, flightCode, ownerID)
		err = s.translateError(ctx, err)
		recordCancellation(cancellationStatus(err))
		if isBusinessError(err) {
			logger.Info("キャンセルできませんでした", append(fields, zap.Error(err))...)
		} else {
			logger.Error("キャンセル処理に失敗しました", append(fields, zap.Error(err))...)
		}
		return err
	}

	recordCancellation("success")
	logger.Info("予約をキャンセルしました", logger.Booking(locator, res.FlightCode, ownerID)...)

	s.afterCommit(ctx, res.FlightCode, RoutingKeyBookingCancelled, newBookingCancelledEvent(res))
	return nil
}

// GetBooking は本人の予約詳細を取得する
func (s *BookingService) GetBooking(ctx context.Context, ownerID, locator string) (*BookingDetail, error) {
	locator = reservation.NormalizeLocator(locator)
	if err := reservation.ValidateLocator(locator); err != nil {
		return nil, reservation.ErrReservationNotFound
	}
	res, err := s.reservations.GetByLocatorAndOwner(ctx, locator, ownerID)
	if err != nil {
		return nil, err
	}
	tk, err := s.tickets.GetByLocator(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("搭乗券取得に失敗: %w", err)
	}
	payments, err := s.payments.ListByLocator(ctx, locator)
	if err != nil {
		return nil, err
	}
	return &BookingDetail{Reservation: res, Ticket: tk, Payments: payments}, nil
}

// ListBookings は本人の予約一覧を新しい順に取得する
func (s *BookingService) ListBookings(ctx context.Context, ownerID string, limit, offset int) ([]*reservation.Reservation, error) {
	if err := reservation.ValidateOwnerID(ownerID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.reservations.ListByOwner(ctx, ownerID, limit, offset)
}

// runInTx は fn をトランザクション内で実行する
// fn がエラーを返した場合とコミットに失敗した場合はロールバックする
func (s *BookingService) runInTx(ctx context.Context, operation string, fn func(tx transaction.Tx) (*reservation.Reservation, error)) (*reservation.Reservation, error) {
	start := time.Now()
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		observeTx(operation, "rolled_back", start)
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("ロールバックに失敗しました", zap.String("operation", operation), zap.Error(rbErr))
		}
		observeTx(operation, "rolled_back", start)
	}()

	res, err := fn(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	committed = true
	observeTx(operation, "committed", start)
	return res, nil
}

// translateError はタイムアウトを ErrTransactionTimeout に変換する
// ドメインエラーはそのまま返す
func (s *BookingService) translateError(ctx context.Context, err error) error {
	if isBusinessError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTransactionTimeout, err)
	}
	return err
}

// afterCommit はキャッシュの無効化とイベント発行を行う
// どちらもベストエフォートで、失敗してもコミット済みの結果は変わらない
func (s *BookingService) afterCommit(ctx context.Context, flightCode, routingKey string, event any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitLimit)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, flightCode); err != nil {
			logger.Warn("キャッシュ無効化エラー", zap.String("flight_code", flightCode), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
			logger.Warn("イベント発行エラー", zap.String("routing_key", routingKey), zap.Error(err))
		}
	}
}

func isBusinessError(err error) bool {
	return errors.Is(err, flight.ErrFlightNotFound) ||
		errors.Is(err, flight.ErrNoSeatsAvailable) ||
		errors.Is(err, reservation.ErrLocatorCollision) ||
		errors.Is(err, reservation.ErrReservationNotFound) ||
		errors.Is(err, reservation.ErrReservationAlreadyCancelled)
}

func bookingStatus(err error) string {
	switch {
	case errors.Is(err, flight.ErrNoSeatsAvailable):
		return "no_seats"
	case errors.Is(err, flight.ErrFlightNotFound):
		return "flight_not_found"
	case errors.Is(err, reservation.ErrLocatorCollision):
		return "collision"
	case errors.Is(err, ErrTransactionTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func cancellationStatus(err error) string {
	switch {
	case errors.Is(err, reservation.ErrReservationNotFound):
		return "not_found"
	case errors.Is(err, reservation.ErrReservationAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, ErrTransactionTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func recordBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func recordCancellation(status string) {
	if m := metrics.Get(); m != nil {
		m.CancellationsTotal.WithLabelValues(status).Inc()
	}
}

func observeTx(operation, status string, start time.Time) {
	if m := metrics.Get(); m != nil {
		m.BookingTxDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}
}
