package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockFlightRepository implements flight.Repository
type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) GetByCode(ctx context.Context, code string) (*flight.Flight, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Flight), args.Error(1)
}

func (m *MockFlightRepository) LockByCode(ctx context.Context, tx transaction.Tx, code string) (*flight.Flight, error) {
	args := m.Called(ctx, tx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Flight), args.Error(1)
}

func (m *MockFlightRepository) DecrementSeats(ctx context.Context, tx transaction.Tx, code string) error {
	args := m.Called(ctx, tx, code)
	return args.Error(0)
}

func (m *MockFlightRepository) IncrementSeats(ctx context.Context, tx transaction.Tx, code string) error {
	args := m.Called(ctx, tx, code)
	return args.Error(0)
}

func (m *MockFlightRepository) AuditInventory(ctx context.Context) ([]*flight.InventoryAudit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*flight.InventoryAudit), args.Error(1)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) LockByLocatorAndOwner(ctx context.Context, tx transaction.Tx, locator, ownerID string) (*reservation.Reservation, error) {
	args := m.Called(ctx, tx, locator, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) MarkCancelled(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByLocatorAndOwner(ctx context.Context, locator, ownerID string) (*reservation.Reservation, error) {
	args := m.Called(ctx, locator, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

// MockTicketRepository implements ticket.Repository
type MockTicketRepository struct {
	mock.Mock
}

func (m *MockTicketRepository) Create(ctx context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	args := m.Called(ctx, tx, t)
	return args.Error(0)
}

func (m *MockTicketRepository) ExistsByLocator(ctx context.Context, locator string) (bool, error) {
	args := m.Called(ctx, locator)
	return args.Bool(0), args.Error(1)
}

func (m *MockTicketRepository) Cancel(ctx context.Context, tx transaction.Tx, locator string) error {
	args := m.Called(ctx, tx, locator)
	return args.Error(0)
}

func (m *MockTicketRepository) GetByLocator(ctx context.Context, locator string) (*ticket.Ticket, error) {
	args := m.Called(ctx, locator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ticket.Ticket), args.Error(1)
}

// MockPaymentRepository implements payment.Repository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx transaction.Tx, p *payment.Payment) error {
	args := m.Called(ctx, tx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) RefundByLocator(ctx context.Context, tx transaction.Tx, locator string) (int64, error) {
	args := m.Called(ctx, tx, locator)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) ListByLocator(ctx context.Context, locator string) ([]*payment.Payment, error) {
	args := m.Called(ctx, locator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

// MockAvailabilityCache implements AvailabilityCache
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, flightCode string) (*flight.Flight, error) {
	args := m.Called(ctx, flightCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Flight), args.Error(1)
}

func (m *MockAvailabilityCache) Set(ctx context.Context, f *flight.Flight, ttl time.Duration) error {
	args := m.Called(ctx, f, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, flightCode string) error {
	args := m.Called(ctx, flightCode)
	return args.Error(0)
}

// MockEventPublisher implements EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}
