package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/payment"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// memStore はトランザクションを直列化するだけのインメモリストア
// 行ロックの代わりにトランザクション全体で1つのロックを保持する
type memStore struct {
	txMu sync.Mutex

	mu           sync.Mutex
	flights      map[string]*flight.Flight
	reservations map[string]*reservation.Reservation
	tickets      map[string]*ticket.Ticket
	payments     []*payment.Payment
	nextID       int64
}

func newMemStore(flights ...*flight.Flight) *memStore {
	s := &memStore{
		flights:      make(map[string]*flight.Flight),
		reservations: make(map[string]*reservation.Reservation),
		tickets:      make(map[string]*ticket.Ticket),
	}
	for _, f := range flights {
		s.flights[f.Code] = f
	}
	return s
}

func (s *memStore) repositories() Repositories {
	return Repositories{
		Flights:      memFlights{s},
		Reservations: memReservations{s},
		Tickets:      memTickets{s},
		Payments:     memPayments{s},
	}
}

func (s *memStore) seats(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flights[code].SeatsAvailable
}

type memTx struct {
	s    *memStore
	undo []func()
	done bool
}

func (s *memStore) Begin(ctx context.Context) (transaction.Tx, error) {
	s.txMu.Lock()
	if err := ctx.Err(); err != nil {
		s.txMu.Unlock()
		return nil, err
	}
	return &memTx{s: s}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction already done")
	}
	t.done = true
	t.s.txMu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.s.mu.Lock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.s.mu.Unlock()
	t.done = true
	t.s.txMu.Unlock()
	return nil
}

func (t *memTx) onRollback(fn func()) { t.undo = append(t.undo, fn) }

type memFlights struct{ s *memStore }

func (r memFlights) GetByCode(_ context.Context, code string) (*flight.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flights[code]
	if !ok {
		return nil, flight.ErrFlightNotFound
	}
	cp := *f
	return &cp, nil
}

func (r memFlights) LockByCode(ctx context.Context, _ transaction.Tx, code string) (*flight.Flight, error) {
	return r.GetByCode(ctx, code)
}

func (r memFlights) DecrementSeats(_ context.Context, tx transaction.Tx, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.s.flights[code]
	if f == nil || f.SeatsAvailable <= 0 {
		return flight.ErrNoSeatsAvailable
	}
	f.SeatsAvailable--
	tx.(*memTx).onRollback(func() { f.SeatsAvailable++ })
	return nil
}

func (r memFlights) IncrementSeats(_ context.Context, tx transaction.Tx, code string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.s.flights[code]
	if f == nil || f.SeatsAvailable >= f.TotalSeats {
		return flight.ErrSeatCountOverflow
	}
	f.SeatsAvailable++
	tx.(*memTx).onRollback(func() { f.SeatsAvailable-- })
	return nil
}

func (r memFlights) AuditInventory(context.Context) ([]*flight.InventoryAudit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var audits []*flight.InventoryAudit
	for _, f := range r.s.flights {
		a := &flight.InventoryAudit{FlightCode: f.Code, TotalSeats: f.TotalSeats, SeatsAvailable: f.SeatsAvailable}
		for _, res := range r.s.reservations {
			if res.FlightCode == f.Code && res.IsActive() {
				a.ConfirmedReservations++
			}
		}
		audits = append(audits, a)
	}
	sort.Slice(audits, func(i, j int) bool { return audits[i].FlightCode < audits[j].FlightCode })
	return audits, nil
}

type memReservations struct{ s *memStore }

func (r memReservations) Create(_ context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reservations[res.Locator]; ok {
		return reservation.ErrLocatorCollision
	}
	cp := *res
	r.s.reservations[res.Locator] = &cp
	tx.(*memTx).onRollback(func() { delete(r.s.reservations, res.Locator) })
	return nil
}

func (r memReservations) LockByLocatorAndOwner(ctx context.Context, _ transaction.Tx, locator, ownerID string) (*reservation.Reservation, error) {
	return r.GetByLocatorAndOwner(ctx, locator, ownerID)
}

func (r memReservations) MarkCancelled(_ context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.reservations[res.Locator]
	if !ok || !stored.IsActive() {
		return reservation.ErrReservationAlreadyCancelled
	}
	prev := *stored
	stored.Status = reservation.StatusCancelled
	stored.CancelledAt = res.CancelledAt
	tx.(*memTx).onRollback(func() { *stored = prev })
	return nil
}

func (r memReservations) GetByLocatorAndOwner(_ context.Context, locator, ownerID string) (*reservation.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[locator]
	if !ok || res.OwnerID != ownerID {
		return nil, reservation.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r memReservations) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*reservation.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*reservation.Reservation
	for _, res := range r.s.reservations {
		if res.OwnerID == ownerID {
			cp := *res
			list = append(list, &cp)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].BookedAt.After(list[j].BookedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

type memTickets struct{ s *memStore }

func (r memTickets) Create(_ context.Context, tx transaction.Tx, t *ticket.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.flights[t.Route.FlightCode]; !ok {
		return flight.ErrFlightNotFound
	}
	if _, ok := r.s.tickets[t.Locator]; ok {
		return reservation.ErrLocatorCollision
	}
	cp := *t
	r.s.tickets[t.Locator] = &cp
	tx.(*memTx).onRollback(func() { delete(r.s.tickets, t.Locator) })
	return nil
}

func (r memTickets) ExistsByLocator(_ context.Context, locator string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.tickets[locator]
	return ok, nil
}

func (r memTickets) Cancel(_ context.Context, tx transaction.Tx, locator string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[locator]
	if !ok || !t.IsIssued() {
		return ticket.ErrTicketNotFound
	}
	prev := *t
	now := time.Now().UTC()
	t.Status = ticket.StatusCancelled
	t.CancelledAt = &now
	tx.(*memTx).onRollback(func() { *t = prev })
	return nil
}

func (r memTickets) GetByLocator(_ context.Context, locator string) (*ticket.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[locator]
	if !ok {
		return nil, ticket.ErrTicketNotFound
	}
	cp := *t
	return &cp, nil
}

type memPayments struct{ s *memStore }

func (r memPayments) Create(_ context.Context, tx transaction.Tx, p *payment.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	p.ID = r.s.nextID
	cp := *p
	r.s.payments = append(r.s.payments, &cp)
	n := len(r.s.payments)
	tx.(*memTx).onRollback(func() { r.s.payments = r.s.payments[:n-1] })
	return nil
}

func (r memPayments) RefundByLocator(_ context.Context, tx transaction.Tx, locator string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.payments {
		if p.Locator == locator && p.Status == payment.StatusCompleted {
			p := p
			p.Status = payment.StatusRefunded
			tx.(*memTx).onRollback(func() { p.Status = payment.StatusCompleted })
			n++
		}
	}
	return n, nil
}

func (r memPayments) ListByLocator(_ context.Context, locator string) ([]*payment.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*payment.Payment
	for _, p := range r.s.payments {
		if p.Locator == locator {
			cp := *p
			list = append(list, &cp)
		}
	}
	return list, nil
}
