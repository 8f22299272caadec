package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// InventoryGuard は予約トランザクション内で便の在庫行をロックして空席を確認する
type InventoryGuard struct {
	flights flight.Repository
}

func NewInventoryGuard(flights flight.Repository) *InventoryGuard {
	return &InventoryGuard{flights: flights}
}

// LockAndCheck は在庫行をロックし、空席があればロック済みの便を返す
// ロックは tx の終了まで保持される
func (g *InventoryGuard) LockAndCheck(ctx context.Context, tx transaction.Tx, flightCode string) (*flight.Flight, error) {
	f, err := g.flights.LockByCode(ctx, tx, flightCode)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("在庫行が不整合です: %w", err)
	}
	if !f.HasAvailableSeat() {
		return nil, flight.ErrNoSeatsAvailable
	}
	return f, nil
}
