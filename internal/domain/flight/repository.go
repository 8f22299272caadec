package flight

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// Repository は便在庫リポジトリのインターフェース
type Repository interface {
	// GetByCode は便コードから便を取得する（ロックなし）
	GetByCode(ctx context.Context, code string) (*Flight, error)

	// LockByCode は便の在庫行を排他ロックして取得する（SELECT ... FOR UPDATE、トランザクション必須）
	LockByCode(ctx context.Context, tx transaction.Tx, code string) (*Flight, error)

	// DecrementSeats は空席数を1減らす（相対更新、トランザクション必須）
	DecrementSeats(ctx context.Context, tx transaction.Tx, code string) error

	// IncrementSeats は空席数を1増やす（相対更新、総座席数を超えない、トランザクション必須）
	IncrementSeats(ctx context.Context, tx transaction.Tx, code string) error

	// AuditInventory は便ごとの販売済み座席数と確定済み予約数を集計する
	AuditInventory(ctx context.Context) ([]*InventoryAudit, error)
}
