package reservation

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// LockByLocatorAndOwner は利用者本人の予約を排他ロックして取得する（トランザクション必須）
	LockByLocatorAndOwner(ctx context.Context, tx transaction.Tx, locator, ownerID string) (*Reservation, error)

	// MarkCancelled は予約をキャンセル済みとして保存する（トランザクション必須）
	MarkCancelled(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByLocatorAndOwner は利用者本人の予約を取得する
	GetByLocatorAndOwner(ctx context.Context, locator, ownerID string) (*Reservation, error)

	// ListByOwner は利用者の予約一覧を新しい順に取得する
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Reservation, error)
}
