package ticket

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// Repository は搭乗券リポジトリのインターフェース
type Repository interface {
	// Create は搭乗券を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, ticket *Ticket) error

	// ExistsByLocator はロケーターが発行済みかを返す（キャンセル済みも含む）
	ExistsByLocator(ctx context.Context, locator string) (bool, error)

	// Cancel は搭乗券をキャンセル済みにする（トランザクション必須）
	Cancel(ctx context.Context, tx transaction.Tx, locator string) error

	// GetByLocator はロケーターから搭乗券を取得する
	GetByLocator(ctx context.Context, locator string) (*Ticket, error)
}
