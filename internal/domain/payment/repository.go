package payment

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// Repository は支払いリポジトリのインターフェース
type Repository interface {
	// Create は支払いを記録する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, payment *Payment) error

	// RefundByLocator はロケーターに紐づく完了済みの支払いを返金済みにし、件数を返す（トランザクション必須）
	RefundByLocator(ctx context.Context, tx transaction.Tx, locator string) (int64, error)

	// ListByLocator はロケーターに紐づく支払いを古い順に取得する
	ListByLocator(ctx context.Context, locator string) ([]*Payment, error)
}
