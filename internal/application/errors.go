package application

import "errors"

var (
	// ErrTransactionTimeout は予約・キャンセルのトランザクションが制限時間内に完了しなかった場合のエラー
	// トランザクションはロールバック済みで、バックオフ付きで再試行できる
	ErrTransactionTimeout = errors.New("トランザクションがタイムアウトしました")

	// ErrInvalidInput は入力値の検証エラーをまとめる
	ErrInvalidInput = errors.New("入力内容が不正です")
)
