package transaction

import "context"

// Tx は1回の予約・キャンセル処理を包むトランザクション
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
// 各コンポーネントは受け取った Tx の中で処理するだけで、Commit / Rollback は呼ばない
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを開始するインターフェース
// 開始できるのは予約コーディネーターのみ
type Manager interface {
	// Begin は read committed 以上の分離レベルでトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
