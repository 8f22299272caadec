package postgres

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sanosuguru/go-flight-reservation/internal/config"
)

// NewConnection は設定されたドライバー（postgres / mysql）でデータベースへ接続する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverPostgres
	}
	if driver != config.DriverPostgres && driver != config.DriverMySQL {
		return nil, fmt.Errorf("未対応のデータベースドライバーです: %s", driver)
	}

	db, err := sqlx.Connect(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	// 接続プール設定
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	return db, nil
}

// Ping はデータベース接続を確認する
func Ping(ctx context.Context, db *sqlx.DB) error {
	return db.PingContext(ctx)
}

// insertReturningID は INSERT を実行して採番されたIDを返す
// lib/pq は LastInsertId に対応していないため PostgreSQL では RETURNING を使う
func insertReturningID(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	if tx.DriverName() == config.DriverPostgres {
		var id int64
		if err := tx.QueryRowxContext(ctx, tx.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}
