package postgres

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/sanosuguru/go-flight-reservation/internal/config"
)

// RunMigrations はドライバーごとのディレクトリ（migrations/postgres, migrations/mysql）のマイグレーションを実行する
func RunMigrations(db *sql.DB, driverName, migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch driverName {
	case config.DriverMySQL:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	default:
		driverName = config.DriverPostgres
		driver, err = migratepg.WithInstance(db, &migratepg.Config{})
	}
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+filepath.Join(migrationsPath, driverName),
		driverName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("マイグレーションインスタンス作成エラー: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	}

	return nil
}
