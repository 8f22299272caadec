package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Booking  BookingConfig
	Worker   WorkerConfig
}

// AppConfig はアプリケーション全体の設定
type AppConfig struct {
	Env string
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
	MaxOpenConns   int
	MaxIdleConns   int
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// RabbitMQConfig はメッセージブローカー設定
// URL が空の場合はイベント発行を行わない
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// AuthConfig は認証設定
// JWTSecret が空の場合は X-User-ID ヘッダーで利用者を識別する
type AuthConfig struct {
	JWTSecret string
}

// MetricsConfig は /metrics の Basic 認証設定
// User と Password の両方が設定されている場合のみ認証を要求する
type MetricsConfig struct {
	User     string
	Password string
}

// BookingConfig は予約トランザクションの設定
type BookingConfig struct {
	TxTimeout            time.Duration
	LocatorMaxAttempts   int
	AvailabilityCacheTTL time.Duration
}

// WorkerConfig はバックグラウンドワーカーの設定
type WorkerConfig struct {
	AuditEnabled  bool
	AuditInterval time.Duration
}

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		App: AppConfig{
			Env: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:         getEnv("DB_DRIVER", DriverPostgres),
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "flight_reservation"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "migrations"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "bookings"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Metrics: MetricsConfig{
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
		Booking: BookingConfig{
			TxTimeout:            getDurationEnv("BOOKING_TX_TIMEOUT", 10*time.Second),
			LocatorMaxAttempts:   getIntEnv("LOCATOR_MAX_ATTEMPTS", 5),
			AvailabilityCacheTTL: getDurationEnv("AVAILABILITY_CACHE_TTL", 30*time.Second),
		},
		Worker: WorkerConfig{
			AuditEnabled:  getBoolEnv("INVENTORY_AUDIT_ENABLED", true),
			AuditInterval: getDurationEnv("INVENTORY_AUDIT_INTERVAL", 5*time.Minute),
		},
	}

	// DATABASE_URL / REDIS_URL が設定されていれば個別設定より優先する
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		applyDatabaseURL(&cfg.Database, raw)
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		applyRedisURL(&cfg.Redis, raw)
	}

	return cfg
}

// DSN はドライバーに応じた接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverMySQL {
		// DATE / TIMESTAMP を time.Time で受け取るため parseTime が必要
		return c.User + ":" + c.Password +
			"@tcp(" + net.JoinHostPort(c.Host, c.Port) + ")/" + c.DBName +
			"?parseTime=true&loc=UTC"
	}
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// AuthEnabled は認証が有効かどうかを返す
func (c *MetricsConfig) AuthEnabled() bool {
	return c.User != "" && c.Password != ""
}

// Enabled はブローカーが設定されているかを返す
func (c *RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

func applyDatabaseURL(db *DatabaseConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	switch u.Scheme {
	case "mysql":
		db.Driver = DriverMySQL
	default:
		db.Driver = DriverPostgres
	}
	db.Host = u.Hostname()
	if p := u.Port(); p != "" {
		db.Port = p
	}
	if u.User != nil {
		db.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			db.Password = pw
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		db.DBName = name
	}
	// マネージドDBはTLS前提なので sslmode 未指定時は require
	db.SSLMode = "require"
	if mode := u.Query().Get("sslmode"); mode != "" {
		db.SSLMode = mode
	}
}

func applyRedisURL(r *RedisConfig, raw string) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return
	}
	r.Host = u.Hostname()
	if p := u.Port(); p != "" {
		r.Port = p
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			r.Password = pw
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv は正の期間のみ受け付け、0以下や解釈できない値はデフォルトにする
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
