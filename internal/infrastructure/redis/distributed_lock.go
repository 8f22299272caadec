package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者確認と削除をアトミックに行う
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// DistributedLock は Redis を使用した分散ロック
// 複数レプリカで同じ定期処理が重複実行されないようにするために使う
type DistributedLock struct {
	client *redis.Client
	key    string
	value  string
}

// LockManager は分散ロックを管理する
type LockManager struct {
	client   *redis.Client
	newToken func() string
}

func NewLockManager(client *redis.Client) *LockManager {
	return &LockManager{
		client:   client,
		newToken: func() string { return uuid.New().String() },
	}
}

// AcquireLock はロックを取得する
// 他のプロセスが保持中の場合は待たずに ErrLockNotAcquired を返す
func (m *LockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*DistributedLock, error) {
	start := time.Now()
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := m.newToken()

	ok, err := m.client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		observeLock("acquire", "failed", start)
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		observeLock("acquire", "failed", start)
		return nil, ErrLockNotAcquired
	}
	observeLock("acquire", "success", start)

	return &DistributedLock{client: m.client, key: lockKey, value: lockValue}, nil
}

// WithLock はロックを取得できた場合のみ fn を実行し、終了後にロックを解放する
// ロックを取得できなかった場合は fn を実行せず ErrLockNotAcquired を返す
func (m *LockManager) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	lock, err := m.AcquireLock(ctx, key, ttl)
	if err != nil {
		return err
	}
	fnErr := fn(ctx)
	// fn がタイムアウトしても解放はできるようにする
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := lock.Release(releaseCtx); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

// Release はロックを解放する
func (l *DistributedLock) Release(ctx context.Context) error {
	start := time.Now()
	result, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.value).Int()
	if err != nil {
		observeLock("release", "failed", start)
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	if result == 0 {
		observeLock("release", "failed", start)
		return ErrLockNotOwned
	}
	observeLock("release", "success", start)
	return nil
}

func observeLock(operation, status string, start time.Time) {
	if m := metrics.Get(); m != nil {
		m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}
}
