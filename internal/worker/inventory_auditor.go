package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	redisinfra "github.com/sanosuguru/go-flight-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
)

const (
	auditLockKey         = "inventory-audit"
	defaultAuditInterval = 5 * time.Minute
)

// InventorySource は便ごとの在庫集計を返す
type InventorySource interface {
	AuditInventory(ctx context.Context) ([]*flight.InventoryAudit, error)
}

// Locker はレプリカ間で処理を排他する
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// InventoryAuditor は販売済み座席数と確定予約数の一致を定期的に確認するワーカー
// 読み取りのみで、ずれを検出しても修正はしない
type InventoryAuditor struct {
	source   InventorySource
	locker   Locker
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewInventoryAuditor は新しい監査ワーカーを作成
// locker が nil の場合は排他せずに監査する
// interval が0以下の場合はデフォルトの間隔を使う
func NewInventoryAuditor(source InventorySource, locker Locker, interval time.Duration) *InventoryAuditor {
	if interval <= 0 {
		interval = defaultAuditInterval
	}
	return &InventoryAuditor{
		source:   source,
		locker:   locker,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start は監査を開始
func (a *InventoryAuditor) Start(ctx context.Context) {
	logger.Info("在庫監査ワーカー開始", zap.Duration("interval", a.interval))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	defer close(a.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("在庫監査ワーカー停止（コンテキストキャンセル）")
			return
		case <-a.stopCh:
			logger.Info("在庫監査ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			a.runCycle(ctx)
		}
	}
}

// Stop は監査を停止
func (a *InventoryAuditor) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

func (a *InventoryAuditor) runCycle(ctx context.Context) {
	if a.locker == nil {
		if _, err := a.RunOnce(ctx); err != nil {
			logger.Error("在庫監査失敗", zap.Error(err))
		}
		return
	}

	// 次の周期までにロックが切れるようにする
	err := a.locker.WithLock(ctx, auditLockKey, a.interval/2, func(ctx context.Context) error {
		_, err := a.RunOnce(ctx)
		return err
	})
	switch {
	case errors.Is(err, redisinfra.ErrLockNotAcquired):
		logger.Debug("他のレプリカが在庫監査中のためスキップ")
	case err != nil:
		logger.Error("在庫監査失敗", zap.Error(err))
	}
}

// RunOnce は1回分の監査を行い、ずれのあった便の数を返す
func (a *InventoryAuditor) RunOnce(ctx context.Context) (int, error) {
	log := logger.Get()
	log.Debug("在庫監査開始")

	audits, err := a.source.AuditInventory(ctx)
	if err != nil {
		return 0, err
	}

	m := metrics.Get()
	if m != nil {
		m.InventoryDrift.Reset()
	}

	drifted := 0
	for _, audit := range audits {
		drift := audit.Drift()
		if m != nil {
			m.InventoryDrift.WithLabelValues(audit.FlightCode).Set(float64(drift))
		}
		if drift == 0 {
			continue
		}
		drifted++
		log.Warn("座席在庫と確定予約数が一致しません",
			zap.String("flight_code", audit.FlightCode),
			zap.Int("total_seats", audit.TotalSeats),
			zap.Int("seats_available", audit.SeatsAvailable),
			zap.Int("confirmed_reservations", audit.ConfirmedReservations),
			zap.Int("drift", drift),
		)
	}

	if drifted == 0 {
		log.Debug("在庫のずれなし", zap.Int("flights", len(audits)))
	}
	return drifted, nil
}
