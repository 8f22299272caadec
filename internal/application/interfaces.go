package application

import (
	"context"
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
)

// AvailabilityCache は便の空席情報キャッシュ
type AvailabilityCache interface {
	Get(ctx context.Context, flightCode string) (*flight.Flight, error)
	Set(ctx context.Context, f *flight.Flight, ttl time.Duration) error
	Invalidate(ctx context.Context, flightCode string) error
}

// EventPublisher はコミット後の予約イベントを外部へ通知する
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// LocatorChecker はロケーターが発行済みかを確認する
type LocatorChecker interface {
	ExistsByLocator(ctx context.Context, locator string) (bool, error)
}
