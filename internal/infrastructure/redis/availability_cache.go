package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

type cachedFlight struct {
	Code           string    `json:"flight_code"`
	Name           string    `json:"flight_name"`
	Source         string    `json:"source"`
	Destination    string    `json:"destination"`
	SeatsAvailable int       `json:"seats_available"`
	TotalSeats     int       `json:"total_seats"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AvailabilityCache は便ごとの空席情報をキャッシュする
// 予約・キャンセルのコミット後に無効化される読み取り専用のキャッシュで、在庫判定には使わない
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// Get は便の空席情報をキャッシュから取得する
func (c *AvailabilityCache) Get(ctx context.Context, flightCode string) (*flight.Flight, error) {
	raw, err := c.client.Get(ctx, availabilityKey(flightCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var cf cachedFlight
	if err := json.Unmarshal([]byte(raw), &cf); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	return &flight.Flight{
		Code: cf.Code, Name: cf.Name, Source: cf.Source, Destination: cf.Destination,
		SeatsAvailable: cf.SeatsAvailable, TotalSeats: cf.TotalSeats, UpdatedAt: cf.UpdatedAt,
	}, nil
}

// Set は便の空席情報をキャッシュに保存する
func (c *AvailabilityCache) Set(ctx context.Context, f *flight.Flight, ttl time.Duration) error {
	data, err := json.Marshal(cachedFlight{
		Code: f.Code, Name: f.Name, Source: f.Source, Destination: f.Destination,
		SeatsAvailable: f.SeatsAvailable, TotalSeats: f.TotalSeats, UpdatedAt: f.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("キャッシュの変換に失敗: %w", err)
	}
	if err := c.client.Set(ctx, availabilityKey(f.Code), string(data), ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は便のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, flightCode string) error {
	if err := c.client.Del(ctx, availabilityKey(flightCode)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availabilityKey(flightCode string) string {
	return fmt.Sprintf("flights:availability:%s", flightCode)
}
