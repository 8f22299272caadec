package application

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	redisinfra "github.com/sanosuguru/go-flight-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
)

const defaultAvailabilityTTL = 30 * time.Second

// FlightService は便の空席照会を提供する
// 照会結果は表示用で、予約可否の判定は必ずトランザクション内の行ロックで行う
type FlightService struct {
	flights flight.Repository
	cache   AvailabilityCache
	ttl     time.Duration
}

func NewFlightService(fr flight.Repository, cache AvailabilityCache, ttl time.Duration) *FlightService {
	if ttl <= 0 {
		ttl = defaultAvailabilityTTL
	}
	return &FlightService{flights: fr, cache: cache, ttl: ttl}
}

func (s *FlightService) GetAvailability(ctx context.Context, flightCode string) (*flight.Flight, error) {
	if flightCode == "" {
		return nil, flight.ErrFlightNotFound
	}

	// キャッシュから取得を試みる
	if s.cache != nil {
		f, err := s.cache.Get(ctx, flightCode)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("flight_code", flightCode), zap.Int("seats_available", f.SeatsAvailable))
			return f, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	f, err := s.flights.GetByCode(ctx, flightCode)
	if err != nil {
		return nil, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, f, s.ttl); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}
	return f, nil
}
