package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-flight-reservation/internal/api"
	"github.com/sanosuguru/go-flight-reservation/internal/api/handler"
	"github.com/sanosuguru/go-flight-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-reservation/internal/config"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Booking *handler.BookingHandler
	Flight  *handler.FlightHandler
	Health  *handler.HealthHandler
}

// Options はルーティングの設定
type Options struct {
	// JWTSecret が空の場合は X-User-ID ヘッダーで利用者を識別する
	JWTSecret string
	// Metrics が nil の場合は HTTP メトリクスと /metrics を登録しない
	Metrics     *metrics.Metrics
	MetricsAuth config.MetricsConfig
}

// New はミドルウェアとルートを登録した Echo を作成する
func New(h Handlers, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	if opts.Metrics != nil {
		e.Use(middleware.PrometheusMiddleware(opts.Metrics))
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(opts.MetricsAuth))
	}

	e.GET("/health", h.Health.Check)

	v1 := e.Group("/api/v1")
	v1.GET("/flights/:code/availability", h.Flight.GetAvailability)

	bookings := v1.Group("/bookings", middleware.Identity(opts.JWTSecret))
	bookings.POST("", h.Booking.Create)
	bookings.GET("", h.Booking.List)
	bookings.GET("/:locator", h.Booking.Get)
	bookings.POST("/:locator/cancel", h.Booking.Cancel)

	return e
}
