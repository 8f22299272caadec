package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/ticket"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

const internalErrorMessage = "内部サーバーエラー"

// ToHTTPError はドメインエラーをHTTPエラーに変換する
// 未知のエラーは内容を隠して500にする
func ToHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, flight.ErrFlightNotFound),
		errors.Is(err, reservation.ErrReservationNotFound),
		errors.Is(err, ticket.ErrTicketNotFound):
		code = http.StatusNotFound
	case errors.Is(err, flight.ErrNoSeatsAvailable),
		errors.Is(err, reservation.ErrReservationAlreadyCancelled):
		code = http.StatusConflict
	case errors.Is(err, reservation.ErrLocatorCollision):
		code = http.StatusServiceUnavailable
	case errors.Is(err, application.ErrTransactionTimeout):
		code = http.StatusGatewayTimeout
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = internalErrorMessage
	}
	return &echo.HTTPError{Code: code, Message: message, Internal: err}
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := ToHTTPError(err)
	code := he.Code
	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(code)
	}

	// 5xx はサーバー側の原因を残す
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(code)
	} else {
		writeErr = c.JSON(code, ErrorResponse{Error: message, Code: code})
	}
	if writeErr != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(writeErr))
	}
}
