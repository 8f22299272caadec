package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
)

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"便なし", flight.ErrFlightNotFound, http.StatusNotFound},
		{"空席なし", flight.ErrNoSeatsAvailable, http.StatusConflict},
		{"予約番号重複", reservation.ErrLocatorCollision, http.StatusServiceUnavailable},
		{"予約なし", reservation.ErrReservationNotFound, http.StatusNotFound},
		{"キャンセル済み", reservation.ErrReservationAlreadyCancelled, http.StatusConflict},
		{"タイムアウト", fmt.Errorf("%w: %w", application.ErrTransactionTimeout, errors.New("deadline")), http.StatusGatewayTimeout},
		{"入力不正", fmt.Errorf("%w: %w", application.ErrInvalidInput, reservation.ErrOwnerRequired), http.StatusBadRequest},
		{"ラップされた便なし", fmt.Errorf("便取得に失敗: %w", flight.ErrFlightNotFound), http.StatusNotFound},
		{"未知のエラー", errors.New("connection reset"), http.StatusInternalServerError},
		{"HTTPエラーはそのまま", echo.NewHTTPError(http.StatusUnauthorized, "x"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPError(tt.err).Code)
		})
	}
}

func TestToHTTPError_HidesInternalMessage(t *testing.T) {
	he := ToHTTPError(errors.New("pq: password authentication failed"))

	assert.Equal(t, internalErrorMessage, he.Message)
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	e := echo.New()

	t.Run("ドメインエラーをJSONで返す", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		CustomHTTPErrorHandler(flight.ErrNoSeatsAvailable, c)

		assert.Equal(t, http.StatusConflict, rec.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, flight.ErrNoSeatsAvailable.Error(), resp.Error)
		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("HEADはボディなし", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodHead, "/health", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		CustomHTTPErrorHandler(echo.ErrNotFound, c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}
