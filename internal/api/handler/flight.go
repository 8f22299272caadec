package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-reservation/internal/api"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
)

type FlightHandler struct {
	service FlightServiceInterface
}

func NewFlightHandler(s FlightServiceInterface) *FlightHandler {
	return &FlightHandler{service: s}
}

type AvailabilityResponse struct {
	FlightCode     string    `json:"flight_code" example:"AI100"`
	FlightName     string    `json:"flight_name" example:"Air India 100"`
	Source         string    `json:"source" example:"DEL"`
	Destination    string    `json:"destination" example:"BOM"`
	SeatsAvailable int       `json:"seats_available" example:"42"`
	TotalSeats     int       `json:"total_seats" example:"180"`
	SoldSeats      int       `json:"sold_seats" example:"138"`
	Available      bool      `json:"available" example:"true"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toAvailabilityResponse(f *flight.Flight) AvailabilityResponse {
	return AvailabilityResponse{
		FlightCode: f.Code, FlightName: f.Name, Source: f.Source, Destination: f.Destination,
		SeatsAvailable: f.SeatsAvailable, TotalSeats: f.TotalSeats, SoldSeats: f.SoldSeats(),
		Available: f.HasAvailableSeat(), UpdatedAt: f.UpdatedAt,
	}
}

// GetAvailability godoc
// @Summary 空席状況を取得
// @Description 便の空席数を返します（キャッシュされるため予約可否の保証ではありません）
// @Tags flights
// @Produce json
// @Param code path string true "便コード"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /flights/{code}/availability [get]
func (h *FlightHandler) GetAvailability(c echo.Context) error {
	f, err := h.service.GetAvailability(c.Request().Context(), c.Param("code"))
	if err != nil {
		return api.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, toAvailabilityResponse(f))
}
