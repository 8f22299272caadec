package handler

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	BookFlight(ctx context.Context, input application.BookFlightInput) (string, error)
	CancelBooking(ctx context.Context, ownerID, locator string) error
	GetBooking(ctx context.Context, ownerID, locator string) (*application.BookingDetail, error)
	ListBookings(ctx context.Context, ownerID string, limit, offset int) ([]*reservation.Reservation, error)
}

// FlightServiceInterface は便サービスのインターフェース
type FlightServiceInterface interface {
	GetAvailability(ctx context.Context, flightCode string) (*flight.Flight, error)
}
