package application

import (
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
)

const (
	RoutingKeyBookingConfirmed = "booking.confirmed"
	RoutingKeyBookingCancelled = "booking.cancelled"
)

// BookingConfirmedEvent は予約確定のコミット後に発行される
type BookingConfirmedEvent struct {
	Locator    string    `json:"locator"`
	OwnerID    string    `json:"owner_id"`
	FlightCode string    `json:"flight_code"`
	TravelDate string    `json:"travel_date"`
	FareClass  string    `json:"fare_class"`
	Amount     string    `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent は予約キャンセルのコミット後に発行される
type BookingCancelledEvent struct {
	Locator    string    `json:"locator"`
	OwnerID    string    `json:"owner_id"`
	FlightCode string    `json:"flight_code"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newBookingCancelledEvent(res *reservation.Reservation) BookingCancelledEvent {
	occurred := time.Now().UTC()
	if res.CancelledAt != nil {
		occurred = *res.CancelledAt
	}
	return BookingCancelledEvent{
		Locator:    res.Locator,
		OwnerID:    res.OwnerID,
		FlightCode: res.FlightCode,
		OccurredAt: occurred,
	}
}
