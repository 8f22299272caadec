package ticket

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status は搭乗券の状態を表す
type Status string

const (
	StatusIssued    Status = "issued"
	StatusCancelled Status = "cancelled"
)

// Passenger は搭乗者情報
type Passenger struct {
	Name        string
	NationalID  string
	Nationality string
	Address     string
	Gender      string
}

// 搭乗者情報の最大長（tickets テーブルの列長）
const (
	MaxNameLength        = 100
	MaxNationalIDLength  = 32
	MaxNationalityLength = 64
	MaxAddressLength     = 255
	MaxGenderLength      = 16
)

// Validate は搭乗者情報の必須項目と長さを検証する
func (p Passenger) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrPassengerNameRequired
	}
	if strings.TrimSpace(p.NationalID) == "" {
		return ErrNationalIDRequired
	}
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"name", p.Name, MaxNameLength},
		{"national_id", p.NationalID, MaxNationalIDLength},
		{"nationality", p.Nationality, MaxNationalityLength},
		{"address", p.Address, MaxAddressLength},
		{"gender", p.Gender, MaxGenderLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return fmt.Errorf("%w: %s", ErrPassengerFieldTooLong, l.field)
		}
	}
	return nil
}

// Route は発券時点の便情報のスナップショット
type Route struct {
	FlightCode  string
	FlightName  string
	Source      string
	Destination string
}

// Ticket は予約と1対1で対応する搭乗券
type Ticket struct {
	Locator     string
	OwnerID     string
	Passenger   Passenger
	Route       Route
	TravelDate  time.Time
	Status      Status
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// NewTicket は発券済みの搭乗券を作成する
func NewTicket(locator, ownerID string, passenger Passenger, route Route, travelDate time.Time) *Ticket {
	return &Ticket{
		Locator:    locator,
		OwnerID:    ownerID,
		Passenger:  passenger,
		Route:      route,
		TravelDate: travelDate,
		Status:     StatusIssued,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsIssued は搭乗券が有効かを返す
func (t *Ticket) IsIssued() bool {
	return t.Status == StatusIssued
}
