package reservation

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// FareClass は運賃クラスを表す
type FareClass string

const (
	FareClassEconomy        FareClass = "economy"
	FareClassPremiumEconomy FareClass = "premium_economy"
	FareClassBusiness       FareClass = "business"
	FareClassFirst          FareClass = "first"
)

// LocatorLength は予約番号（ロケーター）の桁数
const LocatorLength = 6

// MaxOwnerIDLength は利用者IDの最大長（owner_id VARCHAR(64)）
const MaxOwnerIDLength = 64

// ValidateOwnerID は利用者IDが空でなく保存可能な長さであることを検証する
func ValidateOwnerID(ownerID string) error {
	if ownerID == "" {
		return ErrOwnerRequired
	}
	if utf8.RuneCountInString(ownerID) > MaxOwnerIDLength {
		return ErrOwnerIDTooLong
	}
	return nil
}

// ParseFareClass は文字列から運賃クラスを解釈する
// 空文字列はエコノミーとして扱う
func ParseFareClass(s string) (FareClass, error) {
	switch fc := FareClass(strings.ToLower(strings.TrimSpace(s))); fc {
	case "":
		return FareClassEconomy, nil
	case FareClassEconomy, FareClassPremiumEconomy, FareClassBusiness, FareClassFirst:
		return fc, nil
	default:
		return "", ErrInvalidFareClass
	}
}

// NormalizeLocator は入力されたロケーターを大文字・前後空白なしに揃える
func NormalizeLocator(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateLocator はロケーターの形式（英大文字・数字6桁）を検証する
func ValidateLocator(locator string) error {
	if locator == "" {
		return ErrLocatorRequired
	}
	if len(locator) != LocatorLength {
		return ErrInvalidLocator
	}
	for _, r := range locator {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return ErrInvalidLocator
		}
	}
	return nil
}

// Reservation は予約エンティティを表す
// 一度発行されたロケーターはキャンセル後も再利用されない
type Reservation struct {
	Locator     string
	OwnerID     string
	FlightCode  string
	TravelDate  time.Time
	FareClass   FareClass
	Status      Status
	BookedAt    time.Time
	CancelledAt *time.Time
}

// NewReservation は確定済みの予約を作成する
func NewReservation(locator, ownerID, flightCode string, travelDate time.Time, fareClass FareClass) *Reservation {
	if fareClass == "" {
		fareClass = FareClassEconomy
	}
	return &Reservation{
		Locator:    locator,
		OwnerID:    ownerID,
		FlightCode: flightCode,
		TravelDate: TruncateDate(travelDate),
		FareClass:  fareClass,
		Status:     StatusConfirmed,
		BookedAt:   time.Now().UTC(),
	}
}

// IsActive は予約が有効（確定済み）かを返す
func (r *Reservation) IsActive() bool {
	return r.Status == StatusConfirmed
}

// Cancel は予約をキャンセル済みにする
func (r *Reservation) Cancel() error {
	if r.Status == StatusCancelled {
		return ErrReservationAlreadyCancelled
	}
	now := time.Now().UTC()
	r.Status = StatusCancelled
	r.CancelledAt = &now
	return nil
}

// Validate は予約の検証を行う
func (r *Reservation) Validate() error {
	if err := ValidateLocator(r.Locator); err != nil {
		return err
	}
	if err := ValidateOwnerID(r.OwnerID); err != nil {
		return err
	}
	if r.FlightCode == "" {
		return ErrFlightCodeRequired
	}
	if r.TravelDate.IsZero() {
		return ErrTravelDateRequired
	}
	if _, err := ParseFareClass(string(r.FareClass)); err != nil {
		return err
	}
	return nil
}

// TruncateDate は日時を UTC の日付（0時0分）に切り詰める
func TruncateDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
