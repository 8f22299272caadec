package flight

import "time"

// Flight は便ごとの座席在庫を表す
// 在庫の増減は予約・キャンセルのトランザクション内でのみ行われ、便そのものの作成・削除は行わない
type Flight struct {
	Code           string
	Name           string
	Source         string
	Destination    string
	SeatsAvailable int
	TotalSeats     int
	UpdatedAt      time.Time
}

// HasAvailableSeat は販売可能な座席が残っているかを返す
func (f *Flight) HasAvailableSeat() bool {
	return f.SeatsAvailable > 0
}

// SoldSeats は販売済みの座席数を返す
func (f *Flight) SoldSeats() int {
	return f.TotalSeats - f.SeatsAvailable
}

// Validate は在庫の不変条件 0 <= seats_available <= total_seats を検証する
func (f *Flight) Validate() error {
	if f.Code == "" {
		return ErrFlightCodeRequired
	}
	if f.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if f.SeatsAvailable < 0 {
		return ErrNoSeatsAvailable
	}
	if f.SeatsAvailable > f.TotalSeats {
		return ErrSeatCountOverflow
	}
	return nil
}

// InventoryAudit は在庫監査の1便分の結果
type InventoryAudit struct {
	FlightCode            string
	TotalSeats            int
	SeatsAvailable        int
	ConfirmedReservations int
}

// Drift は販売済み座席数と確定済み予約数の差を返す（0 なら整合している）
func (a *InventoryAudit) Drift() int {
	return a.TotalSeats - a.SeatsAvailable - a.ConfirmedReservations
}
