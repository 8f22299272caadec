package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	// 他人の予約も存在しない予約と同じエラーで返す
	ErrReservationNotFound         = errors.New("予約が見つかりません")
	ErrReservationAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrLocatorCollision            = errors.New("予約番号が重複しました")
	ErrLocatorRequired             = errors.New("予約番号は必須です")
	ErrInvalidLocator              = errors.New("予約番号の形式が不正です")
	ErrOwnerRequired               = errors.New("利用者IDは必須です")
	ErrOwnerIDTooLong              = errors.New("利用者IDが長すぎます")
	ErrFlightCodeRequired          = errors.New("便コードは必須です")
	ErrTravelDateRequired          = errors.New("搭乗日は必須です")
	ErrInvalidFareClass            = errors.New("運賃クラスが不正です")
)
