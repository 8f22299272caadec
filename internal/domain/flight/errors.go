package flight

import "errors"

// Flight ドメインのエラー定義
var (
	ErrFlightNotFound     = errors.New("便が見つかりません")
	ErrNoSeatsAvailable   = errors.New("空席がありません")
	ErrSeatCountOverflow  = errors.New("空席数が総座席数を超えます")
	ErrFlightCodeRequired = errors.New("便コードは必須です")
	ErrInvalidTotalSeats  = errors.New("総座席数は1以上である必要があります")
)
