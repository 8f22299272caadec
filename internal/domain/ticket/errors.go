package ticket

import "errors"

// Ticket ドメインのエラー定義
var (
	ErrTicketNotFound        = errors.New("搭乗券が見つかりません")
	ErrPassengerNameRequired = errors.New("搭乗者名は必須です")
	ErrNationalIDRequired    = errors.New("身分証番号は必須です")
	ErrPassengerFieldTooLong = errors.New("搭乗者情報が長すぎます")
)
