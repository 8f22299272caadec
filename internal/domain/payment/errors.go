package payment

import (
	"errors"
	"fmt"
)

// Payment ドメインのエラー定義
var (
	ErrLocatorRequired = errors.New("予約番号は必須です")
	ErrInvalidAmount   = errors.New("支払い金額が不正です")
	ErrMethodTooLong   = errors.New("支払い方法が長すぎます")

	ErrAmountNotPositive = fmt.Errorf("%w: 0より大きい必要があります", ErrInvalidAmount)
	ErrAmountScale       = fmt.Errorf("%w: 小数点以下は2桁までです", ErrInvalidAmount)
	ErrAmountTooLarge    = fmt.Errorf("%w: 上限を超えています", ErrInvalidAmount)
)
