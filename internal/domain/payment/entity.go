package payment

import (
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Status は支払いの状態を表す
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRefunded  Status = "refunded"
)

// DefaultMethod は支払い方法が指定されなかった場合の値
const DefaultMethod = "card"

// 金額は NUMERIC(12,2) に収まる範囲のみ受け付ける
const (
	AmountScale     = 2
	MaxMethodLength = 32
)

// MaxAmount は保存できる金額の上限
var MaxAmount = decimal.New(1, 10).Sub(decimal.New(1, -AmountScale))

// Payment は予約に紐づく支払い記録
// 1つのロケーターに複数の支払いが紐づくことがある
type Payment struct {
	ID           int64
	Locator      string
	Amount       decimal.Decimal
	Method       string
	Status       Status
	TransactedAt time.Time
	RefundedAt   *time.Time
}

// NewPayment は完了済みの支払いを作成する
func NewPayment(locator string, amount decimal.Decimal, method string) *Payment {
	if method == "" {
		method = DefaultMethod
	}
	return &Payment{
		Locator:      locator,
		Amount:       amount,
		Method:       method,
		Status:       StatusCompleted,
		TransactedAt: time.Now().UTC(),
	}
}

// Validate は支払いの検証を行う
func (p *Payment) Validate() error {
	if p.Locator == "" {
		return ErrLocatorRequired
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}
	return ValidateMethod(p.Method)
}

// ValidateAmount は金額が正で、小数点以下2桁以内かつ上限以下であることを検証する
// 丸めが必要な金額は受け付けない
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrAmountScale
	}
	if amount.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// ValidateMethod は支払い方法の長さを検証する（空は DefaultMethod 扱い）
func ValidateMethod(method string) error {
	if utf8.RuneCountInString(method) > MaxMethodLength {
		return ErrMethodTooLong
	}
	return nil
}

// TotalPaid は返金されていない支払いの合計額を返す
func TotalPaid(payments []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		if p.Status == StatusCompleted {
			total = total.Add(p.Amount)
		}
	}
	return total
}
