// Package order holds the canonical account-history record types produced by
// exchange clients.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polosync/polosync/currency"
)

// ErrUnknownSide is returned when an exchange reports a trade side this
// system does not model.
var ErrUnknownSide = errors.New("unknown trade side")

// Side is the direction of a trade
type Side string

// Trade sides. Settlement variants mark forced trades that settled a margin
// position rather than ordinary exchange trades.
const (
	Buy            Side = "buy"
	Sell           Side = "sell"
	SettlementBuy  Side = "settlement_buy"
	SettlementSell Side = "settlement_sell"
)

// ParseSide validates a raw exchange side string
func ParseSide(raw string) (Side, error) {
	switch Side(raw) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSide, raw)
	}
}

// Settlement returns the settlement-flavoured variant of a side
func (s Side) Settlement() Side {
	return Side("settlement_" + string(s))
}

// Trade is a single canonical trade
type Trade struct {
	Timestamp    time.Time       `json:"timestamp"`
	Pair         currency.Pair   `json:"pair"`
	Side         Side            `json:"side"`
	Rate         decimal.Decimal `json:"rate"`
	Cost         decimal.Decimal `json:"cost"`
	CostCurrency currency.Code   `json:"costCurrency"`
	Fee          decimal.Decimal `json:"fee"`
	FeeCurrency  currency.Code   `json:"feeCurrency"`
	Amount       decimal.Decimal `json:"amount"`
	Venue        string          `json:"venue"`
}

// MovementCategory distinguishes deposits from withdrawals
type MovementCategory string

// Asset movement categories
const (
	Deposit    MovementCategory = "deposit"
	Withdrawal MovementCategory = "withdrawal"
)

// AssetMovement is a canonical exchange deposit or withdrawal
type AssetMovement struct {
	Venue     string           `json:"venue"`
	Category  MovementCategory `json:"category"`
	Timestamp time.Time        `json:"timestamp"`
	Asset     currency.Code    `json:"asset"`
	Amount    decimal.Decimal  `json:"amount"`
	Fee       decimal.Decimal  `json:"fee"`
}
