package poloniex

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const datetimeFormat = "2006-01-02 15:04:05"

// Time parses the exchange's human readable datetime strings at the
// transport boundary so downstream code can always rely on a timestamp being
// present.
type Time time.Time

// UnmarshalJSON implements json.Unmarshaler
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseInLocation(datetimeFormat, s, time.UTC)
	if err != nil {
		return fmt.Errorf("parsing exchange datetime %q: %w", s, err)
	}
	*t = Time(parsed)
	return nil
}

// MarshalJSON implements json.Marshaler, round-tripping the exchange format
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(datetimeFormat))
}

// Time returns the parsed timestamp
func (t Time) Time() time.Time {
	return time.Time(t)
}

// Ticker is a single pair's entry in the public ticker snapshot
type Ticker struct {
	ID            int64           `json:"id"`
	Last          decimal.Decimal `json:"last"`
	LowestAsk     decimal.Decimal `json:"lowestAsk"`
	HighestBid    decimal.Decimal `json:"highestBid"`
	PercentChange decimal.Decimal `json:"percentChange"`
	BaseVolume    decimal.Decimal `json:"baseVolume"`
	QuoteVolume   decimal.Decimal `json:"quoteVolume"`
	High24Hr      decimal.Decimal `json:"high24hr"`
	Low24Hr       decimal.Decimal `json:"low24hr"`
}

// FeeInfo holds the account's current maker/taker fee tier
type FeeInfo struct {
	MakerFee        decimal.Decimal `json:"makerFee"`
	TakerFee        decimal.Decimal `json:"takerFee"`
	ThirtyDayVolume decimal.Decimal `json:"thirtyDayVolume"`
	NextTier        decimal.Decimal `json:"nextTier"`
}

// CompleteBalance is one currency's row from returnCompleteBalances
type CompleteBalance struct {
	Available decimal.Decimal `json:"available"`
	OnOrders  decimal.Decimal `json:"onOrders"`
	BTCValue  decimal.Decimal `json:"btcValue"`
}

// Balance is the upward-facing balance entry: total holdings plus the
// exchange-reported BTC valuation
type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	BTCValue decimal.Decimal `json:"btcValue"`
}

// TradeHistory is a raw authenticated trade-history row. Trade rows carry no
// stable unique id usable for cross-window dedup; identity is the whole
// record.
type TradeHistory struct {
	GlobalTradeID int64           `json:"globalTradeID"`
	TradeID       string          `json:"tradeID"`
	Date          Time            `json:"date"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	Total         decimal.Decimal `json:"total"`
	Fee           decimal.Decimal `json:"fee"`
	OrderNumber   string          `json:"orderNumber"`
	Type          string          `json:"type"`
	Category      string          `json:"category"`
}

// LendingHistory is a raw loan row. ID is the dedup key across re-queried
// windows.
type LendingHistory struct {
	ID       int64           `json:"id"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	Duration decimal.Decimal `json:"duration"`
	Interest decimal.Decimal `json:"interest"`
	Fee      decimal.Decimal `json:"fee"`
	Earned   decimal.Decimal `json:"earned"`
	Open     Time            `json:"open"`
	Close    Time            `json:"close"`
}

// Deposit is a raw deposit row
type Deposit struct {
	Currency      string          `json:"currency"`
	Address       string          `json:"address"`
	Amount        decimal.Decimal `json:"amount"`
	Confirmations int64           `json:"confirmations"`
	TxID          string          `json:"txid"`
	Timestamp     int64           `json:"timestamp"`
	Status        string          `json:"status"`
}

// Withdrawal is a raw withdrawal row
type Withdrawal struct {
	WithdrawalNumber int64           `json:"withdrawalNumber"`
	Currency         string          `json:"currency"`
	Address          string          `json:"address"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	Timestamp        int64           `json:"timestamp"`
	Status           string          `json:"status"`
	IPAddress        string          `json:"ipAddress"`
}

// DepositsWithdrawals is the combined movement history response
type DepositsWithdrawals struct {
	Deposits    []Deposit    `json:"deposits"`
	Withdrawals []Withdrawal `json:"withdrawals"`
}
