package poloniex

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polosync/polosync/currency"
	"github.com/polosync/polosync/order"
)

// TradeFromRaw turns a raw exchange trade row into the canonical trade
// representation. Cost and fee derivation depend on the trade side:
//
//	buy:  cost = rate * amount, fee = amount * feeRate paid in the quote asset
//	sell: cost = amount * rate, fee = cost * feeRate paid in the base asset
//
// Cost is always denominated in the base asset (the first element of the
// exchange pair string). Settlement trades keep the same arithmetic and mark
// the side.
func TradeFromRaw(raw TradeHistory, pairString string) (order.Trade, error) {
	pair, err := currency.NewPairFromString(pairString)
	if err != nil {
		return order.Trade{}, err
	}

	side, err := order.ParseSide(raw.Type)
	if err != nil {
		return order.Trade{}, err
	}

	var cost, fee decimal.Decimal
	var costCurrency, feeCurrency currency.Code
	switch side {
	case order.Buy:
		cost = raw.Rate.Mul(raw.Amount)
		costCurrency = pair.Base
		fee = raw.Amount.Mul(raw.Fee)
		feeCurrency = pair.Quote
	case order.Sell:
		cost = raw.Amount.Mul(raw.Rate)
		costCurrency = pair.Base
		fee = cost.Mul(raw.Fee)
		feeCurrency = pair.Base
	}

	if raw.Category == "settlement" {
		side = side.Settlement()
	}

	return order.Trade{
		Timestamp:    raw.Date.Time(),
		Pair:         pair,
		Side:         side,
		Rate:         raw.Rate,
		Cost:         cost,
		CostCurrency: costCurrency,
		Fee:          fee,
		FeeCurrency:  feeCurrency,
		Amount:       raw.Amount,
		Venue:        Venue,
	}, nil
}

// movementsFromResponse normalizes the raw movement history. Withdrawal fees
// pass through from the raw record; deposits are free on this exchange, so
// their fee is fixed at zero.
func movementsFromResponse(resp DepositsWithdrawals) []order.AssetMovement {
	movements := make([]order.AssetMovement, 0, len(resp.Withdrawals)+len(resp.Deposits))

	for i := range resp.Withdrawals {
		w := resp.Withdrawals[i]
		movements = append(movements, order.AssetMovement{
			Venue:     Venue,
			Category:  order.Withdrawal,
			Timestamp: time.Unix(w.Timestamp, 0).UTC(),
			Asset:     currency.NewCode(w.Currency),
			Amount:    w.Amount,
			Fee:       w.Fee,
		})
	}

	for i := range resp.Deposits {
		d := resp.Deposits[i]
		movements = append(movements, order.AssetMovement{
			Venue:     Venue,
			Category:  order.Deposit,
			Timestamp: time.Unix(d.Timestamp, 0).UTC(),
			Asset:     currency.NewCode(d.Currency),
			Amount:    d.Amount,
			Fee:       decimal.Zero,
		})
	}

	return movements
}
