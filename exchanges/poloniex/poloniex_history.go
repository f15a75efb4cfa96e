package poloniex

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/polosync/polosync/currency"
	"github.com/polosync/polosync/order"
)

// QueryBalances returns the account's non-zero holdings with the
// exchange-reported BTC valuation
func (p *Poloniex) QueryBalances(ctx context.Context) (map[currency.Code]Balance, error) {
	resp, err := p.GetCompleteBalances(ctx)
	if err != nil {
		return nil, err
	}

	balances := make(map[currency.Code]Balance)
	for cur, b := range resp {
		amount := b.Available.Add(b.OnOrders)
		if amount.IsZero() {
			continue
		}
		balances[currency.NewCode(cur)] = Balance{
			Amount:   amount,
			BTCValue: b.BTCValue,
		}
	}
	return balances, nil
}

// QueryTradeHistory materializes the account's trades over [start, end],
// serving from cache when a stored range already covers [start, endAtLeast].
// Trade history has a fixed row cap and no re-windowing strategy, so a
// response at the cap fails with ErrDataIntegrity rather than returning a
// silently truncated dataset.
func (p *Poloniex) QueryTradeHistory(ctx context.Context, start, end, endAtLeast time.Time) (map[string][]TradeHistory, error) {
	p.mtx.Lock()
	cached, ok := p.tradeCache.Check("all", start, endAtLeast)
	p.mtx.Unlock()
	if ok {
		return cached, nil
	}

	result, err := p.GetTradeHistory(ctx, "all", start, end, tradeHistoryLimit)
	if err != nil {
		return nil, err
	}

	var total int
	for _, rows := range result {
		total += len(rows)
	}
	log.WithField("results", total).Debug("poloniex trade history query")

	if total >= tradeHistoryLimit {
		return nil, fmt.Errorf("%w: trade history returned %d rows at the %d cap for %s to %s",
			ErrDataIntegrity, total, tradeHistoryLimit,
			start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	}

	p.mtx.Lock()
	err = p.tradeCache.Update("all", start, end, result)
	p.mtx.Unlock()
	if err != nil {
		log.WithError(err).Warn("persisting trade history cache entry failed")
	}
	return result, nil
}

// QueryTrades is QueryTradeHistory normalized into canonical trades
func (p *Poloniex) QueryTrades(ctx context.Context, start, end, endAtLeast time.Time) ([]order.Trade, error) {
	history, err := p.QueryTradeHistory(ctx, start, end, endAtLeast)
	if err != nil {
		return nil, err
	}

	var trades []order.Trade
	for pair, rows := range history {
		for i := range rows {
			trade, err := TradeFromRaw(rows[i], pair)
			if err != nil {
				return nil, err
			}
			trades = append(trades, trade)
		}
	}
	return trades, nil
}

// QueryLoanHistory materializes the account's closed loans over [start, end].
// The endpoint caps each response, so a full page is treated as presumptive
// truncation: the window is shifted to [start, min close timestamp] and
// re-queried until a short page arrives, with the seen-id set absorbing the
// rows that re-appear on window boundaries. With fromCSV set, a local
// lendingHistory.csv export is preferred and any file error falls back to the
// network path.
func (p *Poloniex) QueryLoanHistory(ctx context.Context, start, end, endAtLeast time.Time, fromCSV bool) ([]LendingHistory, error) {
	if fromCSV {
		data, err := p.LoadLendingHistoryCSV()
		if err == nil {
			return data, nil
		}
		log.WithError(err).Warn("reading lending history CSV failed, falling back to the network path")
	}

	p.mtx.Lock()
	cached, ok := p.loanCache.Check("", start, endAtLeast)
	p.mtx.Unlock()
	if ok {
		return cached, nil
	}

	batch, err := p.GetLendingHistory(ctx, start, end, lendingHistoryLimit)
	if err != nil {
		return nil, err
	}
	log.WithField("results", len(batch)).Debug("poloniex loan history query")

	data := batch
	// The remote service makes no ordering guarantee, so completeness rests
	// on the id set rather than on timestamp exclusivity: rows sharing the
	// boundary timestamp reappear in the next window and are dropped here.
	seen := make(map[int64]struct{})

	for len(batch) == lendingHistoryLimit {
		minTS := end
		for i := range batch {
			if closed := batch[i].Close.Time(); closed.Before(minTS) {
				minTS = closed
			}
			seen[batch[i].ID] = struct{}{}
		}

		batch, err = p.GetLendingHistory(ctx, start, minTS, lendingHistoryLimit)
		if err != nil {
			return nil, err
		}
		log.WithField("results", len(batch)).Debug("poloniex loan history query")

		data = append(data, dedupLoans(seen, batch)...)
	}

	p.mtx.Lock()
	err = p.loanCache.Update("", start, end, data)
	p.mtx.Unlock()
	if err != nil {
		log.WithError(err).Warn("persisting loan history cache entry failed")
	}
	return data, nil
}

// dedupLoans returns the rows of batch whose id is not in seen. Inserting the
// returned rows' ids into seen is the caller's responsibility.
func dedupLoans(seen map[int64]struct{}, batch []LendingHistory) []LendingHistory {
	var fresh []LendingHistory
	for i := range batch {
		if _, ok := seen[batch[i].ID]; ok {
			continue
		}
		fresh = append(fresh, batch[i])
	}
	return fresh
}

// QueryDepositsWithdrawals returns the account's asset movements over
// [start, end] as canonical records, serving the raw response from cache when
// a stored range covers [start, endAtLeast]
func (p *Poloniex) QueryDepositsWithdrawals(ctx context.Context, start, end, endAtLeast time.Time) ([]order.AssetMovement, error) {
	p.mtx.Lock()
	result, ok := p.movementCache.Check("", start, endAtLeast)
	p.mtx.Unlock()

	if !ok {
		var err error
		result, err = p.GetDepositsWithdrawals(ctx, start, end)
		if err != nil {
			return nil, err
		}

		p.mtx.Lock()
		err = p.movementCache.Update("", start, end, result)
		p.mtx.Unlock()
		if err != nil {
			log.WithError(err).Warn("persisting deposits/withdrawals cache entry failed")
		}
	}

	log.WithField("results", len(result.Deposits)+len(result.Withdrawals)).
		Debug("poloniex deposits/withdrawals query")

	return movementsFromResponse(result), nil
}
