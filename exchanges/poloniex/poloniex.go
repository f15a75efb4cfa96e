// Package poloniex implements a client for the exchange's legacy public and
// private REST API, including windowed retrieval of account history under the
// remote row caps and a time-range cache over the results.
package poloniex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/polosync/polosync/common/crypto"
	"github.com/polosync/polosync/exchanges/nonce"
	"github.com/polosync/polosync/exchanges/request"
	"github.com/polosync/polosync/exchanges/timecache"
)

// Venue is the exchange identifier attached to normalized records
const Venue = "poloniex"

const (
	poloniexAPIURL             = "https://poloniex.com"
	poloniexAPITradingEndpoint = "tradingApi"

	poloniexTicker              = "returnTicker"
	poloniexFeeInfo             = "returnFeeInfo"
	poloniexCompleteBalances    = "returnCompleteBalances"
	poloniexTradeHistory        = "returnTradeHistory"
	poloniexLendingHistory      = "returnLendingHistory"
	poloniexDepositsWithdrawals = "returnDepositsWithdrawals"

	// tradeHistoryLimit is the fixed row cap of returnTradeHistory. There is
	// no re-windowing strategy for trades, so hitting it is fatal to the
	// query.
	tradeHistoryLimit = 10000
	// lendingHistoryLimit is what we request per lending history page. The
	// remote hard ceiling was observed near 12660; staying below it means a
	// full page reliably signals truncation.
	lendingHistoryLimit = 12000

	// poloniexRequestRate is the public per-second request allowance
	poloniexRequestRate = 6

	tradeHistoryKind        = "trade_history"
	loanHistoryKind         = "loan_history"
	depositsWithdrawalsKind = "deposits_withdrawals"
)

var (
	// ErrDataIntegrity is returned when a response was presumptively
	// truncated on an endpoint with no re-windowing strategy. The query
	// fails loudly instead of returning a silently incomplete dataset.
	ErrDataIntegrity = errors.New("response hit the row cap with no re-windowing strategy")

	// ErrCredentialsUnset is returned when an authenticated endpoint is
	// called without API credentials configured.
	ErrCredentialsUnset = errors.New("API key and secret not set")
)

// ExchangeError is a structured error payload returned by the remote
// service. It is never retried.
type ExchangeError struct {
	Command string
	Message string
}

// Error implements the error interface
func (e *ExchangeError) Error() string {
	return fmt.Sprintf("poloniex query %q returned error: %s", e.Command, e.Message)
}

// Settings configures a client instance
type Settings struct {
	APIKey    string
	APISecret string
	// DataDir is where local exchange export files are looked up
	DataDir     string
	Verbose     bool
	HTTPTimeout time.Duration
	// CacheBackend optionally persists history-cache entries across
	// processes. May be nil.
	CacheBackend timecache.Backend
}

// Poloniex is the exchange client. A single instance may be used from
// multiple goroutines; nonce generation, signed dispatch and all cache access
// are serialized behind mtx.
type Poloniex struct {
	Name      string
	APIUrl    string
	APIKey    string
	APISecret string
	DataDir   string
	Verbose   bool
	Requester *request.Requester

	mtx   sync.Mutex
	nonce nonce.Nonce

	tradeCache    *timecache.Store[map[string][]TradeHistory]
	loanCache     *timecache.Store[[]LendingHistory]
	movementCache *timecache.Store[DepositsWithdrawals]
}

// New returns a configured client
func New(s Settings) *Poloniex {
	timeout := s.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []request.Option{
		request.WithLimiter(request.NewRateLimit(time.Second, poloniexRequestRate)),
	}
	if s.Verbose {
		opts = append(opts, request.WithVerbose())
	}

	return &Poloniex{
		Name:          "Poloniex",
		APIUrl:        poloniexAPIURL,
		APIKey:        s.APIKey,
		APISecret:     s.APISecret,
		DataDir:       s.DataDir,
		Verbose:       s.Verbose,
		Requester:     request.New("Poloniex", &http.Client{Timeout: timeout}, opts...),
		tradeCache:    timecache.New[map[string][]TradeHistory](tradeHistoryKind, s.CacheBackend),
		loanCache:     timecache.New[[]LendingHistory](loanHistoryKind, s.CacheBackend),
		movementCache: timecache.New[DepositsWithdrawals](depositsWithdrawalsKind, s.CacheBackend),
	}
}

// GetTicker returns the public ticker snapshot for all pairs
func (p *Poloniex) GetTicker(ctx context.Context) (map[string]Ticker, error) {
	result := make(map[string]Ticker)
	return result, p.SendHTTPRequest(ctx, poloniexTicker, nil, &result)
}

// GetFeeInfo returns the account's maker/taker fee tier
func (p *Poloniex) GetFeeInfo(ctx context.Context) (FeeInfo, error) {
	result := FeeInfo{}
	return result, p.SendAuthenticatedHTTPRequest(ctx, poloniexFeeInfo, nil, &result)
}

// GetCompleteBalances returns per-currency balances across all accounts
func (p *Poloniex) GetCompleteBalances(ctx context.Context) (map[string]CompleteBalance, error) {
	values := url.Values{}
	values.Set("account", "all")

	result := make(map[string]CompleteBalance)
	return result, p.SendAuthenticatedHTTPRequest(ctx, poloniexCompleteBalances, values, &result)
}

// GetTradeHistory returns the account's trades. With currencyPair "all" the
// response maps each pair to its trades; for a specific pair the remote
// service returns a flat list, which is wrapped under its pair key so callers
// always see the same shape.
func (p *Poloniex) GetTradeHistory(ctx context.Context, currencyPair string, start, end time.Time, limit int) (map[string][]TradeHistory, error) {
	values := url.Values{}
	values.Set("currencyPair", currencyPair)
	values.Set("start", strconv.FormatInt(start.Unix(), 10))
	values.Set("end", strconv.FormatInt(end.Unix(), 10))
	values.Set("limit", strconv.Itoa(limit))

	if currencyPair != "all" {
		var list []TradeHistory
		if err := p.SendAuthenticatedHTTPRequest(ctx, poloniexTradeHistory, values, &list); err != nil {
			return nil, err
		}
		return map[string][]TradeHistory{currencyPair: list}, nil
	}

	result := make(map[string][]TradeHistory)
	return result, p.SendAuthenticatedHTTPRequest(ctx, poloniexTradeHistory, values, &result)
}

// GetLendingHistory returns closed loans within the window. The remote
// default limit is low (around 500), so callers wanting a complete dataset
// must pass a high limit and treat a full page as presumptive truncation.
func (p *Poloniex) GetLendingHistory(ctx context.Context, start, end time.Time, limit int) ([]LendingHistory, error) {
	values := url.Values{}
	values.Set("start", strconv.FormatInt(start.Unix(), 10))
	values.Set("end", strconv.FormatInt(end.Unix(), 10))
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	var result []LendingHistory
	return result, p.SendAuthenticatedHTTPRequest(ctx, poloniexLendingHistory, values, &result)
}

// GetDepositsWithdrawals returns the raw movement history for the window
func (p *Poloniex) GetDepositsWithdrawals(ctx context.Context, start, end time.Time) (DepositsWithdrawals, error) {
	values := url.Values{}
	values.Set("start", strconv.FormatInt(start.Unix(), 10))
	values.Set("end", strconv.FormatInt(end.Unix(), 10))

	result := DepositsWithdrawals{}
	return result, p.SendAuthenticatedHTTPRequest(ctx, poloniexDepositsWithdrawals, values, &result)
}

// ValidateAPICredentials probes an authenticated endpoint and reports whether
// the configured key/secret pair is accepted. A reason is returned alongside
// a false result; errors unrelated to credential validity propagate as-is.
func (p *Poloniex) ValidateAPICredentials(ctx context.Context) (bool, string, error) {
	_, err := p.GetFeeInfo(ctx)
	if err == nil {
		return true, "", nil
	}

	var exchErr *ExchangeError
	if errors.As(err, &exchErr) && strings.Contains(exchErr.Message, "Invalid API key/secret pair") {
		return false, "provided API key or secret is invalid", nil
	}
	return false, "", err
}

// SendHTTPRequest issues an unsigned public command
func (p *Poloniex) SendHTTPRequest(ctx context.Context, command string, values url.Values, result any) error {
	path := fmt.Sprintf("%s/public?command=%s", p.APIUrl, command)
	if len(values) > 0 {
		path += "&" + values.Encode()
	}

	var raw json.RawMessage
	err := p.Requester.SendPayload(ctx, func() (*request.Item, error) {
		return &request.Item{
			Method: http.MethodGet,
			Path:   path,
			Result: &raw,
		}, nil
	})
	if err != nil {
		return err
	}

	if err := errorEnvelope(command, raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

// SendAuthenticatedHTTPRequest signs and issues a private command. The
// client lock is held for the whole dispatch, retries included: the remote
// service rejects non-increasing nonces, so nonce generation and the send
// must be atomic relative to other signed calls from this client.
func (p *Poloniex) SendAuthenticatedHTTPRequest(ctx context.Context, command string, values url.Values, result any) error {
	if p.APIKey == "" || p.APISecret == "" {
		return ErrCredentialsUnset
	}
	if values == nil {
		values = url.Values{}
	}
	values.Set("command", command)

	var raw json.RawMessage
	err := func() error {
		p.mtx.Lock()
		defer p.mtx.Unlock()

		return p.Requester.SendPayload(ctx, func() (*request.Item, error) {
			values.Set("nonce", p.nonce.Next(time.Now().UnixMilli()).String())
			payload := values.Encode()

			mac := crypto.GetHMAC(crypto.HashSHA512, []byte(payload), []byte(p.APISecret))
			return &request.Item{
				Method: http.MethodPost,
				Path:   fmt.Sprintf("%s/%s", p.APIUrl, poloniexAPITradingEndpoint),
				Headers: map[string]string{
					"Content-Type": "application/x-www-form-urlencoded",
					"Key":          p.APIKey,
					"Sign":         crypto.HexEncodeToString(mac),
				},
				Body:   []byte(payload),
				Result: &raw,
			}, nil
		})
	}()
	if err != nil {
		return err
	}

	if err := errorEnvelope(command, raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}

// errorEnvelope surfaces the remote service's request-level failure signal:
// a JSON object carrying an "error" string. Such failures are terminal for
// the request and bypass the retry path entirely.
func errorEnvelope(command string, raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Shapes with a non-string "error" member do not occur; anything
		// undecodable here is left to the typed unmarshal to report.
		return nil
	}
	if envelope.Error != "" {
		return &ExchangeError{Command: command, Message: envelope.Error}
	}
	return nil
}
