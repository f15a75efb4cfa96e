package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// MaxRetryAttempts is the number of times a transiently failing request is
// issued before the failure is escalated to the caller.
const MaxRetryAttempts = 5

const drainBodyLimit = 1 << 20

var (
	errRequestSystemIsNil   = errors.New("request system is nil")
	errRequestFunctionIsNil = errors.New("request function is nil")
	errRequestItemNil       = errors.New("request item is nil")
	errInvalidPath          = errors.New("invalid path")

	// ErrRetryLimitExceeded is returned when a request kept failing
	// transiently until the attempt budget ran out. It wraps the last
	// observed failure.
	ErrRetryLimitExceeded = errors.New("request retry limit exceeded")
)

// Item is a single HTTP request to be issued by a Requester. Body is kept as
// a byte slice so the request can be rebuilt for every retry attempt.
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
	Result  any
}

// Generate produces a new request item. It is invoked once per attempt so
// payloads that must differ between attempts, nonces in particular, are
// regenerated on retry.
type Generate func() (*Item, error)

// Requester struct for the request client
type Requester struct {
	name       string
	client     *http.Client
	limiter    Limiter
	backoff    Backoff
	maxRetries int
	verbose    bool
}

// Option is a functional option for the requester
type Option func(*Requester)

// WithLimiter sets the rate limiter applied before every attempt
func WithLimiter(l Limiter) Option {
	return func(r *Requester) { r.limiter = l }
}

// WithBackoff sets the backoff strategy between retry attempts
func WithBackoff(b Backoff) Option {
	return func(r *Requester) { r.backoff = b }
}

// WithRetryAttempts overrides the default attempt budget
func WithRetryAttempts(n int) Option {
	return func(r *Requester) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithVerbose enables per-request debug logging
func WithVerbose() Option {
	return func(r *Requester) { r.verbose = true }
}

// New returns a new Requester
func New(name string, client *http.Client, opts ...Option) *Requester {
	r := &Requester{
		name:       name,
		client:     client,
		backoff:    DefaultBackoff(),
		maxRetries: MaxRetryAttempts,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SendPayload issues the generated request, retrying transient failures
// (connection errors, HTTP 5xx and 429) with backoff until the attempt
// budget is exhausted. On success the response body is unmarshalled into
// the item's Result when set.
func (r *Requester) SendPayload(ctx context.Context, newRequest Generate) error {
	if r == nil {
		return errRequestSystemIsNil
	}
	if newRequest == nil {
		return errRequestFunctionIsNil
	}

	for attempt := 1; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		item, err := newRequest()
		if err != nil {
			return err
		}
		if item == nil {
			return errRequestItemNil
		}
		if item.Path == "" {
			return errInvalidPath
		}

		req, err := item.newHTTPRequest(ctx)
		if err != nil {
			return err
		}

		if r.verbose {
			log.WithFields(log.Fields{
				"service": r.name,
				"attempt": attempt,
				"method":  item.Method,
			}).Debugf("request path: %s", item.Path)
		}

		resp, err := r.client.Do(req)
		if retryRequest(resp, err) {
			if err == nil {
				// The body must be drained or the connection cannot
				// be re-used.
				drainBody(resp.Body)
			}

			if attempt >= r.maxRetries {
				if err != nil {
					return fmt.Errorf("%w after %d attempts: %w", ErrRetryLimitExceeded, attempt, err)
				}
				return fmt.Errorf("%w after %d attempts, status: %s", ErrRetryLimitExceeded, attempt, resp.Status)
			}

			delay := r.backoff(attempt)
			if after := retryAfter(resp); after > delay {
				delay = after
			}

			if r.verbose {
				log.WithField("service", r.name).Debugf(
					"request failed, retrying in %s, attempt %d", delay, attempt)
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		contents, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode > http.StatusAccepted {
			return fmt.Errorf("%s unsuccessful HTTP status code: %d raw response: %s",
				r.name, resp.StatusCode, string(contents))
		}

		if r.verbose {
			log.WithField("service", r.name).Debugf("raw response: %s", string(contents))
		}

		if item.Result != nil {
			return json.Unmarshal(contents, item.Result)
		}
		return nil
	}
}

func (i *Item) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(i.Body) > 0 {
		body = bytes.NewReader(i.Body)
	}

	req, err := http.NewRequestWithContext(ctx, i.Method, i.Path, body)
	if err != nil {
		return nil, err
	}
	for k, v := range i.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// retryRequest reports whether a failed attempt is worth repeating. Transport
// level errors and remote service overload responses are transient; anything
// else is handed back to the caller as-is.
func retryRequest(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	return resp.StatusCode == http.StatusTooManyRequests ||
		resp.StatusCode >= http.StatusInternalServerError
}

// retryAfter returns the delay a Retry-After header requests, if present
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	if after := resp.Header.Get("Retry-After"); after != "" {
		if d, err := time.ParseDuration(after + "s"); err == nil {
			return d
		}
		if t, err := time.Parse(time.RFC1123, after); err == nil {
			return time.Until(t)
		}
	}
	return 0
}

func drainBody(body io.ReadCloser) {
	defer body.Close()
	if _, err := io.Copy(io.Discard, io.LimitReader(body, drainBodyLimit)); err != nil {
		log.Errorf("failed to drain request body: %v", err)
	}
}
