// Package fetch issues rate-limited GET requests with retry and exponential backoff.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"earthistory/internal/logger"
	"earthistory/internal/metrics"
	"earthistory/internal/ratelimit"
)

// Kind classifies the outcome of a fetch
type Kind int

const (
	// Success means a 2xx response with its body read
	Success Kind = iota
	// RetryableFailure means every attempt hit a transient error (429, 5xx, transport)
	RetryableFailure
	// FatalFailure means a non-retryable status or a cancelled context; retrying will not help
	FatalFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case RetryableFailure:
		return "retryable_failure"
	case FatalFailure:
		return "fatal_failure"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Fetcher.Get
type Result struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Attempts   int
	Err        error
}

// OK reports whether the fetch succeeded
func (r Result) OK() bool {
	return r.Kind == Success
}

// Failure returns an error describing a failed result, nil on success
func (r Result) Failure() error {
	if r.Kind == Success {
		return nil
	}
	if r.Err != nil {
		return fmt.Errorf("%s after %d attempt(s): %w", r.Kind, r.Attempts, r.Err)
	}
	return fmt.Errorf("%s after %d attempt(s): HTTP %d", r.Kind, r.Attempts, r.StatusCode)
}

// Doer is the part of *http.Client the fetcher needs
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config controls retry behaviour and request headers
type Config struct {
	UserAgent   string
	MaxAttempts int           // total attempts per request (default 3)
	BaseBackoff time.Duration // delay before retry n is BaseBackoff * 2^n
	Timeout     time.Duration // http client timeout when no Doer is supplied
}

// Fetcher performs GET requests through a shared limiter
type Fetcher struct {
	client  Doer
	limiter *ratelimit.Limiter
	config  Config
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher. A nil client gets an http.Client with config.Timeout.
func NewFetcher(client Doer, limiter *ratelimit.Limiter, config Config, log *logger.Logger) *Fetcher {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 3
	}
	if config.BaseBackoff <= 0 {
		config.BaseBackoff = time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{
		client:  client,
		limiter: limiter,
		config:  config,
		log:     log.With("component", "fetcher"),
		sleep:   ratelimit.Sleep,
	}
}

// SetSleep replaces the backoff sleep, used by tests to avoid real delays
func (f *Fetcher) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	f.sleep = sleep
}

// Get fetches url, waiting on the limiter before every attempt
func (f *Fetcher) Get(ctx context.Context, url string) Result {
	var last Result
	for attempt := 0; attempt < f.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			wait := f.config.BaseBackoff * time.Duration(1<<uint(attempt-1))
			f.log.Warn("⏳ retrying request", "attempt", attempt+1, "wait", wait, "status", last.StatusCode, "error", last.Err)
			metrics.FetchRetries.Inc()
			if err := f.sleep(ctx, wait); err != nil {
				return f.finish(Result{Kind: FatalFailure, Attempts: attempt, Err: err})
			}
		}

		if err := ctx.Err(); err != nil {
			return f.finish(Result{Kind: FatalFailure, Attempts: attempt, Err: err})
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return f.finish(Result{Kind: FatalFailure, Attempts: attempt, Err: err})
			}
		}

		res := f.do(ctx, url)
		res.Attempts = attempt + 1
		if res.Kind != RetryableFailure {
			return f.finish(res)
		}
		last = res
	}

	last.Kind = RetryableFailure
	return f.finish(last)
}

// do performs one attempt and classifies it
func (f *Fetcher) do(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Kind: FatalFailure, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return Result{Kind: FatalFailure, Err: err}
		}
		return Result{Kind: RetryableFailure, Err: fmt.Errorf("failed to fetch URL: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{Kind: RetryableFailure, StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return Result{
			Kind:       FatalFailure,
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Kind: RetryableFailure, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return Result{Kind: Success, StatusCode: resp.StatusCode, Body: body}
}

func (f *Fetcher) finish(res Result) Result {
	metrics.FetchRequests.WithLabelValues(res.Kind.String()).Inc()
	return res
}
