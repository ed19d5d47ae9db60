// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package fmcsa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/haulbase/internal/cache"
	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
)

var (
	// ErrCarrierNotFound is returned when QCMobile has no record for a DOT number.
	ErrCarrierNotFound = errors.New("carrier not found in FMCSA")
	// ErrDisabled is returned when the integration is switched off.
	ErrDisabled = errors.New("FMCSA integration is disabled")
	// ErrUnauthorized is returned when the web key is rejected.
	ErrUnauthorized = errors.New("FMCSA web key rejected")
	// ErrInvalidDOT is returned for a malformed DOT number.
	ErrInvalidDOT = errors.New("invalid DOT number")
	// ErrUnavailable wraps upstream and breaker failures.
	ErrUnavailable = errors.New("FMCSA service unavailable")
)

const (
	breakerName      = "fmcsa-qcmobile"
	maxErrorBodySize = 64 * 1024
	lookupCacheSize  = 5000
	// healthProbeDOT is looked up by HealthCheck; a 404 still proves the
	// API and web key work.
	healthProbeDOT = "1"
)

// Client talks to the FMCSA QCMobile API. Calls are paced by a token
// bucket, guarded by a circuit breaker and cached per DOT number.
type Client struct {
	baseURL string
	webKey  string
	enabled bool
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*CarrierRecord]
	cache   *cache.LRU[*CarrierRecord]
	now     func() time.Time
}

// NewClient builds a client from config. A nil httpClient uses one with the
// configured timeout.
func NewClient(cfg *config.FMCSAConfig, httpClient *http.Client) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		webKey:  cfg.WebKey,
		enabled: cfg.Enabled,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		cache:   cache.NewLRU[*CarrierRecord]("fmcsa", lookupCacheSize, cfg.CacheTTL),
		now:     time.Now,
	}
	c.breaker = newBreaker(breakerName)
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker[*CarrierRecord] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*CarrierRecord](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= 0.6 {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", ratio*100).Msg("FMCSA circuit opening")
				return true
			}
			return false
		},
		// Lookups of unknown carriers and bad input are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCarrierNotFound) || errors.Is(err, ErrInvalidDOT)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
}

// Enabled reports whether lookups are allowed.
func (c *Client) Enabled() bool {
	return c.enabled
}

// BreakerState returns the circuit breaker state for readiness checks.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// LookupCarrier returns the QCMobile record for a DOT number.
func (c *Client) LookupCarrier(ctx context.Context, dot string) (*CarrierRecord, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	dot = strings.TrimSpace(dot)
	if !validDOT(dot) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDOT, dot)
	}

	if rec, ok := c.cache.Get(dot); ok {
		metrics.FMCSALookups.WithLabelValues("cached").Inc()
		return rec, nil
	}

	rec, err := c.execute(ctx, dot)
	switch {
	case err == nil:
		metrics.FMCSALookups.WithLabelValues("found").Inc()
		c.cache.Add(dot, rec)
		return rec, nil
	case errors.Is(err, ErrCarrierNotFound):
		metrics.FMCSALookups.WithLabelValues("not_found").Inc()
	default:
		metrics.FMCSALookups.WithLabelValues("error").Inc()
	}
	return nil, err
}

// HealthCheck verifies the API is reachable and the web key is accepted.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.enabled {
		return ErrDisabled
	}
	_, err := c.execute(ctx, healthProbeDOT)
	if err == nil || errors.Is(err, ErrCarrierNotFound) {
		return nil
	}
	return err
}

func (c *Client) execute(ctx context.Context, dot string) (*CarrierRecord, error) {
	rec, err := c.breaker.Execute(func() (*CarrierRecord, error) {
		return c.fetch(ctx, dot)
	})
	if err == nil {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
		return rec, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
	return nil, err
}

func (c *Client) fetch(ctx context.Context, dot string) (*CarrierRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	defer func() { metrics.FMCSALookupDuration.Observe(time.Since(start).Seconds()) }()

	reqURL := fmt.Sprintf("%s/carriers/%s?%s", c.baseURL, url.PathEscape(dot), url.Values{"webKey": {c.webKey}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("DOT %s: %w", dot, ErrCarrierNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed qcCarrierResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode FMCSA response: %w", err)
	}
	// QCMobile answers 200 with a null carrier for unknown DOT numbers.
	if parsed.Content == nil || parsed.Content.Carrier == nil {
		return nil, fmt.Errorf("DOT %s: %w", dot, ErrCarrierNotFound)
	}
	return parsed.Content.Carrier.record(c.now()), nil
}
