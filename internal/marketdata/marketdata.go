// Package marketdata fetches per-symbol quotes and price history from an
// external market data provider and assembles StockInfo snapshots.
// Failures are contained per symbol and per field: a symbol whose
// upstream data is unavailable yields a StockInfo with only the symbol
// set, never a pipeline error.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/seenimoa/tradewinds/pkg/models"
)

// Provider is the market data collaborator: one reference quote and one
// price history per symbol.
type Provider interface {
	// Name returns the human-readable provider name.
	Name() string

	// GetQuote returns the latest reference quote for the symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetHistory returns daily bars covering the lookback window,
	// chronologically ascending.
	GetHistory(ctx context.Context, symbol string, lookback time.Duration) (models.PriceSeries, error)
}

// ErrSymbolNotFound is returned when a symbol cannot be resolved upstream.
var ErrSymbolNotFound = fmt.Errorf("symbol not found")

// ErrHTTP wraps an upstream HTTP error with its status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// defaultUserAgent is sent on upstream requests; some quote endpoints
// reject requests without a browser user agent.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// httpClient is the shared client for provider requests. Per-request
// deadlines come from the caller's context.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request, returning the response body. The caller
// closes the returned ReadCloser.
func doGet(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, nil
}

// --- In-memory cache ---

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with a default TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a cache with the given default TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a value. Returns nil, false when missing or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// --- Rate limiter ---

// RateLimiter is a token bucket: maxTokens requests per refill interval.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
}

// NewRateLimiter creates a limiter allowing maxTokens requests per
// refillRate duration.
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()
		if rl.tokens > 0 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// refill adds tokens for elapsed periods. Must hold mu.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill)
	if elapsed >= rl.refillRate {
		periods := int(elapsed / rl.refillRate)
		rl.tokens += periods
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(periods) * rl.refillRate)
	}
}
