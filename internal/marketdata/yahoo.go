package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/seenimoa/tradewinds/pkg/models"
)

// Yahoo implements Provider against the Yahoo Finance v7/v8 APIs.
type Yahoo struct {
	baseURL string
	cache   *Cache
	limiter *RateLimiter
}

// YahooOption configures the Yahoo provider.
type YahooOption func(*Yahoo)

// WithYahooBaseURL overrides the API base URL (used in tests).
func WithYahooBaseURL(url string) YahooOption {
	return func(y *Yahoo) { y.baseURL = strings.TrimRight(url, "/") }
}

// NewYahoo creates a Yahoo Finance provider.
func NewYahoo(opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		baseURL: "https://query1.finance.yahoo.com",
		cache:   NewCache(5 * time.Minute),
		limiter: NewRateLimiter(5, time.Second),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the provider name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yhQuoteResponse struct {
	QuoteResponse struct {
		Result []yhQuoteResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"quoteResponse"`
}

type yhQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	Currency                   string  `json:"currency"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
}

type yhChartResponse struct {
	Chart struct {
		Result []yhChartResult `json:"result"`
		Error  *yhError        `json:"error"`
	} `json:"chart"`
}

type yhChartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []yhOHLCV `json:"quote"`
	} `json:"indicators"`
}

type yhOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type yhError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// GetQuote returns the latest reference quote.
func (y *Yahoo) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	cacheKey := "quote:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(*models.Quote), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.baseURL, symbol)
	var resp yhQuoteResponse
	if err := y.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}

	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	r := resp.QuoteResponse.Result[0]
	quote := &models.Quote{
		Symbol:        r.Symbol,
		Name:          coalesce(r.ShortName, r.LongName),
		Currency:      r.Currency,
		Price:         r.RegularMarketPrice,
		PreviousClose: r.RegularMarketPreviousClose,
	}

	y.cache.Set(cacheKey, quote)
	return quote, nil
}

// GetHistory returns daily bars from the chart API covering the lookback
// window ending now.
func (y *Yahoo) GetHistory(ctx context.Context, symbol string, lookback time.Duration) (models.PriceSeries, error) {
	to := time.Now()
	from := to.Add(-lookback)

	cacheKey := fmt.Sprintf("hist:%s:%d", symbol, int(lookback.Hours()))
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(models.PriceSeries), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, symbol, from.Unix(), to.Unix())
	var resp yhChartResponse
	if err := y.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}

	series := parseChart(resp.Chart.Result[0])
	y.cache.SetWithTTL(cacheKey, series, 15*time.Minute)
	return series, nil
}

// --- helpers ---

func (y *Yahoo) getJSON(ctx context.Context, url string, out any) error {
	body, err := doGet(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func parseChart(result yhChartResult) models.PriceSeries {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	series := make(models.PriceSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		b := models.Bar{Timestamp: time.Unix(ts, 0)}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Close) && q.Close[i] != nil {
			b.Close = *q.Close[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		series = append(series, b)
	}
	return series
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
