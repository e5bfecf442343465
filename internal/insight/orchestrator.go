// Package insight gathers market context concurrently and synthesizes
// it into narrative analysis through an LLM provider. Gathering is
// best-effort: a slow or failing branch degrades the prompt instead of
// failing the request.
package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tradewinds/internal/llm"
	"github.com/seenimoa/tradewinds/pkg/models"
)

// ErrInvalidInput marks requests rejected before any upstream call.
var ErrInvalidInput = errors.New("insight: invalid input")

// Defaults applied when a request omits the field.
const (
	DefaultQuery    = "Analyze my watchlist and provide actionable insights."
	DefaultStrategy = "Backtest a simple moving average crossover on BTC-USD for the last 2 years."
)

// DefaultTickers is the watchlist used when none is given.
var DefaultTickers = []string{"BTC-USD", "^IXIC"}

// MarketResolver provides per-symbol snapshots.
type MarketResolver interface {
	StockInfo(ctx context.Context, symbol string) models.StockInfo
}

// NewsCollector provides best-effort headlines.
type NewsCollector interface {
	Collect(ctx context.Context, topic string, limit int) []models.NewsItem
}

// Config holds orchestration tunables.
type Config struct {
	// MarketTimeout bounds each per-symbol gather branch.
	MarketTimeout time.Duration

	// NewsTimeout bounds the news branch.
	NewsTimeout time.Duration

	// SynthesisTimeout bounds one LLM call, retry included.
	SynthesisTimeout time.Duration

	// NewsLimit caps collected headlines.
	NewsLimit int

	// RetryDelay is the pause before the single retry of a transient
	// synthesis failure.
	RetryDelay time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MarketTimeout:    15 * time.Second,
		NewsTimeout:      15 * time.Second,
		SynthesisTimeout: 60 * time.Second,
		NewsLimit:        5,
		RetryDelay:       500 * time.Millisecond,
	}
}

// Orchestrator fans out to market data, news and the calendar, then
// runs one synthesis call over whatever arrived.
type Orchestrator struct {
	market   MarketResolver
	news     NewsCollector
	calendar CalendarSource
	provider llm.Provider
	cfg      Config
}

// NewOrchestrator wires the orchestrator.
func NewOrchestrator(market MarketResolver, news NewsCollector, calendar CalendarSource, provider llm.Provider, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.MarketTimeout <= 0 {
		cfg.MarketTimeout = def.MarketTimeout
	}
	if cfg.NewsTimeout <= 0 {
		cfg.NewsTimeout = def.NewsTimeout
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = def.SynthesisTimeout
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = def.NewsLimit
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	return &Orchestrator{
		market:   market,
		news:     news,
		calendar: calendar,
		provider: provider,
		cfg:      cfg,
	}
}

// Insights gathers context for the tickers and synthesizes a narrative.
// When synthesis fails, the returned result still carries the gathered
// stats alongside the error so callers can serve a degraded response.
func (o *Orchestrator) Insights(ctx context.Context, query string, tickers []string) (*models.InsightResult, error) {
	if query == "" {
		query = DefaultQuery
	}
	// A nil slice means the field was omitted and gets the default
	// watchlist; an explicitly empty list is rejected.
	if tickers == nil {
		tickers = DefaultTickers
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: empty ticker list", ErrInvalidInput)
	}
	for _, t := range tickers {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("%w: blank ticker", ErrInvalidInput)
		}
	}

	ic := o.gather(ctx, query, tickers)

	result, err := o.narrate(ctx, insightSystemPrompt, buildInsightPrompt(ic))
	if err != nil {
		return &models.InsightResult{Stats: ic.Stats}, err
	}
	return &models.InsightResult{Result: result, Stats: ic.Stats}, nil
}

// gather runs every context branch concurrently. Each branch writes a
// disjoint slot; none can fail the group.
func (o *Orchestrator) gather(ctx context.Context, query string, tickers []string) *models.InsightContext {
	ic := &models.InsightContext{
		Query:   query,
		Tickers: tickers,
		Stats:   make(map[string]models.StockInfo, len(tickers)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	for _, symbol := range tickers {
		g.Go(func() error {
			branchCtx, cancel := context.WithTimeout(gctx, o.cfg.MarketTimeout)
			defer cancel()
			info := o.market.StockInfo(branchCtx, symbol)
			mu.Lock()
			ic.Stats[symbol] = info
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		branchCtx, cancel := context.WithTimeout(gctx, o.cfg.NewsTimeout)
		defer cancel()
		items := o.news.Collect(branchCtx, strings.Join(tickers, " "), o.cfg.NewsLimit)
		mu.Lock()
		ic.News = items
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		events := o.calendar.Upcoming(time.Now())
		mu.Lock()
		ic.Calendar = events
		mu.Unlock()
		return nil
	})

	_ = g.Wait()
	return ic
}

// BacktestNarrative summarizes a strategy description.
func (o *Orchestrator) BacktestNarrative(ctx context.Context, strategy string) (string, error) {
	if strings.TrimSpace(strategy) == "" {
		strategy = DefaultStrategy
	}
	return o.narrate(ctx, backtestSystemPrompt, strategy)
}

// CompareStrategies contrasts the given strategy descriptions.
func (o *Orchestrator) CompareStrategies(ctx context.Context, strategies []string) (string, error) {
	if len(strategies) == 0 {
		return "", fmt.Errorf("%w: no strategies given", ErrInvalidInput)
	}
	return o.narrate(ctx, compareSystemPrompt, strings.Join(strategies, "\n\n"))
}

// BacktestVsLive contrasts backtest output with live results.
func (o *Orchestrator) BacktestVsLive(ctx context.Context, backtestData, liveData string) (*models.BacktestComparison, error) {
	if strings.TrimSpace(backtestData) == "" || strings.TrimSpace(liveData) == "" {
		return nil, fmt.Errorf("%w: both backtest and live data are required", ErrInvalidInput)
	}
	user := fmt.Sprintf("Backtest: %s\nLive: %s", backtestData, liveData)
	discrepancies, err := o.narrate(ctx, backtestVsLiveSystemPrompt, user)
	if err != nil {
		return nil, err
	}
	return &models.BacktestComparison{
		BacktestSummary: backtestData,
		LiveSummary:     liveData,
		Discrepancies:   discrepancies,
	}, nil
}

// narrate makes one synthesis call, retrying exactly once when the
// failure class is transient.
func (o *Orchestrator) narrate(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.SynthesisTimeout)
	defer cancel()

	result, err := o.provider.Complete(ctx, system, user)
	if err == nil {
		return result, nil
	}
	if !llm.Retryable(err) {
		return "", err
	}

	select {
	case <-time.After(o.cfg.RetryDelay):
	case <-ctx.Done():
		return "", err
	}
	return o.provider.Complete(ctx, system, user)
}
