// Package portfolio computes aggregate risk analytics over a set of
// holdings, resolving each symbol through the market data layer.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tradewinds/pkg/models"
)

// ErrInvalidInput marks requests rejected before any upstream call.
var ErrInvalidInput = errors.New("portfolio: invalid input")

// Holding is one position in the portfolio.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

// Resolver turns a symbol into a market snapshot. Resolution is
// best-effort; missing data shows up as nil fields, not errors.
type Resolver interface {
	StockInfo(ctx context.Context, symbol string) models.StockInfo
}

// Thresholds are the risk tier cut points on monthly return volatility.
type Thresholds struct {
	Medium float64 // at or above: Medium instead of Low
	High   float64 // at or above: High instead of Medium
}

// DefaultThresholds returns the standard tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 0.05, High: 0.10}
}

// Engine computes portfolio analytics.
type Engine struct {
	resolver   Resolver
	thresholds Thresholds
}

// NewEngine creates an engine over the resolver.
func NewEngine(resolver Resolver, thresholds Thresholds) *Engine {
	if thresholds.Medium <= 0 {
		thresholds = DefaultThresholds()
	}
	return &Engine{resolver: resolver, thresholds: thresholds}
}

// Analyze resolves every holding concurrently and aggregates value,
// return, volatility, sharpe and drawdown. Holdings whose price or
// month-ago price is unavailable are excluded from every aggregate.
func (e *Engine) Analyze(ctx context.Context, holdings []Holding) (*models.PortfolioAnalytics, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: no holdings given", ErrInvalidInput)
	}
	for _, h := range holdings {
		if h.Symbol == "" {
			return nil, fmt.Errorf("%w: holding with empty symbol", ErrInvalidInput)
		}
		if h.Quantity < 0 {
			return nil, fmt.Errorf("%w: negative quantity for %s", ErrInvalidInput, h.Symbol)
		}
	}

	infos := make([]models.StockInfo, len(holdings))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, h := range holdings {
		g.Go(func() error {
			info := e.resolver.StockInfo(gctx, h.Symbol)
			mu.Lock()
			infos[i] = info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var (
		totalValue float64
		returns    []float64
		vols       []float64
	)
	for i, h := range holdings {
		info := infos[i]
		if info.Price == nil || info.PriceMonthAgo == nil || *info.PriceMonthAgo == 0 {
			continue
		}
		totalValue += *info.Price * h.Quantity
		returns = append(returns, (*info.Price-*info.PriceMonthAgo) / *info.PriceMonthAgo)
		if info.Volatility != nil {
			vols = append(vols, *info.Volatility)
		} else {
			vols = append(vols, 0)
		}
	}
	meanReturn := mean(returns)
	meanVol := mean(vols)

	sharpe := 0.0
	if meanVol != 0 {
		sharpe = meanReturn / meanVol
	}

	// When nothing resolves the aggregates are all zero. Per-symbol
	// unavailability is recoverable, never a request-level error.
	drawdown := 0.0
	if len(returns) > 0 {
		drawdown = minimum(returns)
	}

	return &models.PortfolioAnalytics{
		TotalValue: totalValue,
		Returns:    meanReturn,
		Volatility: meanVol,
		Sharpe:     sharpe,
		Drawdown:   drawdown,
		RiskLevel:  e.riskLevel(meanVol),
	}, nil
}

// riskLevel maps mean volatility to a tier.
func (e *Engine) riskLevel(vol float64) string {
	switch {
	case vol < e.thresholds.Medium:
		return "Low"
	case vol < e.thresholds.High:
		return "Medium"
	default:
		return "High"
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func minimum(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
