package marketdata

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/tradewinds/internal/analysis/technical"
	"github.com/seenimoa/tradewinds/pkg/models"
)

// GatewayConfig holds tunables for StockInfo assembly.
type GatewayConfig struct {
	// Lookback is the history window fetched per symbol. At least one
	// month of daily bars is needed for the month-ago price.
	Lookback time.Duration

	// Timeout bounds each upstream fetch for one symbol.
	Timeout time.Duration

	// VolatilityAlert is the annualized volatility level above which the
	// alert flag is set.
	VolatilityAlert float64
}

// DefaultGatewayConfig returns production defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Lookback:        31 * 24 * time.Hour,
		Timeout:         15 * time.Second,
		VolatilityAlert: 0.05,
	}
}

// Gateway resolves symbols to StockInfo snapshots. Quote and history are
// fetched concurrently; either may fail without failing the other.
type Gateway struct {
	provider Provider
	cfg      GatewayConfig
}

// NewGateway creates a gateway over the given provider.
func NewGateway(provider Provider, cfg GatewayConfig) *Gateway {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultGatewayConfig().Lookback
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGatewayConfig().Timeout
	}
	return &Gateway{provider: provider, cfg: cfg}
}

// StockInfo assembles the snapshot for one symbol. It never returns an
// error: unavailable upstream data leaves the corresponding fields
// absent, and a fully unavailable symbol yields a StockInfo carrying
// only the symbol itself.
func (g *Gateway) StockInfo(ctx context.Context, symbol string) models.StockInfo {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	info := models.StockInfo{Symbol: symbol}

	var (
		quote  *models.Quote
		series models.PriceSeries
	)

	// Branch failures are contained: each goroutine returns nil so the
	// sibling fetch is never cancelled.
	g2, gctx := errgroup.WithContext(ctx)
	g2.Go(func() error {
		q, err := g.provider.GetQuote(gctx, symbol)
		if err == nil {
			quote = q
		}
		return nil
	})
	g2.Go(func() error {
		s, err := g.provider.GetHistory(gctx, symbol, g.cfg.Lookback)
		if err == nil {
			series = s
		}
		return nil
	})
	_ = g2.Wait()

	if quote != nil {
		info.Name = quote.Name
		info.Currency = quote.Currency
		info.Price = models.Float(quote.Price)
		info.PreviousClose = models.Float(quote.PreviousClose)
	}

	if len(series) > 0 {
		closes := series.Closes()
		info.PriceMonthAgo = models.Float(closes[0])
		if len(closes) > 5 {
			info.PriceWeekAgo = models.Float(closes[len(closes)-6])
		}
		info.Volume = models.Float(series[len(series)-1].Volume)
		info.AvgVolume = models.Float(avgVolume(series))
		info.IndicatorSet = technical.Compute(series, g.cfg.VolatilityAlert)
	}

	return info
}

func avgVolume(series models.PriceSeries) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range series {
		sum += b.Volume
	}
	return sum / float64(len(series))
}
