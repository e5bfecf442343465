package portfolio

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/seenimoa/tradewinds/pkg/models"
)

type fakeResolver struct {
	infos map[string]models.StockInfo
}

func (f *fakeResolver) StockInfo(ctx context.Context, symbol string) models.StockInfo {
	if info, ok := f.infos[symbol]; ok {
		return info
	}
	return models.StockInfo{Symbol: symbol}
}

func snapshot(price, monthAgo, vol float64) models.StockInfo {
	info := models.StockInfo{
		Price:         models.Float(price),
		PriceMonthAgo: models.Float(monthAgo),
	}
	info.Volatility = models.Float(vol)
	return info
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestAnalyzeAggregates(t *testing.T) {
	r := &fakeResolver{infos: map[string]models.StockInfo{
		"BTC-USD": snapshot(110, 100, 0.04), // return 0.10
		"^IXIC":   snapshot(95, 100, 0.02),  // return -0.05
	}}
	e := NewEngine(r, DefaultThresholds())

	got, err := e.Analyze(context.Background(), []Holding{
		{Symbol: "BTC-USD", Quantity: 2},
		{Symbol: "^IXIC", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	approx(t, "TotalValue", got.TotalValue, 2*110+95)
	approx(t, "Returns", got.Returns, (0.10-0.05)/2)
	approx(t, "Volatility", got.Volatility, 0.03)
	approx(t, "Sharpe", got.Sharpe, 0.025/0.03)
	approx(t, "Drawdown", got.Drawdown, -0.05)
	if got.RiskLevel != "Low" {
		t.Errorf("RiskLevel = %q, want Low", got.RiskLevel)
	}
}

func TestAnalyzeExcludesUnresolvableHolding(t *testing.T) {
	r := &fakeResolver{infos: map[string]models.StockInfo{
		"BTC-USD": snapshot(110, 100, 0.04),
		// GONE resolves to a bare symbol with no prices.
	}}
	e := NewEngine(r, DefaultThresholds())

	got, err := e.Analyze(context.Background(), []Holding{
		{Symbol: "BTC-USD", Quantity: 1},
		{Symbol: "GONE", Quantity: 100},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	approx(t, "TotalValue", got.TotalValue, 110)
	approx(t, "Returns", got.Returns, 0.10)
}

func TestAnalyzeMissingVolatilityCountsAsZero(t *testing.T) {
	noVol := models.StockInfo{
		Price:         models.Float(110),
		PriceMonthAgo: models.Float(100),
	}
	r := &fakeResolver{infos: map[string]models.StockInfo{
		"A": snapshot(110, 100, 0.08),
		"B": noVol,
	}}
	e := NewEngine(r, DefaultThresholds())

	got, err := e.Analyze(context.Background(), []Holding{
		{Symbol: "A", Quantity: 1},
		{Symbol: "B", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	approx(t, "Volatility", got.Volatility, 0.04)
}

func TestAnalyzeSharpeZeroWhenVolatilityZero(t *testing.T) {
	r := &fakeResolver{infos: map[string]models.StockInfo{
		"A": snapshot(110, 100, 0),
	}}
	e := NewEngine(r, DefaultThresholds())

	got, err := e.Analyze(context.Background(), []Holding{{Symbol: "A", Quantity: 1}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.Sharpe != 0 {
		t.Errorf("Sharpe = %v, want 0", got.Sharpe)
	}
}

func TestAnalyzeRiskTiers(t *testing.T) {
	cases := []struct {
		vol  float64
		want string
	}{
		{0.0, "Low"},
		{0.049, "Low"},
		{0.05, "Medium"},
		{0.099, "Medium"},
		{0.10, "High"},
		{0.30, "High"},
	}
	for _, tc := range cases {
		r := &fakeResolver{infos: map[string]models.StockInfo{
			"A": snapshot(110, 100, tc.vol),
		}}
		e := NewEngine(r, DefaultThresholds())
		got, err := e.Analyze(context.Background(), []Holding{{Symbol: "A", Quantity: 1}})
		if err != nil {
			t.Fatalf("Analyze(vol=%v): %v", tc.vol, err)
		}
		if got.RiskLevel != tc.want {
			t.Errorf("vol %v: RiskLevel = %q, want %q", tc.vol, got.RiskLevel, tc.want)
		}
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	e := NewEngine(&fakeResolver{}, DefaultThresholds())

	if _, err := e.Analyze(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty holdings: err = %v, want ErrInvalidInput", err)
	}
	if _, err := e.Analyze(context.Background(), []Holding{{Symbol: "A", Quantity: -1}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative quantity: err = %v, want ErrInvalidInput", err)
	}
	if _, err := e.Analyze(context.Background(), []Holding{{Quantity: 1}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty symbol: err = %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeAllUnresolvableYieldsZeroAnalytics(t *testing.T) {
	e := NewEngine(&fakeResolver{}, DefaultThresholds())

	got, err := e.Analyze(context.Background(), []Holding{{Symbol: "GONE", Quantity: 1}})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	approx(t, "TotalValue", got.TotalValue, 0)
	approx(t, "Returns", got.Returns, 0)
	approx(t, "Volatility", got.Volatility, 0)
	approx(t, "Sharpe", got.Sharpe, 0)
	approx(t, "Drawdown", got.Drawdown, 0)
	if got.RiskLevel != "Low" {
		t.Errorf("RiskLevel = %q, want Low", got.RiskLevel)
	}
}
