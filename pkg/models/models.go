// Package models defines the core data structures shared across the
// tradewinds insight pipeline. Numeric fields that may be unavailable
// (missing quote, insufficient price history) are pointers: nil means
// "not known", never zero.
package models

import "time"

// Float returns a pointer to v. Convenience for building optional fields.
func Float(v float64) *float64 { return &v }

// Bar is a single daily OHLCV bar.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// PriceSeries is a chronologically ascending sequence of bars for one
// symbol. It is built once per request and never mutated afterwards;
// recomputation means re-fetch.
type PriceSeries []Bar

// Closes extracts the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Quote is a reference quote for one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
}

// IndicatorSet holds the technical indicators computed for one symbol.
// A nil field means the series did not have enough bars for that
// indicator's window.
type IndicatorSet struct {
	RSI14          *float64 `json:"rsi14,omitempty"`
	MACD           *float64 `json:"macd,omitempty"`
	BollingerUpper *float64 `json:"bollinger_upper,omitempty"`
	BollingerLower *float64 `json:"bollinger_lower,omitempty"`
	MFI14          *float64 `json:"money_flow_index14,omitempty"`
	OBV            *float64 `json:"on_balance_volume,omitempty"`
	ATR14          *float64 `json:"average_true_range14,omitempty"`
	Volatility     *float64 `json:"annualized_volatility,omitempty"`
	Alert          string   `json:"alert,omitempty"`
}

// StockInfo is the per-symbol snapshot assembled by the market data
// gateway: identity, latest quote, derived lookback prices, and the
// indicator set. Only Symbol is guaranteed to be set; everything else
// degrades independently when an upstream source fails.
type StockInfo struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	PreviousClose *float64 `json:"previous_close,omitempty"`
	PriceWeekAgo  *float64 `json:"price_week_ago,omitempty"`
	PriceMonthAgo *float64 `json:"price_month_ago,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	AvgVolume     *float64 `json:"avg_volume,omitempty"`

	IndicatorSet
}

// NewsItem is a single news result enriched with a sentiment label.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Snippet   string `json:"snippet"`
	Date      string `json:"date,omitempty"`      // YYYY-MM-DD
	Sentiment string `json:"sentiment,omitempty"` // positive | negative | neutral
}

// SentimentPoint is one entry in a sentiment history.
type SentimentPoint struct {
	Date      string `json:"date"`
	Sentiment string `json:"sentiment"`
}

// EconomicEvent is an upcoming calendar entry.
type EconomicEvent struct {
	Event  string `json:"event"`
	Date   string `json:"date"`
	Impact string `json:"impact"` // low | medium | high
}

// PortfolioAnalytics aggregates a holdings map into risk metrics.
type PortfolioAnalytics struct {
	TotalValue float64 `json:"total_value"`
	Returns    float64 `json:"returns"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe"`
	Drawdown   float64 `json:"drawdown"`
	RiskLevel  string  `json:"risk_level"` // Low | Medium | High
}

// InsightContext is the full context gathered for one insight request.
// It is what gets serialized into the synthesis prompt.
type InsightContext struct {
	Query    string               `json:"query"`
	Tickers  []string             `json:"tickers"`
	Stats    map[string]StockInfo `json:"stats"`
	News     []NewsItem           `json:"news"`
	Calendar []EconomicEvent      `json:"calendar"`
}

// InsightResult pairs the synthesized narrative with the raw per-symbol
// stats that produced it, so callers can audit the inputs even when the
// narrative is degraded or missing.
type InsightResult struct {
	Result string               `json:"result"`
	Stats  map[string]StockInfo `json:"stats"`
}

// BacktestComparison is the result of a backtest-vs-live discrepancy
// narrative.
type BacktestComparison struct {
	BacktestSummary string `json:"backtest_summary"`
	LiveSummary     string `json:"live_summary"`
	Discrepancies   string `json:"discrepancies"`
}
