// Package technical computes the fixed indicator set for one symbol's
// price series. Every indicator has a minimum window; when the series is
// shorter the indicator is omitted (nil), which is a documented
// "insufficient history" state rather than an error. All computations
// are rolling-window with no look-ahead.
package technical

import (
	"math"

	"github.com/seenimoa/tradewinds/pkg/models"
)

// Minimum bar counts per indicator.
const (
	rsiPeriod       = 14
	mfiPeriod       = 14
	atrPeriod       = 14
	bollingerPeriod = 20
	macdFast        = 12
	macdSlow        = 26
)

// tradingDaysPerYear is the annualization factor for daily returns.
const tradingDaysPerYear = 252

// AlertMessage is attached to an IndicatorSet when annualized volatility
// exceeds the configured threshold.
const AlertMessage = "unusual volatility detected"

// Compute derives the full indicator set from a price series. A malformed
// or empty series yields a set with every field absent.
func Compute(series models.PriceSeries, alertThreshold float64) models.IndicatorSet {
	var set models.IndicatorSet
	if len(series) == 0 {
		return set
	}

	set.RSI14 = RSI(series, rsiPeriod)
	set.MACD = MACD(series, macdFast, macdSlow)
	set.BollingerUpper, set.BollingerLower = Bollinger(series, bollingerPeriod, 2)
	set.MFI14 = MFI(series, mfiPeriod)
	set.OBV = OBV(series)
	set.ATR14 = ATR(series, atrPeriod)
	set.Volatility = AnnualizedVolatility(series)

	if set.Volatility != nil && *set.Volatility > alertThreshold {
		set.Alert = AlertMessage
	}
	return set
}

// RSI returns the latest Wilder-smoothed Relative Strength Index, or nil
// when the series has fewer than period+1 bars (a 14-bar window needs 14
// close-to-close changes).
func RSI(series models.PriceSeries, period int) *float64 {
	n := len(series)
	if period <= 0 || n < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := series[i].Close - series[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < n; i++ {
		change := series[i].Close - series[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return models.Float(100)
	}
	rs := avgGain / avgLoss
	return models.Float(100 - 100/(1+rs))
}

// MACD returns the latest difference of the fast and slow EMAs of close,
// or nil when the series has fewer than slow bars.
func MACD(series models.PriceSeries, fast, slow int) *float64 {
	closes := series.Closes()
	if fast <= 0 || slow <= 0 || len(closes) < slow {
		return nil
	}
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	last := len(closes) - 1
	return models.Float(fastEMA[last] - slowEMA[last])
}

// Bollinger returns the latest upper and lower bands (period-bar moving
// average ± mult standard deviations), or nils when the series has fewer
// than period bars.
func Bollinger(series models.PriceSeries, period int, mult float64) (upper, lower *float64) {
	closes := series.Closes()
	if period <= 0 || len(closes) < period {
		return nil, nil
	}
	window := closes[len(closes)-period:]
	mean := avg(window)
	sd := stddev(window, mean)
	return models.Float(mean + mult*sd), models.Float(mean - mult*sd)
}

// MFI returns the latest Money Flow Index, a volume-weighted RSI
// analogue over typical price, or nil when the series has fewer than
// period+1 bars (a 14-bar window compares 14 typical prices against
// their predecessors).
func MFI(series models.PriceSeries, period int) *float64 {
	n := len(series)
	if period <= 0 || n < period+1 {
		return nil
	}

	typical := func(b models.Bar) float64 { return (b.High + b.Low + b.Close) / 3 }

	var positive, negative float64
	for i := n - period; i < n; i++ {
		tp := typical(series[i])
		flow := tp * series[i].Volume
		if tp > typical(series[i-1]) {
			positive += flow
		} else if tp < typical(series[i-1]) {
			negative += flow
		}
	}

	if negative == 0 {
		return models.Float(100)
	}
	ratio := positive / negative
	return models.Float(100 - 100/(1+ratio))
}

// OBV returns the latest cumulative On-Balance Volume, or nil when the
// series has fewer than 2 bars.
func OBV(series models.PriceSeries) *float64 {
	n := len(series)
	if n < 2 {
		return nil
	}
	obv := 0.0
	for i := 1; i < n; i++ {
		switch {
		case series[i].Close > series[i-1].Close:
			obv += series[i].Volume
		case series[i].Close < series[i-1].Close:
			obv -= series[i].Volume
		}
	}
	return models.Float(obv)
}

// ATR returns the latest Wilder-smoothed Average True Range, or nil when
// the series has fewer than period bars.
func ATR(series models.PriceSeries, period int) *float64 {
	n := len(series)
	if period <= 0 || n < period {
		return nil
	}

	tr := make([]float64, n)
	tr[0] = series[0].High - series[0].Low
	for i := 1; i < n; i++ {
		hl := series[i].High - series[i].Low
		hc := math.Abs(series[i].High - series[i-1].Close)
		lc := math.Abs(series[i].Low - series[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	// First ATR is a simple average of the first period true ranges,
	// then Wilder smoothing.
	atr := avg(tr[:period])
	for i := period; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
	}
	return models.Float(atr)
}

// AnnualizedVolatility returns the standard deviation of daily
// percentage returns scaled by √252, or nil when the series has fewer
// than 2 bars.
func AnnualizedVolatility(series models.PriceSeries) *float64 {
	n := len(series)
	if n < 2 {
		return nil
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := series[i-1].Close
		if prev == 0 {
			continue
		}
		returns = append(returns, (series[i].Close-prev)/prev)
	}
	if len(returns) == 0 {
		return nil
	}

	mean := avg(returns)
	sd := stddev(returns, mean)
	return models.Float(sd * math.Sqrt(tradingDaysPerYear))
}

// --- helpers ---

func avg(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64, mean float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)))
}

// ema computes the exponential moving average series, seeded with the
// SMA of the first period values.
func ema(data []float64, period int) []float64 {
	n := len(data)
	out := make([]float64, n)
	if n < period || period <= 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[period-1] = avg(data[:period])
	for i := period; i < n; i++ {
		out[i] = data[i]*k + out[i-1]*(1-k)
	}
	return out
}
