package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seenimoa/tradewinds/pkg/models"
)

const insightSystemPrompt = "You are a multi-agent AI trading assistant. Given the following data, do the following:\n" +
	"- Summarize technical and statistical indicators for each asset\n" +
	"- Summarize news sentiment and key drivers\n" +
	"- Give actionable recommendations (buy/sell/hold) and risk assessment\n" +
	"- Highlight alerts (volatility, volume, macro events)\n" +
	"- No code, only insights and analytics."

const backtestSystemPrompt = "You are a quant analyst. Summarize:\n" +
	"- The logic in plain English\n" +
	"- Expected performance (win rate, avg return, drawdown)\n" +
	"- Main risks and market conditions\n" +
	"- No code, only insights."

const compareSystemPrompt = "You are a trading strategy expert. Compare the following strategies. " +
	"Summarize logic, performance, risk, and optimal market conditions."

const backtestVsLiveSystemPrompt = "You are an AI trading analyst. Compare backtest and live trading results. " +
	"Highlight discrepancies, possible causes, and suggest optimizations."

// buildInsightPrompt renders the gathered context for the model. Stats
// and news are serialized as JSON so missing fields stay absent rather
// than showing up as zeros.
func buildInsightPrompt(ic *models.InsightContext) string {
	var b strings.Builder
	b.WriteString(ic.Query)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Tickers: %s\n", strings.Join(ic.Tickers, ", "))
	fmt.Fprintf(&b, "Stats: %s\n", toJSON(ic.Stats))
	fmt.Fprintf(&b, "Latest News: %s\n", toJSON(ic.News))
	fmt.Fprintf(&b, "Economic Calendar: %s\n", toJSON(ic.Calendar))
	return b.String()
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
