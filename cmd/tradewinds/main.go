// TradeWinds — AI-assisted trading insight service
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/tradewinds/api"
	"github.com/seenimoa/tradewinds/internal/config"
	"github.com/seenimoa/tradewinds/internal/insight"
	"github.com/seenimoa/tradewinds/internal/llm"
	"github.com/seenimoa/tradewinds/internal/marketdata"
	"github.com/seenimoa/tradewinds/internal/news"
	"github.com/seenimoa/tradewinds/internal/portfolio"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tradewinds",
	Short: "TradeWinds — AI-assisted trading insight service",
	Long: `TradeWinds gathers market data, technical indicators, news and
macro events for a watchlist, then synthesizes actionable trading
insights through an LLM. It also provides portfolio risk analytics,
backtest narratives and strategy comparison.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(statusCmd)
}

// buildOrchestrator wires the market, news and synthesis layers from
// the loaded config.
func buildOrchestrator() (*insight.Orchestrator, *portfolio.Engine, error) {
	provider, err := llm.NewTogether(cfg.LLM.TogetherKey,
		llm.WithTogetherModel(cfg.LLM.Model),
		llm.WithTogetherMaxTokens(cfg.LLM.MaxTokens),
		llm.WithTogetherTemperature(cfg.LLM.Temperature),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("LLM setup failed: %w", err)
	}

	gateway := marketdata.NewGateway(marketdata.NewYahoo(), marketdata.GatewayConfig{
		Lookback:        cfg.Market.Lookback,
		Timeout:         cfg.Market.Timeout,
		VolatilityAlert: cfg.Analysis.VolatilityAlert,
	})

	collector := news.NewCollector(cfg.News.Timeout, news.NewDuckDuckGo(), news.NewRSS())

	orch := insight.NewOrchestrator(gateway, collector, insight.StaticCalendar{}, provider, insight.Config{
		MarketTimeout:    cfg.Market.Timeout,
		NewsTimeout:      cfg.News.Timeout,
		SynthesisTimeout: cfg.LLM.SynthesisTimeout,
		NewsLimit:        cfg.News.MaxResults,
	})

	engine := portfolio.NewEngine(gateway, portfolio.Thresholds{
		Medium: cfg.Analysis.RiskMedium,
		High:   cfg.Analysis.RiskHigh,
	})

	return orch, engine, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("TradeWinds %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, engine, err := buildOrchestrator()
		if err != nil {
			return err
		}

		srv := api.NewServer(api.Config{
			CORSOrigins: cfg.API.CORSOrigins,
			Version:     version,
		}, orch, engine)

		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("🌐 Starting TradeWinds API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Insights Command (one-shot CLI) ---

var insightsCmd = &cobra.Command{
	Use:   "insights [ticker...]",
	Short: "Gather market context and print synthesized insights",
	Long: `Gather quotes, indicators, news and macro events for the given
tickers (default: BTC-USD ^IXIC) and print the synthesized analysis.

Examples:
  tradewinds insights
  tradewinds insights BTC-USD ETH-USD --query "Should I rebalance?"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")

		orch, _, err := buildOrchestrator()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		result, err := orch.Insights(ctx, query, args)
		if err != nil {
			return fmt.Errorf("insight synthesis failed: %w", err)
		}

		fmt.Println(result.Result)
		return nil
	},
}

func init() {
	insightsCmd.Flags().String("query", "", "analysis question to put to the model")
}

// --- Portfolio Command (one-shot CLI) ---

var portfolioCmd = &cobra.Command{
	Use:   "portfolio [SYMBOL:QTY...]",
	Short: "Compute aggregate risk analytics for a holdings list",
	Long: `Resolve current and month-ago prices for each holding and print
aggregate value, return, volatility, sharpe, drawdown and risk tier.

Examples:
  tradewinds portfolio
  tradewinds portfolio AAPL:10 MSFT:5 BTC-USD:0.2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		holdings, err := parseHoldings(args)
		if err != nil {
			return err
		}

		_, engine, err := buildOrchestrator()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		analytics, err := engine.Analyze(ctx, holdings)
		if err != nil {
			return fmt.Errorf("portfolio analysis failed: %w", err)
		}

		out, err := json.MarshalIndent(analytics, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

// parseHoldings turns SYMBOL:QTY args into holdings, with the demo
// watchlist as default.
func parseHoldings(args []string) ([]portfolio.Holding, error) {
	if len(args) == 0 {
		return []portfolio.Holding{{Symbol: "AAPL", Quantity: 10}, {Symbol: "MSFT", Quantity: 5}}, nil
	}
	holdings := make([]portfolio.Holding, 0, len(args))
	for _, arg := range args {
		sym, qtyStr, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid holding %q, expected SYMBOL:QTY", arg)
		}
		qty, err := strconv.ParseFloat(qtyStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity in %q: %w", arg, err)
		}
		holdings = append(holdings, portfolio.Holding{Symbol: sym, Quantity: qty})
	}
	return holdings, nil
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  TradeWinds — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:      %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Model:    %s\n", cfg.LLM.Model)
		fmt.Printf("    Market:       timeout %s, lookback %s\n", cfg.Market.Timeout, cfg.Market.Lookback)
		fmt.Printf("    News:         timeout %s, max %d results\n", cfg.News.Timeout, cfg.News.MaxResults)
		fmt.Printf("    API Server:   %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-20s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
