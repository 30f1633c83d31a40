// MarketGauge — options positioning, market internals and composite
// stock scoring from public market data.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openfolio/marketgauge/api"
	"github.com/openfolio/marketgauge/internal/config"
	"github.com/openfolio/marketgauge/internal/dashboard"
	"github.com/openfolio/marketgauge/internal/screener"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set in PersistentPreRunE.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "marketgauge",
	Short: "MarketGauge — market internals, options positioning and stock scoring",
	Long: `MarketGauge analyzes public market data into dashboard views:
gamma exposure and options flow per underlying, the six-metric market
health gauge, sector rotation rankings, Weinstein stage analysis, and
composite stock scores (Power Gauge, CANSLIM).`,
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

		if override, _ := cmd.Flags().GetString("log-level"); override != "" {
			cfg.Logging.Level = override
		}
		logger = newLogger(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(gammaCmd)
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(gaugeCmd)
	rootCmd.AddCommand(canslimCmd)
	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sectorsCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(statsCmd)
}

func newLogger(lc config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if lc.Format == "json" {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return l.Level(level).With().Timestamp().Logger()
}

func newService() *dashboard.Service {
	return dashboard.New(cfg, logger)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Minute)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MarketGauge %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := api.NewServer(cfg, newService())
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		logger.Info().Str("addr", addr).Msg("starting API server")
		return srv.ListenAndServe(addr)
	},
}

// --- Gamma Command ---

var gammaCmd = &cobra.Command{
	Use:   "gamma [symbol]",
	Short: "Gamma exposure and volume profile for an underlying",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		symbol := strings.ToUpper(args[0])
		profile, err := newService().GammaProfile(ctx, symbol)
		if err != nil {
			return err
		}

		st := profile.Stats
		fmt.Printf("Gamma Profile: %s (spot %.2f)\n", symbol, st.SpotPrice)
		fmt.Printf("  Net GEX:        %.0f\n", st.NetGEX)
		fmt.Printf("  Max GEX strike: %.2f (%.0f)\n", st.MaxGEXStrike, st.MaxGEXValue)
		fmt.Printf("  Zero gamma:     %.2f\n", st.ZeroGammaLevel)
		fmt.Printf("  Call volume:    %d\n", st.TotalCallVolume)
		fmt.Printf("  Put volume:     %d\n", st.TotalPutVolume)
		return nil
	},
}

// --- Flow Command ---

var flowCmd = &cobra.Command{
	Use:   "flow [symbol]",
	Short: "Options flow snapshot for an underlying",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		symbol := strings.ToUpper(args[0])
		report, err := newService().OptionsFlow(ctx, symbol)
		if err != nil {
			return err
		}

		s := report.Snapshot
		fmt.Printf("Options Flow: %s\n", symbol)
		fmt.Printf("  Sentiment:     %s\n", report.Sentiment.Sentiment)
		fmt.Printf("  Net premium:   %.0f\n", s.NetPremium)
		fmt.Printf("  P/C volume:    %.2f (%s)\n", s.PCVolumeRatio, report.Sentiment.VolumeBias)
		fmt.Printf("  Unusual calls: %d, unusual puts: %d\n", len(s.UnusualCalls), len(s.UnusualPuts))
		return nil
	},
}

// --- Gauge Command ---

var gaugeCmd = &cobra.Command{
	Use:   "gauge [symbol]",
	Short: "20-factor Power Gauge rating for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		symbol := strings.ToUpper(args[0])
		result, err := newService().PowerGauge(ctx, symbol)
		if err != nil {
			return err
		}

		fmt.Printf("Power Gauge: %s — %s (%.1f)\n", symbol, result.Rating, result.Score)
		for _, c := range result.Categories {
			fmt.Printf("  %-11s %5.1f\n", c.Name, c.Score)
			for _, f := range c.Factors {
				fmt.Printf("    %-22s %5.1f\n", f.Name, f.Score)
			}
		}
		return nil
	},
}

// --- CANSLIM Command ---

var canslimCmd = &cobra.Command{
	Use:   "canslim [symbol]",
	Short: "CANSLIM growth checklist for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		symbol := strings.ToUpper(args[0])
		result, err := newService().CANSLIM(ctx, symbol)
		if err != nil {
			return err
		}

		fmt.Printf("CANSLIM: %s — %d/%d\n", symbol, result.Score, result.MaxScore)
		for _, c := range result.Checks {
			mark := "✗"
			if c.Pass {
				mark = "✓"
			}
			fmt.Printf("  %s %s %-28s %s\n", mark, c.Letter, c.Name, c.Value)
		}
		return nil
	},
}

// --- Stage Command ---

var stageCmd = &cobra.Command{
	Use:   "stage [symbol]",
	Short: "Weinstein stage analysis for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		symbol := strings.ToUpper(args[0])
		svc := newService()
		result, err := svc.Stage(ctx, symbol)
		if err != nil {
			return err
		}

		fmt.Printf("Stage Analysis: %s — %s\n", symbol, result.Stage)
		fmt.Printf("  Price: %.2f, 30w MA: %.2f, slope: %.2f%%\n",
			result.CurrentPrice, result.SMA30, result.Slope*100)
		fmt.Printf("  Mansfield RS: %.2f%%\n", result.MansfieldRS*100)
		if rs, err := svc.RelativeStrength(ctx, symbol); err == nil {
			fmt.Printf("  6-month RS vs benchmark: %+.2f%%\n", rs*100)
		}
		for _, d := range result.Details {
			fmt.Printf("  - %s\n", d)
		}
		return nil
	},
}

// --- Health Command ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Six-metric market health gauge",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		result, err := newService().MarketHealth(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Market Health: %s (%d positive / %d negative)\n",
			result.Signal, result.PositiveCount, result.NegativeCount)
		for _, m := range result.Metrics {
			fmt.Printf("  [%-8s] %-22s %s\n", m.Status, m.Name, m.Value)
		}
		return nil
	},
}

// --- Sectors Command ---

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "Sector rotation ranking across four horizons",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		result, err := newService().SectorRotation(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Sector Rotation (vs %s)\n", result.Benchmark)
		for _, row := range result.Rows {
			fmt.Printf("  %2d. %-4s %-24s total %2d  %s\n",
				row.Rank, row.Ticker, row.Name, row.TotalRank, row.Category)
		}
		fmt.Printf("Top 3: %s\n", strings.Join(result.Top3, ", "))
		return nil
	},
}

// --- Screen Command ---

var screenCmd = &cobra.Command{
	Use:   "screen [strategy]",
	Short: "Run a screener strategy over the universe",
	Long: `Run a screener strategy over the ticker universe.

Available strategies:
  csp             cash-secured put candidates
  covered_calls   covered call candidates
  short_momentum  breakdown shorts
  mid_momentum    momentum longs
  safe_long       defensive dividend longs`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := screener.StrategyByName(args[0]); !ok {
			return fmt.Errorf("unknown strategy %q", args[0])
		}

		ctx, cancel := cmdContext()
		defer cancel()

		result, err := newService().Screen(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Screener: %s — %d of %d scanned\n", result.Strategy, len(result.Rows), result.Scanned)
		for _, row := range result.Rows {
			fmt.Printf("  %-6s price %8.2f  RSI %5.1f  HV %5.1f  yield %.2f%%\n",
				row.Ticker, row.Price, row.RSI, row.HV20, row.DivYield*100)
		}
		return nil
	},
}

// --- Stats Command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show API usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := newService().UsageStats()
		fmt.Printf("Total upstream API calls: %d\n", stats.TotalCalls)
		return nil
	},
}
