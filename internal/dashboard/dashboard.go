// Package dashboard orchestrates the analysis engines over cached market
// data: it owns the Yahoo client, the read-through cache and the call
// counter, and exposes one method per dashboard view.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/openfolio/marketgauge/internal/analysis/breadth"
	"github.com/openfolio/marketgauge/internal/analysis/canslim"
	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/internal/analysis/flow"
	"github.com/openfolio/marketgauge/internal/analysis/gamma"
	"github.com/openfolio/marketgauge/internal/analysis/gauge"
	"github.com/openfolio/marketgauge/internal/analysis/macrox"
	"github.com/openfolio/marketgauge/internal/analysis/sector"
	"github.com/openfolio/marketgauge/internal/analysis/stage"
	"github.com/openfolio/marketgauge/internal/analysis/technical"
	"github.com/openfolio/marketgauge/internal/config"
	"github.com/openfolio/marketgauge/internal/datasource"
	"github.com/openfolio/marketgauge/internal/infra"
	"github.com/openfolio/marketgauge/internal/screener"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Concurrent upstream fetches for batch views.
const fetchConcurrency = 5

// Market-health inputs.
var healthTickers = struct{ SPY, IWM, TLT, VIX string }{"SPY", "IWM", "TLT", "^VIX"}

// Service wires data access to the analysis engines.
type Service struct {
	cfg     *config.Config
	data    *datasource.Client
	cache   *infra.Cache
	counter *infra.CallCounter
	log     zerolog.Logger
}

// New builds a Service from configuration.
func New(cfg *config.Config, log zerolog.Logger) *Service {
	counter := infra.NewCallCounter(cfg.Data.StatsFile)
	return &Service{
		cfg:     cfg,
		data:    datasource.NewClient(cfg.Data.RequestsPerSecond, counter),
		cache:   infra.NewCache(cfg.Data.HistoryTTL()),
		counter: counter,
		log:     log,
	}
}

// FlowReport pairs the raw flow snapshot with its interpretation.
type FlowReport struct {
	Snapshot  *flow.Snapshot `json:"snapshot"`
	Sentiment flow.Sentiment `json:"sentiment"`
}

// Stats reports API usage.
type Stats struct {
	TotalCalls int64     `json:"total_calls"`
	Timestamp  time.Time `json:"timestamp"`
}

// --- Cached fetch helpers ---

func (s *Service) dailyHistory(ctx context.Context, symbol string, lookback time.Duration) ([]models.PriceBar, error) {
	key := fmt.Sprintf("history:1d:%s:%d", symbol, int(lookback.Hours()))
	v, err := s.cache.GetOrFetch(key, s.cfg.Data.HistoryTTL(), func() (any, error) {
		return s.data.GetHistory(ctx, symbol, lookback, models.TimeframeDaily)
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "history for %s", symbol)
	}
	return v.([]models.PriceBar), nil
}

func (s *Service) weeklyHistory(ctx context.Context, symbol string, lookback time.Duration) ([]models.PriceBar, error) {
	key := fmt.Sprintf("history:1wk:%s:%d", symbol, int(lookback.Hours()))
	v, err := s.cache.GetOrFetch(key, s.cfg.Data.HistoryTTL(), func() (any, error) {
		return s.data.GetHistory(ctx, symbol, lookback, models.TimeframeWeekly)
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "weekly history for %s", symbol)
	}
	return v.([]models.PriceBar), nil
}

func (s *Service) fundamentals(ctx context.Context, symbol string) (*models.FundamentalInfo, error) {
	v, err := s.cache.GetOrFetch("info:"+symbol, s.cfg.Data.InfoTTL(), func() (any, error) {
		return s.data.GetFundamentals(ctx, symbol)
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "fundamentals for %s", symbol)
	}
	return v.(*models.FundamentalInfo), nil
}

func (s *Service) optionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	v, err := s.cache.GetOrFetch("options:"+symbol, s.cfg.Data.OptionsTTL(), func() (any, error) {
		return s.data.GetOptionChain(ctx, symbol, s.cfg.Data.MaxExpirations)
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "option chain for %s", symbol)
	}
	return v.(*models.OptionChain), nil
}

// dailyHistories fetches several tickers concurrently. Failed tickers are
// absent from the result rather than failing the batch.
func (s *Service) dailyHistories(ctx context.Context, symbols []string, lookback time.Duration) map[string][]models.PriceBar {
	out := make(map[string][]models.PriceBar, len(symbols))
	results := make([][]models.PriceBar, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			bars, err := s.dailyHistory(gctx, symbol, lookback)
			if err != nil {
				s.log.Warn().Str("symbol", symbol).Err(err).Msg("history fetch failed")
				return nil
			}
			results[i] = bars
			return nil
		})
	}
	g.Wait()

	for i, symbol := range symbols {
		if results[i] != nil {
			out[symbol] = results[i]
		}
	}
	return out
}

// --- Dashboard views ---

// Quote returns a near-real-time quote.
func (s *Service) Quote(ctx context.Context, symbol string) (*models.Quote, error) {
	q, err := s.data.GetQuote(ctx, symbol)
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "quote for %s", symbol)
	}
	return q, nil
}

// GammaProfile computes the gamma/volume profile for one underlying.
func (s *Service) GammaProfile(ctx context.Context, symbol string) (*gamma.Profile, error) {
	chain, err := s.optionChain(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return gamma.Compute(chain)
}

// OptionsFlow computes and interprets the options flow snapshot.
func (s *Service) OptionsFlow(ctx context.Context, symbol string) (*FlowReport, error) {
	chain, err := s.optionChain(ctx, symbol)
	if err != nil {
		return nil, err
	}
	snap, err := flow.Compute(symbol, chain.SpotPrice, chain.Calls(), chain.Puts())
	if err != nil {
		return nil, err
	}
	return &FlowReport{Snapshot: snap, Sentiment: flow.Interpret(snap)}, nil
}

// PowerGauge scores a ticker on the 20-factor gauge.
func (s *Service) PowerGauge(ctx context.Context, symbol string) (*gauge.Result, error) {
	info, err := s.fundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	history, err := s.dailyHistory(ctx, symbol, 365*24*time.Hour)
	if err != nil {
		// Technical factors degrade to neutral without history.
		s.log.Warn().Str("symbol", symbol).Err(err).Msg("gauge without history")
		history = nil
	}
	return gauge.Compute(info, history)
}

// CANSLIM runs the growth checklist for a ticker.
func (s *Service) CANSLIM(ctx context.Context, symbol string) (*canslim.Result, error) {
	info, err := s.fundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}

	yearReturn := 0.0
	if history, err := s.dailyHistory(ctx, symbol, 365*24*time.Hour); err == nil {
		closes := models.Closes(history)
		if len(closes) > 1 && closes[0] != 0 {
			yearReturn = closes[len(closes)-1]/closes[0] - 1
		}
	}
	return canslim.Evaluate(info, yearReturn)
}

// MarketHealth evaluates the six market internals.
func (s *Service) MarketHealth(ctx context.Context) (*breadth.Result, error) {
	spy, iwm, tlt, vix, err := s.healthInputs(ctx, 180*24*time.Hour)
	if err != nil {
		return nil, err
	}
	return breadth.Evaluate(spy, iwm, tlt, vix)
}

// MarketHealthHistory replays the market internals day by day over roughly
// a year of history.
func (s *Service) MarketHealthHistory(ctx context.Context) ([]breadth.HistoricalPoint, error) {
	spy, iwm, tlt, vix, err := s.healthInputs(ctx, 400*24*time.Hour)
	if err != nil {
		return nil, err
	}
	return breadth.Historical(spy, iwm, tlt, vix), nil
}

func (s *Service) healthInputs(ctx context.Context, lookback time.Duration) (spy, iwm, tlt, vix []models.PriceBar, err error) {
	symbols := []string{healthTickers.SPY, healthTickers.IWM, healthTickers.TLT, healthTickers.VIX}
	histories := s.dailyHistories(ctx, symbols, lookback)
	for _, symbol := range symbols {
		if len(histories[symbol]) == 0 {
			return nil, nil, nil, nil, fault.DataUnavailable("no history for %s", symbol)
		}
	}
	return histories[healthTickers.SPY], histories[healthTickers.IWM],
		histories[healthTickers.TLT], histories[healthTickers.VIX], nil
}

// SectorRotation ranks the sector ETFs by asset flow.
func (s *Service) SectorRotation(ctx context.Context) (*sector.Result, error) {
	benchmark := s.cfg.Data.Benchmark
	bench, err := s.dailyHistory(ctx, benchmark, 400*24*time.Hour)
	if err != nil {
		return nil, err
	}

	tickers := make([]string, 0, len(sector.SectorETFs))
	for t := range sector.SectorETFs {
		tickers = append(tickers, t)
	}
	histories := s.dailyHistories(ctx, tickers, 400*24*time.Hour)

	return sector.Compute(histories, bench, benchmark)
}

// Stage classifies a ticker's Weinstein stage from weekly bars.
func (s *Service) Stage(ctx context.Context, symbol string) (*stage.Result, error) {
	weekly, err := s.weeklyHistory(ctx, symbol, 2*365*24*time.Hour)
	if err != nil {
		return nil, err
	}
	benchmark, err := s.weeklyHistory(ctx, s.cfg.Data.Benchmark, 2*365*24*time.Hour)
	if err != nil {
		s.log.Warn().Err(err).Msg("stage without benchmark")
		benchmark = nil
	}
	return stage.Classify(symbol, weekly, benchmark)
}

// Screen runs a named screener strategy over the ticker universe.
func (s *Service) Screen(ctx context.Context, strategyName string) (*screener.Result, error) {
	strat, ok := screener.StrategyByName(strategyName)
	if !ok {
		return nil, fault.New(fault.KindCalculation, "unknown strategy %q", strategyName)
	}

	universe, err := s.Universe(ctx)
	if err != nil {
		return nil, err
	}

	histories := s.dailyHistories(ctx, universe, 365*24*time.Hour)
	table := make([]screener.Row, 0, len(universe))
	for _, ticker := range universe {
		history := histories[ticker]
		if len(history) == 0 {
			continue
		}
		// Fundamentals are optional for screening; a missing snapshot only
		// zeroes the valuation columns.
		info, err := s.fundamentals(ctx, ticker)
		if err != nil {
			info = nil
		}
		if row, ok := screener.BuildRow(ticker, info, history); ok {
			table = append(table, row)
		}
	}
	return screener.Run(strat, table), nil
}

// YieldCurve returns the 10Y-3M treasury spread series.
func (s *Service) YieldCurve(ctx context.Context) (*macrox.CurveResult, error) {
	histories := s.dailyHistories(ctx, []string{"^TNX", "^IRX"}, 365*24*time.Hour)
	return macrox.YieldCurve(histories["^TNX"], histories["^IRX"])
}

// MacroPerformance returns normalized performance paths for the macro
// assets. Assets that fail to fetch are omitted.
func (s *Service) MacroPerformance(ctx context.Context) (map[string][]macrox.PerfPoint, error) {
	symbols := make([]string, 0, len(macrox.MacroTickers))
	names := make(map[string]string, len(macrox.MacroTickers))
	for name, symbol := range macrox.MacroTickers {
		symbols = append(symbols, symbol)
		names[symbol] = name
	}

	histories := s.dailyHistories(ctx, symbols, 365*24*time.Hour)
	out := make(map[string][]macrox.PerfPoint)
	for symbol, bars := range histories {
		pts, err := macrox.NormalizedPerformance(bars)
		if err != nil {
			s.log.Warn().Str("symbol", symbol).Err(err).Msg("normalize failed")
			continue
		}
		out[names[symbol]] = pts
	}
	if len(out) == 0 {
		return nil, fault.DataUnavailable("no macro histories available")
	}
	return out, nil
}

// News returns recent headlines for a symbol.
func (s *Service) News(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	articles, err := s.data.GetNews(ctx, symbol, limit)
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "news for %s", symbol)
	}
	return articles, nil
}

// Universe returns the screening universe, from the configured CSV file
// with the built-in fallback list.
func (s *Service) Universe(ctx context.Context) ([]string, error) {
	v, err := s.cache.GetOrFetch("universe", s.cfg.Data.UniverseTTL(), func() (any, error) {
		return datasource.LoadUniverse(s.cfg.Data.UniverseFile)
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "universe")
	}
	return v.([]string), nil
}

// RefreshUniverse scrapes the current S&P 500 list, saves it to the
// configured universe file and replaces the cached universe.
func (s *Service) RefreshUniverse(ctx context.Context) ([]string, error) {
	tickers, err := datasource.FetchSP500(ctx)
	if err != nil {
		return nil, fault.Wrap(fault.KindDataUnavailable, err, "S&P 500 refresh")
	}
	if err := datasource.SaveUniverse(s.cfg.Data.UniverseFile, tickers); err != nil {
		s.log.Warn().Err(err).Msg("could not persist refreshed universe")
	}
	s.cache.SetWithTTL("universe", tickers, s.cfg.Data.UniverseTTL())
	return tickers, nil
}

// UsageStats reports total upstream API calls.
func (s *Service) UsageStats() Stats {
	return Stats{TotalCalls: s.counter.Total(), Timestamp: time.Now()}
}

// RelativeStrength is a convenience read used by CLI output: the 126-day
// return of a symbol against the benchmark.
func (s *Service) RelativeStrength(ctx context.Context, symbol string) (float64, error) {
	history, err := s.dailyHistory(ctx, symbol, 365*24*time.Hour)
	if err != nil {
		return 0, err
	}
	bench, err := s.dailyHistory(ctx, s.cfg.Data.Benchmark, 365*24*time.Hour)
	if err != nil {
		return 0, err
	}
	closes, benchCloses := models.Closes(history), models.Closes(bench)
	if len(closes) <= 126 || len(benchCloses) <= 126 {
		return 0, fault.InsufficientHistory("relative strength needs 126 bars")
	}
	return technical.ReturnOver(closes, 126) - technical.ReturnOver(benchCloses, 126), nil
}
