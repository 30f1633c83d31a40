package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openfolio/marketgauge/internal/infra"
	"github.com/openfolio/marketgauge/pkg/models"
)

// Client fetches market data from Yahoo Finance. All requests pass through
// the rate limiter and bump the call counter when one is attached.
type Client struct {
	limiter *infra.RateLimiter
	counter *infra.CallCounter
}

// NewClient creates a Yahoo Finance client limited to requestsPerSecond.
// counter may be nil.
func NewClient(requestsPerSecond int, counter *infra.CallCounter) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 4
	}
	return &Client{
		limiter: infra.NewRateLimiter(requestsPerSecond, time.Second),
		counter: counter,
	}
}

// Name returns the data source name.
func (c *Client) Name() string { return "Yahoo Finance" }

func (c *Client) before(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.counter != nil {
		c.counter.Track()
	}
	return nil
}

// --- Yahoo Finance API types ---

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	LongName                   string  `json:"longName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64 `json:"regularMarketDayLow"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
	FiftyTwoWeekHigh           float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64 `json:"fiftyTwoWeekLow"`
	RegularMarketTime          int64   `json:"regularMarketTime"`
}

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type yfRaw struct {
	Raw *float64 `json:"raw"`
}

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	FinancialData *struct {
		DebtToEquity       yfRaw `json:"debtToEquity"`
		ReturnOnEquity     yfRaw `json:"returnOnEquity"`
		FreeCashflow       yfRaw `json:"freeCashflow"`
		EarningsGrowth     yfRaw `json:"earningsGrowth"`
		RevenueGrowth      yfRaw `json:"revenueGrowth"`
		ProfitMargins      yfRaw `json:"profitMargins"`
		CurrentPrice       yfRaw `json:"currentPrice"`
		TargetMeanPrice    yfRaw `json:"targetMeanPrice"`
		RecommendationMean yfRaw `json:"recommendationMean"`
	} `json:"financialData"`
	DefaultKeyStatistics *struct {
		PriceToBook             yfRaw `json:"priceToBook"`
		EarningsQuarterlyGrowth yfRaw `json:"earningsQuarterlyGrowth"`
		ForwardPE               yfRaw `json:"forwardPE"`
		ShortPercentOfFloat     yfRaw `json:"shortPercentOfFloat"`
		Beta                    yfRaw `json:"beta"`
		HeldPercentInstitutions yfRaw `json:"heldPercentInstitutions"`
	} `json:"defaultKeyStatistics"`
	SummaryDetail *struct {
		PriceToSalesTrailing12Months yfRaw `json:"priceToSalesTrailing12Months"`
		TrailingPE                   yfRaw `json:"trailingPE"`
		MarketCap                    yfRaw `json:"marketCap"`
		FiftyTwoWeekHigh             yfRaw `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow              yfRaw `json:"fiftyTwoWeekLow"`
		Volume                       yfRaw `json:"volume"`
		AverageVolume                yfRaw `json:"averageVolume"`
		DividendYield                yfRaw `json:"dividendYield"`
	} `json:"summaryDetail"`
}

type yfOptionsResponse struct {
	OptionChain struct {
		Result []struct {
			UnderlyingSymbol string  `json:"underlyingSymbol"`
			ExpirationDates  []int64 `json:"expirationDates"`
			Quote            struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"quote"`
			Options []struct {
				ExpirationDate int64              `json:"expirationDate"`
				Calls          []yfOptionContract `json:"calls"`
				Puts           []yfOptionContract `json:"puts"`
			} `json:"options"`
		} `json:"result"`
		Error *yfError `json:"error"`
	} `json:"optionChain"`
}

type yfOptionContract struct {
	Strike            float64  `json:"strike"`
	OpenInterest      int64    `json:"openInterest"`
	Volume            int64    `json:"volume"`
	Bid               float64  `json:"bid"`
	Ask               float64  `json:"ask"`
	LastPrice         *float64 `json:"lastPrice"`
	ImpliedVolatility *float64 `json:"impliedVolatility"`
}

// --- Public methods ---

// GetQuote returns a near-real-time quote.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://query1.finance.yahoo.com/v7/finance/quote?symbols=%s", symbol)
	var resp yfQuoteResponse
	if err := getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", symbol, err)
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	r := resp.QuoteResponse.Result[0]
	return &models.Quote{
		Symbol:     r.Symbol,
		Name:       coalesce(r.LongName, r.ShortName),
		LastPrice:  r.RegularMarketPrice,
		Change:     r.RegularMarketChange,
		ChangePct:  r.RegularMarketChangePercent,
		Open:       r.RegularMarketOpen,
		High:       r.RegularMarketDayHigh,
		Low:        r.RegularMarketDayLow,
		PrevClose:  r.RegularMarketPreviousClose,
		Volume:     r.RegularMarketVolume,
		WeekHigh52: r.FiftyTwoWeekHigh,
		WeekLow52:  r.FiftyTwoWeekLow,
		MarketCap:  r.MarketCap,
		Timestamp:  time.Unix(r.RegularMarketTime, 0),
	}, nil
}

// GetHistory returns OHLCV bars over the trailing lookback window at the
// given timeframe. Bars with missing closes are dropped.
func (c *Client) GetHistory(ctx context.Context, symbol string, lookback time.Duration, tf models.Timeframe) ([]models.PriceBar, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}

	to := time.Now()
	from := to.Add(-lookback)
	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s",
		symbol, from.Unix(), to.Unix(), string(tf),
	)

	var resp yfChartResponse
	if err := getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	return parseChart(resp.Chart.Result[0]), nil
}

// GetFundamentals returns the fundamentals snapshot used by the scoring
// engines. Absent fields stay nil.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) (*models.FundamentalInfo, error) {
	if err := c.before(ctx); err != nil {
		return nil, err
	}

	modules := "financialData,defaultKeyStatistics,summaryDetail"
	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=%s",
		symbol, modules,
	)

	var resp yfSummaryResponse
	if err := getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	r := resp.QuoteSummary.Result[0]
	info := &models.FundamentalInfo{Symbol: symbol, FetchedAt: time.Now()}
	if fd := r.FinancialData; fd != nil {
		info.DebtToEquity = fd.DebtToEquity.Raw
		info.ReturnOnEq = fd.ReturnOnEquity.Raw
		info.FreeCashflow = fd.FreeCashflow.Raw
		info.EarningsGrowth = fd.EarningsGrowth.Raw
		info.RevenueGrowth = fd.RevenueGrowth.Raw
		info.ProfitMargins = fd.ProfitMargins.Raw
		info.CurrentPrice = fd.CurrentPrice.Raw
		info.TargetMeanPrice = fd.TargetMeanPrice.Raw
		info.RecommendationMean = fd.RecommendationMean.Raw
	}
	if ks := r.DefaultKeyStatistics; ks != nil {
		info.PriceToBook = ks.PriceToBook.Raw
		info.EarningsQuarterlyGrowth = ks.EarningsQuarterlyGrowth.Raw
		info.ForwardPE = ks.ForwardPE.Raw
		info.ShortPctOfFloat = ks.ShortPercentOfFloat.Raw
		info.Beta = ks.Beta.Raw
		info.HeldPctInstitutions = ks.HeldPercentInstitutions.Raw
	}
	if sd := r.SummaryDetail; sd != nil {
		info.PriceToSales = sd.PriceToSalesTrailing12Months.Raw
		info.TrailingPE = sd.TrailingPE.Raw
		info.MarketCap = sd.MarketCap.Raw
		info.FiftyTwoWeekHigh = sd.FiftyTwoWeekHigh.Raw
		info.FiftyTwoWeekLow = sd.FiftyTwoWeekLow.Raw
		info.Volume = sd.Volume.Raw
		info.AverageVolume = sd.AverageVolume.Raw
		info.DividendYield = sd.DividendYield.Raw
	}
	return info, nil
}

// Near-dated expirations dominate dealer positioning; contracts further out
// than this are skipped.
const maxExpirationDays = 90

// GetOptionChain fetches contracts across up to maxExpirations near-dated
// expirations. The first request lists expirations and the underlying spot;
// each kept expiration is one further request.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, maxExpirations int) (*models.OptionChain, error) {
	if maxExpirations <= 0 {
		maxExpirations = 10
	}
	if err := c.before(ctx); err != nil {
		return nil, err
	}

	base := fmt.Sprintf("https://query1.finance.yahoo.com/v7/finance/options/%s", symbol)
	var first yfOptionsResponse
	if err := getJSON(ctx, base, &first); err != nil {
		return nil, fmt.Errorf("yahoo options %s: %w", symbol, err)
	}
	if first.OptionChain.Error != nil {
		return nil, fmt.Errorf("yahoo options error: %s", first.OptionChain.Error.Description)
	}
	if len(first.OptionChain.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	r := first.OptionChain.Result[0]
	chain := &models.OptionChain{
		Symbol:    symbol,
		SpotPrice: r.Quote.RegularMarketPrice,
		FetchedAt: time.Now(),
	}

	cutoff := time.Now().AddDate(0, 0, maxExpirationDays)
	kept := make([]int64, 0, maxExpirations)
	for _, ts := range r.ExpirationDates {
		if time.Unix(ts, 0).After(cutoff) {
			break
		}
		kept = append(kept, ts)
		if len(kept) >= maxExpirations {
			break
		}
	}

	for _, ts := range kept {
		if err := c.before(ctx); err != nil {
			return nil, err
		}
		var page yfOptionsResponse
		url := fmt.Sprintf("%s?date=%d", base, ts)
		if err := getJSON(ctx, url, &page); err != nil {
			// One bad expiration page should not lose the rest of the chain.
			continue
		}
		if len(page.OptionChain.Result) == 0 {
			continue
		}
		for _, opt := range page.OptionChain.Result[0].Options {
			exp := time.Unix(opt.ExpirationDate, 0).UTC().Format("2006-01-02")
			chain.Expirations = append(chain.Expirations, exp)
			for _, raw := range opt.Calls {
				chain.Contracts = append(chain.Contracts, toContract(raw, models.Call, exp))
			}
			for _, raw := range opt.Puts {
				chain.Contracts = append(chain.Contracts, toContract(raw, models.Put, exp))
			}
		}
	}

	return chain, nil
}

// --- Helpers ---

func toContract(raw yfOptionContract, t models.OptionType, expiration string) models.OptionContract {
	return models.OptionContract{
		Strike:       raw.Strike,
		Expiration:   expiration,
		Type:         t,
		OpenInterest: raw.OpenInterest,
		Volume:       raw.Volume,
		Bid:          raw.Bid,
		Ask:          raw.Ask,
		LastPrice:    raw.LastPrice,
		IV:           raw.ImpliedVolatility,
	}
}

func parseChart(result yfChartResult) []models.PriceBar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := models.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *q.Close[i],
		}
		if i < len(q.Open) && q.Open[i] != nil {
			b.Open = *q.Open[i]
		}
		if i < len(q.High) && q.High[i] != nil {
			b.High = *q.High[i]
		}
		if i < len(q.Low) && q.Low[i] != nil {
			b.Low = *q.Low[i]
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
