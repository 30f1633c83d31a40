// Package sector ranks the eleven S&P sector ETFs by volume-weighted money
// flow across four lookback horizons (SEAF: Sector ETF Asset Flows). Each
// horizon produces a 1-11 rank; the sum of ranks orders the final table and
// buckets each sector into Favored, Neutral or Avoid.
package sector

import (
	"sort"
	"time"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/internal/analysis/technical"
	"github.com/openfolio/marketgauge/pkg/models"
)

// SectorETFs maps each sector ETF ticker to its sector name.
var SectorETFs = map[string]string{
	"XLK":  "Technology",
	"XLF":  "Financials",
	"XLV":  "Health Care",
	"XLE":  "Energy",
	"XLY":  "Consumer Discretionary",
	"XLP":  "Consumer Staples",
	"XLI":  "Industrials",
	"XLB":  "Materials",
	"XLRE": "Real Estate",
	"XLU":  "Utilities",
	"XLC":  "Communication Services",
}

// Horizon is one ranking lookback.
type Horizon struct {
	Name string
	Days int
}

// Horizons are ranked independently and summed. Order matters for display.
var Horizons = []Horizon{
	{"Trading", 20},
	{"Tactical", 60},
	{"Strategic", 120},
	{"Long-term", 252},
}

// Categories on the total rank. With four horizons of 1-11 ranks the total
// spans 4 to 44.
const (
	CategoryFavored = "Favored"
	CategoryNeutral = "Neutral"
	CategoryAvoid   = "Avoid"
)

// Row is one sector's scores and ranks across all horizons.
type Row struct {
	Ticker    string             `json:"ticker"`
	Name      string             `json:"name"`
	Scores    map[string]float64 `json:"scores"`
	Ranks     map[string]int     `json:"ranks"`
	TotalRank int                `json:"total_rank"`
	Category  string             `json:"category"`
	Rank      int                `json:"rank"`
}

// Result is the full rotation table, best sector first.
type Result struct {
	Rows       []Row     `json:"rows"`
	Top3       []string  `json:"top3"`
	Benchmark  string    `json:"benchmark"`
	ComputedAt time.Time `json:"computed_at"`
}

// FlowScore measures money flow into one sector over the trailing window:
// half volume-weighted daily momentum, half excess return over the
// benchmark. Insufficient history scores zero rather than failing, so one
// thin ETF cannot sink the whole table.
func FlowScore(sector, benchmark []models.PriceBar, window int) float64 {
	if len(sector) < window || len(benchmark) < window {
		return 0
	}

	closes := models.Closes(sector)
	volumes := models.Volumes(sector)

	recent := closes[len(closes)-window:]
	recentVol := volumes[len(volumes)-window:]
	meanVol := technical.Mean(recentVol)
	if meanVol <= 0 {
		return 0
	}

	// Volume-weighted momentum: daily percent changes scaled by how much
	// volume backed each move.
	weighted := 0.0
	for i := 1; i < len(recent); i++ {
		if recent[i-1] == 0 {
			continue
		}
		change := recent[i]/recent[i-1] - 1
		weighted += change * (recentVol[i] / meanVol)
	}

	sectorRet := recent[len(recent)-1]/recent[0] - 1
	benchCloses := models.Closes(benchmark)
	benchRecent := benchCloses[len(benchCloses)-window:]
	benchRet := 0.0
	if benchRecent[0] != 0 {
		benchRet = benchRecent[len(benchRecent)-1]/benchRecent[0] - 1
	}

	return 0.5*weighted + 0.5*(sectorRet-benchRet)
}

// Compute builds the rotation table from per-ticker daily histories and the
// benchmark history. Tickers absent from histories score zero everywhere.
func Compute(histories map[string][]models.PriceBar, benchmark []models.PriceBar, benchmarkTicker string) (*Result, error) {
	if len(benchmark) == 0 {
		return nil, fault.DataUnavailable("no benchmark history for %s", benchmarkTicker)
	}

	rows := make([]Row, 0, len(SectorETFs))
	for ticker, name := range SectorETFs {
		row := Row{
			Ticker: ticker,
			Name:   name,
			Scores: make(map[string]float64, len(Horizons)),
			Ranks:  make(map[string]int, len(Horizons)),
		}
		for _, h := range Horizons {
			row.Scores[h.Name] = FlowScore(histories[ticker], benchmark, h.Days)
		}
		rows = append(rows, row)
	}

	// Rank each horizon independently: 1 is the strongest flow. Ties break
	// on ticker so the table is deterministic.
	for _, h := range Horizons {
		order := make([]int, len(rows))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			sa, sb := rows[order[a]].Scores[h.Name], rows[order[b]].Scores[h.Name]
			if sa != sb {
				return sa > sb
			}
			return rows[order[a]].Ticker < rows[order[b]].Ticker
		})
		for pos, idx := range order {
			rows[idx].Ranks[h.Name] = pos + 1
		}
	}

	for i := range rows {
		total := 0
		for _, h := range Horizons {
			total += rows[i].Ranks[h.Name]
		}
		rows[i].TotalRank = total
		rows[i].Category = categorize(total)
	}

	sort.Slice(rows, func(a, b int) bool {
		if rows[a].TotalRank != rows[b].TotalRank {
			return rows[a].TotalRank < rows[b].TotalRank
		}
		return rows[a].Ticker < rows[b].Ticker
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	top3 := make([]string, 0, 3)
	for i := 0; i < len(rows) && i < 3; i++ {
		top3 = append(top3, rows[i].Ticker)
	}

	return &Result{
		Rows:       rows,
		Top3:       top3,
		Benchmark:  benchmarkTicker,
		ComputedAt: time.Now(),
	}, nil
}

func categorize(total int) string {
	switch {
	case total <= 20:
		return CategoryFavored
	case total <= 32:
		return CategoryNeutral
	default:
		return CategoryAvoid
	}
}
