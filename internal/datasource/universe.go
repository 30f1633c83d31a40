package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultUniverse is the fallback ticker list when no universe file exists
// and the index scrape is unavailable.
var DefaultUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"TSLA", "META", "BRK-B", "UNH", "JNJ",
}

const sp500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// LoadUniverse reads the ticker universe from a CSV file with a Symbol (or
// Ticker) column. A missing file falls back to DefaultUniverse; a present
// but unusable file is an error.
func LoadUniverse(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultUniverse, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse universe file %s: %w", path, err)
	}
	if len(records) == 0 {
		return DefaultUniverse, nil
	}

	col := -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "symbol", "ticker":
			col = i
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("universe file %s has no Symbol or Ticker column", path)
	}

	seen := make(map[string]bool)
	var tickers []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		t := strings.ToUpper(strings.TrimSpace(row[col]))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 {
		return DefaultUniverse, nil
	}
	return tickers, nil
}

// FetchSP500 scrapes the current S&P 500 constituent list. Yahoo uses "-"
// where the index list uses "." in share-class tickers (BRK.B → BRK-B).
func FetchSP500(ctx context.Context) ([]string, error) {
	body, _, err := doGet(ctx, sp500URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fmt.Errorf("fetch S&P 500 list: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse S&P 500 page: %w", err)
	}

	seen := make(map[string]bool)
	var tickers []string
	doc.Find("table#constituents tbody tr td:first-child a").Each(func(_ int, s *goquery.Selection) {
		t := strings.ToUpper(strings.TrimSpace(s.Text()))
		t = strings.ReplaceAll(t, ".", "-")
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		tickers = append(tickers, t)
	})
	if len(tickers) == 0 {
		return nil, fmt.Errorf("S&P 500 constituent table not found")
	}

	sort.Strings(tickers)
	return tickers, nil
}

// SaveUniverse writes tickers to a CSV file with a Symbol header, the format
// LoadUniverse reads back.
func SaveUniverse(path string, tickers []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create universe file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Symbol"}); err != nil {
		return err
	}
	for _, t := range tickers {
		if err := w.Write([]string{t}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
