package datasource

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"

	"github.com/openfolio/marketgauge/pkg/models"
)

const yahooRSSURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// GetNews returns recent headlines for a symbol from the Yahoo Finance RSS
// feed, newest first as the feed delivers them, capped at limit.
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := c.before(ctx); err != nil {
		return nil, err
	}

	parser := gofeed.NewParser()
	parser.UserAgent = DefaultUserAgent

	feed, err := parser.ParseURLWithContext(fmt.Sprintf(yahooRSSURL, symbol), ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed %s: %w", symbol, err)
	}

	articles := make([]models.NewsArticle, 0, limit)
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		a := models.NewsArticle{
			Title:   item.Title,
			Link:    item.Link,
			Source:  feed.Title,
			Summary: item.Description,
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}
	return articles, nil
}
