package collect

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newsgraph/model"
)

// ErrNoFeeds is returned when collection is attempted without any
// configured feed endpoints.
var ErrNoFeeds = errors.New("no feeds configured")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Collector fetches candidate articles from the configured feeds,
// normalizes them into article records, deduplicates by canonical URL
// and drops articles outside the lookback window.
type Collector struct {
	feeds  []model.Feed
	parser *gofeed.Parser
	now    func() time.Time
	log    *slog.Logger
}

// NewCollector creates a collector over the configured feeds. All feed
// fetches share one HTTP client with a fixed timeout.
func NewCollector(feeds []model.Feed, timeout time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: timeout}

	return &Collector{
		feeds:  feeds,
		parser: parser,
		now:    time.Now,
		log:    logger,
	}
}

// SetClock replaces the time source, used by tests to pin the window boundary.
func (c *Collector) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// Collect returns the deduplicated articles published within the
// lookback window. A single feed's failure is isolated: it is logged,
// replaced by the canned fallback set for its category, and never
// aborts collection from the other feeds.
func (c *Collector) Collect(ctx context.Context, lookbackDays int) ([]*model.Article, error) {
	if len(c.feeds) == 0 {
		return nil, ErrNoFeeds
	}

	cutoff := c.now().UTC().AddDate(0, 0, -lookbackDays)

	seen := map[string]bool{}
	var articles []*model.Article

	for _, feed := range c.feeds {
		entries := c.collectFeed(ctx, feed)

		kept := 0
		for _, article := range entries {
			// Dedup by canonical URL: first one encountered wins.
			if seen[article.URL] {
				continue
			}

			// Articles published before the cutoff are dropped; the
			// boundary itself is included. Entries whose date failed to
			// parse carry a zero time and are kept (permissive default).
			if !article.PublishedAt.IsZero() && article.PublishedAt.Before(cutoff) {
				continue
			}

			seen[article.URL] = true
			articles = append(articles, article)
			kept++
		}

		c.log.Info("Collected feed",
			slog.String("url", feed.URL),
			slog.String("category", feed.Category),
			slog.Int("entries", len(entries)),
			slog.Int("kept", kept),
		)
	}

	return articles, nil
}

// collectFeed parses one feed, falling back to the canned article set
// when the feed is unreachable or empty so downstream stages always
// have deterministic input.
func (c *Collector) collectFeed(ctx context.Context, feed model.Feed) []*model.Article {
	parsed, err := c.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		c.log.Warn("Feed unreachable, using fallback articles",
			slog.String("url", feed.URL),
			slog.String("error", err.Error()),
		)
		return CannedArticles(feed.Category, c.now().UTC())
	}

	if len(parsed.Items) == 0 {
		c.log.Warn("Feed returned no entries, using fallback articles", slog.String("url", feed.URL))
		return CannedArticles(feed.Category, c.now().UTC())
	}

	articles := make([]*model.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link == "" {
			continue
		}

		article := &model.Article{
			ID:       model.DeriveArticleID(item.Link),
			Title:    item.Title,
			Summary:  item.Description,
			URL:      item.Link,
			Category: feed.Category,
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = item.PublishedParsed.UTC()
		}

		articles = append(articles, article)
	}

	return articles
}
