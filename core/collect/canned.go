package collect

import (
	"time"

	"newsgraph/model"
)

// cannedEntries are the fixed fallback articles used when a feed is
// unreachable or empty. They are domain-relevant on purpose so the
// filter, enricher and extractor still receive deterministic input.
var cannedEntries = map[string][]struct {
	title   string
	summary string
	url     string
}{
	"economy": {
		{
			title:   "Central bank holds interest rate steady as inflation cools",
			summary: "The central bank kept its benchmark interest rate unchanged, citing easing inflation and a stable economy.",
			url:     "https://newsgraph.invalid/fallback/economy-rate-decision",
		},
		{
			title:   "Exports rise for third straight month on chip demand",
			summary: "Strong semiconductor demand lifted exports again, supporting the economic recovery.",
			url:     "https://newsgraph.invalid/fallback/economy-exports",
		},
	},
	"securities": {
		{
			title:   "KOSPI climbs as foreign investors extend stock buying streak",
			summary: "The KOSPI index rose as foreign investment flowed into large-cap stocks led by Samsung Electronics.",
			url:     "https://newsgraph.invalid/fallback/securities-kospi",
		},
		{
			title:   "Brokerages raise earnings outlook for battery makers",
			summary: "Securities firms lifted earnings estimates for battery stocks on stronger investment demand.",
			url:     "https://newsgraph.invalid/fallback/securities-batteries",
		},
	},
}

// CannedArticles returns the fallback article set for a category,
// stamped with the given publication time so they pass the lookback
// window. Unknown categories fall back to the economy set.
func CannedArticles(category string, publishedAt time.Time) []*model.Article {
	entries, ok := cannedEntries[category]
	if !ok {
		entries = cannedEntries["economy"]
	}

	articles := make([]*model.Article, 0, len(entries))
	for _, entry := range entries {
		articles = append(articles, &model.Article{
			ID:          model.DeriveArticleID(entry.url),
			Title:       entry.title,
			Summary:     entry.summary,
			URL:         entry.url,
			Category:    category,
			PublishedAt: publishedAt,
		})
	}

	return articles
}
