package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/panjf2000/ants/v2"

	"newsgraph/model"
)

// EmbedBatchFunc generates one embedding per input text. It must be
// deterministic: identical text always yields an identical vector.
type EmbedBatchFunc func(texts []string) ([][]float32, error)

const (
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	minContentLength = 200
)

// contentSelectors are tried in priority order when extracting the
// article body from fetched HTML.
var contentSelectors = []string{
	"article",
	"#newsct_article",
	"#articleBody",
	".article-body",
	".news_end",
	"#dic_area",
}

// Enricher fetches full article bodies and generates embedding vectors.
// Fetch failures leave the body unset; the article proceeds through the
// pipeline either way.
type Enricher struct {
	client     *http.Client
	embedBatch EmbedBatchFunc
	batchSize  int
	bodyCap    int
	maxWorkers int
	log        *slog.Logger
}

// NewEnricher creates an enricher using the given embedding function.
func NewEnricher(embedBatch EmbedBatchFunc, config model.PipelineConfig, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}

	batchSize := config.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 16
	}
	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	timeout := config.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Enricher{
		client:     &http.Client{Timeout: timeout},
		embedBatch: embedBatch,
		batchSize:  batchSize,
		bodyCap:    config.BodyCharLimit,
		maxWorkers: maxWorkers,
		log:        logger,
	}
}

// Enrich fetches missing bodies across a bounded worker pool, then
// generates embeddings in batches. Results are assigned by article
// index, so completion order of the fetches never affects the outcome.
func (e *Enricher) Enrich(ctx context.Context, articles []*model.Article) []*model.Article {
	e.fetchBodies(ctx, articles)
	e.embedArticles(articles)
	return articles
}

func (e *Enricher) fetchBodies(ctx context.Context, articles []*model.Article) {
	pool, err := ants.NewPool(e.maxWorkers)
	if err != nil {
		e.log.Error("Worker pool unavailable, fetching sequentially", slog.String("error", err.Error()))
		e.fetchMissingSequential(ctx, articles)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, article := range articles {
		if article.Body != "" {
			continue
		}

		wg.Add(1)
		article := article
		submitErr := pool.Submit(func() {
			defer wg.Done()
			e.fetchBody(ctx, article)
		})
		if submitErr != nil {
			wg.Done()
			e.fetchBody(ctx, article)
		}
	}
	wg.Wait()
}

// fetchMissingSequential is the fallback when no worker pool is
// available. Like the pooled path, it only fetches articles whose body
// is still empty.
func (e *Enricher) fetchMissingSequential(ctx context.Context, articles []*model.Article) {
	for _, article := range articles {
		if article.Body != "" {
			continue
		}
		e.fetchBody(ctx, article)
	}
}

// fetchBody fetches and extracts the article text. Any failure is
// isolated: the body stays empty and the article is not dropped.
func (e *Enricher) fetchBody(ctx context.Context, article *model.Article) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, article.URL, nil)
	if err != nil {
		e.log.Warn("Invalid article URL", slog.String("url", article.URL), slog.String("error", err.Error()))
		return
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.Warn("Article fetch failed", slog.String("url", article.URL), slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.log.Warn("Article fetch returned non-200",
			slog.String("url", article.URL),
			slog.Int("status", resp.StatusCode),
		)
		return
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		e.log.Warn("Article HTML unparseable", slog.String("url", article.URL), slog.String("error", err.Error()))
		return
	}

	article.Body = ExtractContent(doc)
	if article.Body == "" {
		e.log.Warn("Article content insufficient", slog.String("url", article.URL))
	}
}

// ExtractContent extracts the main text from an article page. It tries
// the content-region selectors in priority order, falls back to all
// paragraph text, and as a last resort includes block-level container
// text.
func ExtractContent(doc *goquery.Document) string {
	for _, selector := range contentSelectors {
		text := normalizeText(doc.Find(selector).Text())
		if len(text) >= minContentLength {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := normalizeText(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	text := strings.Join(paragraphs, " ")
	if len(text) >= minContentLength {
		return text
	}

	doc.Find("div").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		if blockText := normalizeText(s.Text()); blockText != "" {
			paragraphs = append(paragraphs, blockText)
		}
	})

	return strings.Join(paragraphs, " ")
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// embedArticles generates embeddings for all articles in fixed-size
// batches. A failed batch is logged and skipped; its articles proceed
// without an embedding.
func (e *Enricher) embedArticles(articles []*model.Article) {
	if e.embedBatch == nil {
		return
	}

	for start := 0; start < len(articles); start += e.batchSize {
		end := start + e.batchSize
		if end > len(articles) {
			end = len(articles)
		}
		batch := articles[start:end]

		texts := make([]string, len(batch))
		for i, article := range batch {
			texts[i] = article.EmbeddingText(e.bodyCap)
		}

		embeddings, err := e.embedBatch(texts)
		if err != nil {
			e.log.Error("Embedding batch failed",
				slog.Int("batch_start", start),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(embeddings) != len(batch) {
			e.log.Error("Embedding batch size mismatch",
				slog.String("error", fmt.Sprintf("expected %d embeddings, got %d", len(batch), len(embeddings))),
			)
			continue
		}

		for i, embedding := range embeddings {
			batch[i].Embedding = embedding
		}
	}
}
