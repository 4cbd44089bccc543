package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"newsgraph/helper"
	"newsgraph/model"
)

// SimilarPair is a pair of article IDs whose embeddings are similar.
// Source sorts before Target so symmetric duplicates cannot occur.
type SimilarPair struct {
	Source string
	Target string
	Score  float64
}

// SimilarityStrategy produces the similarity edges for one batch of
// articles. The pairwise strategy is the default; a store-backed
// candidate query can be plugged in instead when batch sizes grow.
type SimilarityStrategy func(ctx context.Context, articles []*model.Article) ([]SimilarPair, error)

// Result reports created vs updated counts for one committed batch.
type Result struct {
	NewArticles     int
	UpdatedArticles int
	NewEntities     int
	UpdatedEntities int
	NewEdges        int
	UpdatedEdges    int
}

// Upserter merges articles and extracted triples into the graph store
// under idempotent, confidence-aware update rules, then derives
// secondary relationships (similarity, co-category, keyword mention).
type Upserter struct {
	store               Store
	similarity          SimilarityStrategy
	similarityThreshold float64
	watchlist           []string
	log                 *slog.Logger
}

// NewUpserter creates an upserter over the given store.
func NewUpserter(store Store, config model.PipelineConfig, logger *slog.Logger) *Upserter {
	if logger == nil {
		logger = slog.Default()
	}

	u := &Upserter{
		store:               store,
		similarityThreshold: config.SimilarityThreshold,
		watchlist:           config.Watchlist,
		log:                 logger,
	}
	u.similarity = PairwiseSimilarity(config.SimilarityThreshold)

	return u
}

// SetSimilarityStrategy replaces the default pairwise similarity strategy.
func (u *Upserter) SetSimilarityStrategy(strategy SimilarityStrategy) {
	if strategy != nil {
		u.similarity = strategy
	}
}

// Upsert commits one transactional batch of node and edge upserts.
// Articles are processed in identity-key order so completion order of
// upstream stages never affects the merge outcome. On any store error
// the batch is rolled back and the run reported as failed.
func (u *Upserter) Upsert(ctx context.Context, articles []*model.Article, triples []*model.Triple) (*Result, error) {
	batch, err := u.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	result, err := u.upsertAll(ctx, batch, articles, triples)
	if err != nil {
		if rbErr := batch.Rollback(); rbErr != nil {
			u.log.Error("Rollback failed", slog.String("error", rbErr.Error()))
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	u.log.Info("Committed graph batch",
		slog.Int("new_articles", result.NewArticles),
		slog.Int("updated_articles", result.UpdatedArticles),
		slog.Int("new_entities", result.NewEntities),
		slog.Int("new_edges", result.NewEdges),
	)

	return result, nil
}

func (u *Upserter) upsertAll(ctx context.Context, batch Batch, articles []*model.Article, triples []*model.Triple) (*Result, error) {
	result := &Result{}

	ordered := make([]*model.Article, len(articles))
	copy(ordered, articles)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, article := range ordered {
		created, err := batch.UpsertArticle(ctx, article)
		if err != nil {
			return nil, helper.NewError("upsert article", err)
		}
		if created {
			result.NewArticles++
		} else {
			result.UpdatedArticles++
		}
	}

	// Entities are shared across triples; upsert each name once so the
	// created count matches the number of distinct new nodes.
	entities := map[string]*model.Entity{}
	upsertEntity := func(name string, entityType string) (*model.Entity, error) {
		key := model.NormalizeEntityName(name)
		if entity, ok := entities[key]; ok {
			// A later reference may carry a type the first one lacked.
			// The store refuses to downgrade a non-empty type, so
			// re-upserting is safe.
			if entityType == "" || entity.Type == entityType {
				return entity, nil
			}
			entity.Type = entityType
			if _, err := batch.UpsertEntity(ctx, entity); err != nil {
				return nil, err
			}
			return entity, nil
		}

		entity := &model.Entity{Name: key, Type: entityType}
		created, err := batch.UpsertEntity(ctx, entity)
		if err != nil {
			return nil, err
		}
		if created {
			result.NewEntities++
		} else {
			result.UpdatedEntities++
		}

		entities[key] = entity
		return entity, nil
	}

	for _, triple := range triples {
		subject, err := upsertEntity(triple.Subject, "")
		if err != nil {
			return nil, helper.NewError("upsert subject entity", err)
		}
		object, err := upsertEntity(triple.Object, "")
		if err != nil {
			return nil, helper.NewError("upsert object entity", err)
		}

		edge := &model.Edge{
			SourceEntityID: &subject.ID,
			TargetEntityID: &object.ID,
			EdgeType:       model.EdgeTypeForRelation(triple.Relation),
			Weight:         triple.Confidence,
			Metadata:       model.Metadata{"article_id": triple.ArticleID},
		}
		if err := u.countEdge(ctx, batch, edge, result); err != nil {
			return nil, helper.NewError("upsert relation edge", err)
		}
	}

	if err := u.deriveSimilarityEdges(ctx, batch, ordered, result); err != nil {
		return nil, err
	}
	if err := u.deriveCategoryEdges(ctx, batch, ordered, result); err != nil {
		return nil, err
	}
	if err := u.deriveMentionEdges(ctx, batch, ordered, upsertEntity, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (u *Upserter) countEdge(ctx context.Context, batch Batch, edge *model.Edge, result *Result) error {
	created, err := batch.UpsertEdge(ctx, edge)
	if err != nil {
		return err
	}
	if created {
		result.NewEdges++
	} else {
		result.UpdatedEdges++
	}
	return nil
}

func (u *Upserter) deriveSimilarityEdges(ctx context.Context, batch Batch, articles []*model.Article, result *Result) error {
	pairs, err := u.similarity(ctx, articles)
	if err != nil {
		return helper.NewError("similarity strategy", err)
	}

	for _, pair := range pairs {
		source, target := pair.Source, pair.Target
		edge := &model.Edge{
			SourceArticleID: &source,
			TargetArticleID: &target,
			EdgeType:        model.EdgeTypeSimilarTo,
			Weight:          pair.Score,
		}
		if err := u.countEdge(ctx, batch, edge, result); err != nil {
			return helper.NewError("upsert similarity edge", err)
		}
	}

	return nil
}

func (u *Upserter) deriveCategoryEdges(ctx context.Context, batch Batch, articles []*model.Article, result *Result) error {
	byCategory := map[string][]*model.Article{}
	for _, article := range articles {
		if article.Category != "" {
			byCategory[article.Category] = append(byCategory[article.Category], article)
		}
	}

	for category, group := range byCategory {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				source, target := group[i].ID, group[j].ID
				edge := &model.Edge{
					SourceArticleID: &source,
					TargetArticleID: &target,
					EdgeType:        model.EdgeTypeSameCategory,
					Weight:          1.0,
					Metadata:        model.Metadata{"category": category},
				}
				if err := u.countEdge(ctx, batch, edge, result); err != nil {
					return helper.NewError("upsert category edge", err)
				}
			}
		}
	}

	return nil
}

func (u *Upserter) deriveMentionEdges(
	ctx context.Context,
	batch Batch,
	articles []*model.Article,
	upsertEntity func(name string, entityType string) (*model.Entity, error),
	result *Result,
) error {
	for _, article := range articles {
		text := strings.ToLower(article.Title + " " + article.Summary)
		for _, term := range u.watchlist {
			if !strings.Contains(text, strings.ToLower(term)) {
				continue
			}

			entity, err := upsertEntity(term, "watchlist")
			if err != nil {
				return helper.NewError("upsert watchlist entity", err)
			}

			source := article.ID
			edge := &model.Edge{
				SourceArticleID: &source,
				TargetEntityID:  &entity.ID,
				EdgeType:        model.EdgeTypeMentions,
				Weight:          1.0,
				Metadata:        model.Metadata{"term": term},
			}
			if err := u.countEdge(ctx, batch, edge, result); err != nil {
				return helper.NewError("upsert mention edge", err)
			}
		}
	}

	return nil
}

// PairwiseSimilarity compares every article pair in the batch once,
// ordered by identity key. Quadratic in batch size, acceptable at the
// expected batch sizes of a daily feed run.
func PairwiseSimilarity(threshold float64) SimilarityStrategy {
	return func(ctx context.Context, articles []*model.Article) ([]SimilarPair, error) {
		var pairs []SimilarPair
		for i := 0; i < len(articles); i++ {
			if len(articles[i].Embedding) == 0 {
				continue
			}
			for j := i + 1; j < len(articles); j++ {
				if len(articles[j].Embedding) == 0 {
					continue
				}
				score := CosineSimilarity(articles[i].Embedding, articles[j].Embedding)
				if score >= threshold {
					source, target := articles[i].ID, articles[j].ID
					if source > target {
						source, target = target, source
					}
					pairs = append(pairs, SimilarPair{Source: source, Target: target, Score: score})
				}
			}
		}
		return pairs, nil
	}
}

// StoreCandidateSimilarity queries the store's similarity index for
// candidates instead of comparing all pairs. Candidates are limited to
// articles already committed in previous runs.
func StoreCandidateSimilarity(store Store, threshold float64, limit int) SimilarityStrategy {
	return func(ctx context.Context, articles []*model.Article) ([]SimilarPair, error) {
		seen := map[string]bool{}
		var pairs []SimilarPair

		for _, article := range articles {
			if len(article.Embedding) == 0 {
				continue
			}

			candidates, err := store.SimilarArticles(ctx, article.Embedding, threshold, limit)
			if err != nil {
				return nil, err
			}

			for _, candidate := range candidates {
				if candidate.ID == article.ID {
					continue
				}
				source, target := article.ID, candidate.ID
				if source > target {
					source, target = target, source
				}
				key := source + "|" + target
				if seen[key] {
					continue
				}
				seen[key] = true
				pairs = append(pairs, SimilarPair{
					Source: source,
					Target: target,
					Score:  CosineSimilarity(article.Embedding, candidate.Embedding),
				})
			}
		}

		return pairs, nil
	}
}
