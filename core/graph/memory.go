package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsgraph/model"
)

// ErrBatchClosed is returned when a batch is used after commit/rollback.
var ErrBatchClosed = errors.New("batch already closed")

// MemoryStore is an in-memory Store used in tests and as the no-op
// wiring when no graph database is configured. Batches stage their
// writes and apply them atomically on commit, matching the
// all-or-nothing semantics of the PostgreSQL store.
type MemoryStore struct {
	mu       sync.Mutex
	articles map[string]*model.Article
	entities map[string]*model.Entity
	edges    map[string]*model.Edge
	nextID   int64

	// failAfter injects a store error on the nth upsert of a batch
	// (1-based); zero disables injection.
	failAfter int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles: map[string]*model.Article{},
		entities: map[string]*model.Entity{},
		edges:    map[string]*model.Edge{},
	}
}

// FailAfter makes every subsequent batch fail on its nth upsert.
// Used to exercise the batch-atomicity failure path.
func (s *MemoryStore) FailAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = n
}

// Begin opens a staging batch.
func (s *MemoryStore) Begin(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return &memoryBatch{
		store:     s,
		articles:  map[string]*model.Article{},
		entities:  map[string]*model.Entity{},
		edges:     map[string]*model.Edge{},
		failAfter: s.failAfter,
	}, nil
}

// SimilarArticles computes cosine similarity against all stored articles.
func (s *MemoryStore) SimilarArticles(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*model.Article
	for _, article := range s.articles {
		if len(article.Embedding) == 0 {
			continue
		}
		if CosineSimilarity(embedding, article.Embedding) >= threshold {
			copied := *article
			matches = append(matches, &copied)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return CosineSimilarity(embedding, matches[i].Embedding) > CosineSimilarity(embedding, matches[j].Embedding)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Article returns a copy of the stored article, or nil.
func (s *MemoryStore) Article(id string) *model.Article {
	s.mu.Lock()
	defer s.mu.Unlock()

	article, ok := s.articles[id]
	if !ok {
		return nil
	}
	copied := *article
	return &copied
}

// Entity returns a copy of the stored entity by normalized name, or nil.
func (s *MemoryStore) Entity(name string) *model.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entities[model.NormalizeEntityName(name)]
	if !ok {
		return nil
	}
	copied := *entity
	return &copied
}

// Edge returns a copy of the stored edge for (source, target, type), or nil.
func (s *MemoryStore) Edge(edge *model.Edge) *model.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.edges[edgeKey(edge)]
	if !ok {
		return nil
	}
	copied := *stored
	return &copied
}

// Counts returns the number of stored articles, entities and edges.
func (s *MemoryStore) Counts() (articles, entities, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.articles), len(s.entities), len(s.edges)
}

type memoryBatch struct {
	store     *MemoryStore
	articles  map[string]*model.Article
	entities  map[string]*model.Entity
	edges     map[string]*model.Edge
	ops       int
	failAfter int
	closed    bool
}

func (b *memoryBatch) step() error {
	if b.closed {
		return ErrBatchClosed
	}
	b.ops++
	if b.failAfter > 0 && b.ops >= b.failAfter {
		return fmt.Errorf("injected store failure on write %d", b.ops)
	}
	return nil
}

func (b *memoryBatch) UpsertArticle(ctx context.Context, article *model.Article) (bool, error) {
	if err := b.step(); err != nil {
		return false, err
	}

	b.store.mu.Lock()
	existing, existed := b.store.articles[article.ID]
	b.store.mu.Unlock()
	if staged, ok := b.articles[article.ID]; ok {
		existing, existed = staged, true
	}

	now := time.Now().UTC()
	copied := *article
	copied.UpdatedAt = now
	if existed {
		// Merge semantics of upsert_article: creation time, a stored
		// body and a stored embedding survive an update that does not
		// carry them.
		copied.CreatedAt = existing.CreatedAt
		if copied.Body == "" {
			copied.Body = existing.Body
		}
		if len(copied.Embedding) == 0 {
			copied.Embedding = existing.Embedding
		}
	} else {
		copied.CreatedAt = now
	}
	b.articles[article.ID] = &copied

	return !existed, nil
}

func (b *memoryBatch) UpsertEntity(ctx context.Context, entity *model.Entity) (bool, error) {
	if err := b.step(); err != nil {
		return false, err
	}

	key := model.NormalizeEntityName(entity.Name)
	entity.Name = key

	if staged, ok := b.entities[key]; ok {
		// An empty stored type is filled in by a later typed
		// reference, a non-empty one is never downgraded.
		if staged.Type == "" {
			staged.Type = entity.Type
		}
		entity.ID = staged.ID
		entity.Type = staged.Type
		entity.CreatedAt = staged.CreatedAt
		return false, nil
	}

	b.store.mu.Lock()
	existing, existed := b.store.entities[key]
	if existed {
		entity.ID = existing.ID
		entity.CreatedAt = existing.CreatedAt
		if existing.Type != "" {
			entity.Type = existing.Type
		}
	} else {
		b.store.nextID++
		entity.ID = b.store.nextID
		entity.CreatedAt = time.Now().UTC()
	}
	b.store.mu.Unlock()

	copied := *entity
	b.entities[key] = &copied

	return !existed, nil
}

func (b *memoryBatch) UpsertEdge(ctx context.Context, edge *model.Edge) (bool, error) {
	if err := b.step(); err != nil {
		return false, err
	}

	key := edgeKey(edge)

	b.store.mu.Lock()
	existing, existed := b.store.edges[key]
	b.store.mu.Unlock()
	if staged, ok := b.edges[key]; ok {
		existing, existed = staged, true
	}

	now := time.Now().UTC()
	if !existed {
		copied := *edge
		copied.ID = uuid.New()
		copied.CreatedAt = now
		copied.UpdatedAt = now
		b.edges[key] = &copied
		edge.ID = copied.ID
		edge.Weight = copied.Weight
		return true, nil
	}

	// Confidence non-regression: strictly lower weights are ignored,
	// equal or higher weights overwrite and refresh updated_at.
	copied := *existing
	if edge.Weight >= existing.Weight {
		copied.Weight = edge.Weight
		copied.Metadata = edge.Metadata
		copied.UpdatedAt = now
	}
	b.edges[key] = &copied
	edge.ID = copied.ID
	edge.Weight = copied.Weight

	return false, nil
}

func (b *memoryBatch) Commit() error {
	if b.closed {
		return ErrBatchClosed
	}
	b.closed = true

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for id, article := range b.articles {
		b.store.articles[id] = article
	}
	for name, entity := range b.entities {
		b.store.entities[name] = entity
	}
	for key, edge := range b.edges {
		b.store.edges[key] = edge
	}

	return nil
}

func (b *memoryBatch) Rollback() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.articles = nil
	b.entities = nil
	b.edges = nil
	return nil
}

func edgeKey(edge *model.Edge) string {
	str := func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	}
	num := func(n *int64) string {
		if n == nil {
			return "-"
		}
		return fmt.Sprintf("%d", *n)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s",
		str(edge.SourceArticleID), str(edge.TargetArticleID),
		num(edge.SourceEntityID), num(edge.TargetEntityID), edge.EdgeType)
}
