package graph

import (
	"context"
	"errors"

	"newsgraph/model"
)

// ErrStoreFailure marks graph-store connection or transaction failures.
// They are fatal to the current run and surfaced in the run summary;
// the next scheduled invocation retries.
var ErrStoreFailure = errors.New("graph store failure")

// Store is the graph store capability the upserter depends on. The
// composition root decides whether a PostgreSQL-backed or in-memory
// implementation is wired in, which keeps the store-unavailable path a
// normal, testable branch.
type Store interface {
	// Begin opens one transactional batch. Either every upsert in the
	// batch commits, or none of them are visible.
	Begin(ctx context.Context) (Batch, error)
	// SimilarArticles returns stored articles whose embedding cosine
	// similarity to the given embedding meets the threshold.
	SimilarArticles(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*model.Article, error)
}

// Batch is one transactional unit of work. Upserts report whether a new
// row was created so the upserter can count created vs updated.
type Batch interface {
	UpsertArticle(ctx context.Context, article *model.Article) (created bool, err error)
	UpsertEntity(ctx context.Context, entity *model.Entity) (created bool, err error)
	UpsertEdge(ctx context.Context, edge *model.Edge) (created bool, err error)
	Commit() error
	Rollback() error
}
