package database

import (
	"context"
	"database/sql"

	"newsgraph/core/graph"
	"newsgraph/helper"
	"newsgraph/model"
)

// Store is the PostgreSQL-backed graph store. All writes of one
// pipeline run go through a single transaction, so a failed run leaves
// no partially applied batch behind.
type Store struct {
	DB       *helper.Database
	Articles *ArticlesDBHandler
	Entities *EntitiesDBHandler
	Edges    *EdgesDBHandler
}

var _ graph.Store = (*Store)(nil)

// NewStore creates all database handlers in dependency order (articles
// and entities first, then edges referencing both).
func NewStore(db *helper.Database, embeddingDim int, force bool) (*Store, error) {
	articles, err := NewArticlesDBHandler(db, embeddingDim, force)
	if err != nil {
		return nil, helper.NewError("create articles handler", err)
	}

	entities, err := NewEntitiesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	edges, err := NewEdgesDBHandler(db, force)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	return &Store{
		DB:       db,
		Articles: articles,
		Entities: entities,
		Edges:    edges,
	}, nil
}

// Begin opens one transactional batch.
func (s *Store) Begin(ctx context.Context) (graph.Batch, error) {
	tx, err := s.DB.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}

	return &storeBatch{store: s, tx: tx}, nil
}

// SimilarArticles queries the similarity index for committed articles
// whose embedding meets the threshold.
func (s *Store) SimilarArticles(ctx context.Context, embedding []float32, threshold float64, limit int) ([]*model.Article, error) {
	return s.Articles.SelectArticlesBySimilarity(embedding, threshold, limit)
}

type storeBatch struct {
	store *Store
	tx    *sql.Tx
}

func (b *storeBatch) UpsertArticle(ctx context.Context, article *model.Article) (bool, error) {
	return b.store.Articles.UpsertArticle(b.tx, article)
}

func (b *storeBatch) UpsertEntity(ctx context.Context, entity *model.Entity) (bool, error) {
	return b.store.Entities.UpsertEntity(b.tx, entity)
}

func (b *storeBatch) UpsertEdge(ctx context.Context, edge *model.Edge) (bool, error) {
	return b.store.Edges.UpsertEdge(b.tx, edge)
}

func (b *storeBatch) Commit() error {
	return b.tx.Commit()
}

func (b *storeBatch) Rollback() error {
	return b.tx.Rollback()
}
