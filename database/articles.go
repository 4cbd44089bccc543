package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"newsgraph/helper"
	"newsgraph/model"
	loadSql "newsgraph/sql"
)

// ArticlesDBHandlerFunctions defines the interface for Articles database operations.
type ArticlesDBHandlerFunctions interface {
	UpsertArticle(q RowQueryer, article *model.Article) (bool, error)
	SelectArticle(id string) (*model.Article, error)
	SelectAllArticles(limit int) ([]*model.Article, error)
	SelectArticlesBySimilarity(embedding []float32, threshold float64, limit int) ([]*model.Article, error)
	CountArticles() (int64, error)
	DeleteArticle(id string) error
}

// ArticlesDBHandler handles article-related database operations
type ArticlesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewArticlesDBHandler creates a new articles database handler.
// It loads the article-related SQL functions and creates the table with
// the configured embedding dimension. If force is true, the SQL
// functions are reloaded even if they already exist.
func NewArticlesDBHandler(db *helper.Database, embeddingDim int, force bool) (*ArticlesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	articlesDbHandler := &ArticlesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadArticlesSql(articlesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load articles sql", err)
	}

	err = articlesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ArticlesDBHandler")

	return articlesDbHandler, nil
}

// CreateTable creates the 'articles' table with its indexes if it does
// not exist yet.
func (h *ArticlesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_articles($1);`, h.embeddingDim)
	if err != nil {
		return helper.NewError("initialize articles table", err)
	}

	h.db.Logger.Info("Checked/created table articles")

	return nil
}

// UpsertArticle creates the article or refreshes its content-bearing
// fields by identity key. Returns true when a new row was created.
func (h *ArticlesDBHandler) UpsertArticle(q RowQueryer, article *model.Article) (bool, error) {
	if q == nil {
		q = h.db.Instance
	}

	row := q.QueryRow(
		`SELECT * FROM upsert_article($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		article.ID,
		article.Title,
		article.Summary,
		article.Body,
		article.URL,
		article.Category,
		article.PublishedAt,
		article.RelevanceScore,
		vectorParam(article.Embedding),
		article.Metadata,
	)

	var inserted bool
	err := scanArticle(row, article, &inserted)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return inserted, nil
}

// SelectArticle retrieves an article by ID
func (h *ArticlesDBHandler) SelectArticle(id string) (*model.Article, error) {
	article := &model.Article{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_article($1)`,
		id,
	)

	err := scanArticle(row, article, nil)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return article, nil
}

// SelectAllArticles retrieves articles ordered by publication time
func (h *ArticlesDBHandler) SelectAllArticles(limit int) ([]*model.Article, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_articles($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanArticles(rows, false)
}

// SelectArticlesBySimilarity retrieves articles whose embedding cosine
// similarity to the given embedding is at or above the threshold.
func (h *ArticlesDBHandler) SelectArticlesBySimilarity(embedding []float32, threshold float64, limit int) ([]*model.Article, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_articles_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		threshold,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanArticles(rows, true)
}

// CountArticles returns the number of stored articles
func (h *ArticlesDBHandler) CountArticles() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_articles()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteArticle deletes an article by ID
func (h *ArticlesDBHandler) DeleteArticle(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_article($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanArticle(row *sql.Row, article *model.Article, inserted *bool) error {
	var embedding nullVector
	var publishedAt sql.NullTime

	dest := []interface{}{
		&article.ID,
		&article.Title,
		&article.Summary,
		&article.Body,
		&article.URL,
		&article.Category,
		&publishedAt,
		&article.RelevanceScore,
		&embedding,
		&article.Metadata,
		&article.CreatedAt,
		&article.UpdatedAt,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	article.PublishedAt = publishedAt.Time
	article.Embedding = embedding.slice()

	return nil
}

func scanArticles(rows *sql.Rows, withSimilarity bool) ([]*model.Article, error) {
	var articles []*model.Article
	for rows.Next() {
		article := &model.Article{}
		var embedding nullVector
		var publishedAt sql.NullTime
		var similarity float64

		dest := []interface{}{
			&article.ID,
			&article.Title,
			&article.Summary,
			&article.Body,
			&article.URL,
			&article.Category,
			&publishedAt,
			&article.RelevanceScore,
			&embedding,
			&article.Metadata,
			&article.CreatedAt,
			&article.UpdatedAt,
		}
		if withSimilarity {
			dest = append(dest, &similarity)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, helper.NewError("scan", err)
		}

		article.PublishedAt = publishedAt.Time
		article.Embedding = embedding.slice()
		if withSimilarity {
			if article.Metadata == nil {
				article.Metadata = model.Metadata{}
			}
			article.Metadata["similarity"] = similarity
		}

		articles = append(articles, article)
	}

	return articles, rows.Err()
}
