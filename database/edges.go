package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"newsgraph/helper"
	"newsgraph/model"
	loadSql "newsgraph/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	UpsertEdge(q RowQueryer, edge *model.Edge) (bool, error)
	SelectEdge(id uuid.UUID) (*model.Edge, error)
	SelectEdgesFromArticle(articleID string, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesFromEntity(entityID int64, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesByType(edgeType model.EdgeType, limit int) ([]*model.Edge, error)
	DeleteEdge(id uuid.UUID) error
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It loads edge-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table, the edge_type enum and all
// necessary indexes if they do not exist yet.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		return helper.NewError("initialize edges table", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// UpsertEdge creates the edge or refreshes the existing one for the
// same (source, target, type). The stored weight never decreases: a
// strictly lower incoming weight is ignored for that edge, equal or
// higher weights overwrite and refresh updated_at. Returns true when a
// new row was created.
func (h *EdgesDBHandler) UpsertEdge(q RowQueryer, edge *model.Edge) (bool, error) {
	if q == nil {
		q = h.db.Instance
	}

	row := q.QueryRow(
		`SELECT * FROM upsert_edge($1, $2, $3, $4, $5, $6, $7)`,
		edge.SourceArticleID,
		edge.TargetArticleID,
		edge.SourceEntityID,
		edge.TargetEntityID,
		edge.EdgeType,
		edge.Weight,
		edge.Metadata,
	)

	var inserted bool
	err := scanEdgeRow(row, edge, &inserted)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return inserted, nil
}

// SelectEdge retrieves an edge by ID
func (h *EdgesDBHandler) SelectEdge(id uuid.UUID) (*model.Edge, error) {
	edge := &model.Edge{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_edge($1)`,
		id,
	)

	err := scanEdgeRow(row, edge, nil)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return edge, nil
}

// SelectEdgesFromArticle retrieves edges whose source is the article
func (h *EdgesDBHandler) SelectEdgesFromArticle(articleID string, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_from_article($1, $2)`,
		articleID,
		edgeTypeParam(edgeType),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesFromEntity retrieves edges whose source is the entity
func (h *EdgesDBHandler) SelectEdgesFromEntity(entityID int64, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_from_entity($1, $2)`,
		entityID,
		edgeTypeParam(edgeType),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesByType retrieves edges of a type ordered by weight
func (h *EdgesDBHandler) SelectEdgesByType(edgeType model.EdgeType, limit int) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_by_type($1, $2)`,
		string(edgeType),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// DeleteEdge deletes an edge by ID
func (h *EdgesDBHandler) DeleteEdge(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_edge($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func edgeTypeParam(edgeType *model.EdgeType) interface{} {
	if edgeType == nil {
		return nil
	}
	return string(*edgeType)
}

func scanEdgeRow(row *sql.Row, edge *model.Edge, inserted *bool) error {
	dest := []interface{}{
		&edge.ID,
		&edge.SourceArticleID,
		&edge.TargetArticleID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.EdgeType,
		&edge.Weight,
		&edge.Metadata,
		&edge.CreatedAt,
		&edge.UpdatedAt,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}

	return row.Scan(dest...)
}

func scanEdges(rows *sql.Rows) ([]*model.Edge, error) {
	var edges []*model.Edge
	for rows.Next() {
		edge := &model.Edge{}
		err := rows.Scan(
			&edge.ID,
			&edge.SourceArticleID,
			&edge.TargetArticleID,
			&edge.SourceEntityID,
			&edge.TargetEntityID,
			&edge.EdgeType,
			&edge.Weight,
			&edge.Metadata,
			&edge.CreatedAt,
			&edge.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}
