package database

import (
	"database/sql"

	"github.com/pgvector/pgvector-go"
)

// RowQueryer is satisfied by *sql.DB and *sql.Tx. Handlers accept it so
// the same upsert functions run standalone or inside a batch transaction.
type RowQueryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

// nullVector scans a nullable pgvector column.
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (n *nullVector) Scan(value interface{}) error {
	if value == nil {
		n.valid = false
		return nil
	}
	n.valid = true
	return n.vec.Scan(value)
}

func (n *nullVector) slice() []float32 {
	if !n.valid {
		return nil
	}
	return n.vec.Slice()
}

// vectorParam converts an embedding to a query parameter, passing NULL
// for articles that have not been enriched yet.
func vectorParam(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}
