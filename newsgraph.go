package newsgraph

import (
	"context"
	"log/slog"
	"os"

	"newsgraph/core/collect"
	"newsgraph/core/enrich"
	"newsgraph/core/extract"
	"newsgraph/core/filter"
	"newsgraph/core/graph"
	"newsgraph/core/schedule"
	"newsgraph/database"
	"newsgraph/helper"
	"newsgraph/model"
	loadSql "newsgraph/sql"
)

// Newsgraph wires the ingestion pipeline onto a graph store
type Newsgraph struct {
	DB     *helper.Database
	Store  graph.Store
	Config model.PipelineConfig
	// Model-backed stage functions, optional until set
	Embedder enrich.EmbedBatchFunc
	Tagger   extract.TagFunc
	// Logging
	log    *slog.Logger
	runner *schedule.Runner
}

// New creates a Newsgraph instance backed by PostgreSQL, initializing
// all database handlers
func New(dbConfig *helper.DatabaseConfiguration, config model.PipelineConfig) (*Newsgraph, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("newsgraph", dbConfig, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	store, err := database.NewStore(db, config.EmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create graph store", err)
	}

	return &Newsgraph{
		DB:     db,
		Store:  store,
		Config: config,
		log:    logger,
	}, nil
}

// NewWithStore creates a Newsgraph instance over an existing store.
// Used with the in-memory store for tests and local runs without
// PostgreSQL.
func NewWithStore(store graph.Store, config model.PipelineConfig, logger *slog.Logger) *Newsgraph {
	if logger == nil {
		opts := helper.PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level: slog.LevelInfo,
			},
		}
		logger = slog.New(helper.NewPrettyHandler(os.Stdout, opts))
	}

	return &Newsgraph{
		Store:  store,
		Config: config,
		log:    logger,
	}
}

// UseDefaultModels loads the default embedding and NER models.
// This uses DefaultEmbedder with the all-MiniLM-L6-v2 model (384
// dimensions) and DefaultTagger with the distilbert-NER model.
func (n *Newsgraph) UseDefaultModels() error {
	embedder, err := enrich.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	tagger, err := extract.DefaultTagger()
	if err != nil {
		return helper.NewError("create default tagger", err)
	}

	n.SetEmbedder(embedder)
	n.SetTagger(tagger)
	return nil
}

// SetEmbedder sets the embedding function used during enrichment
func (n *Newsgraph) SetEmbedder(embedder enrich.EmbedBatchFunc) {
	n.Embedder = embedder
	n.runner = nil
}

// SetTagger sets the entity tagging function used during extraction
func (n *Newsgraph) SetTagger(tagger extract.TagFunc) {
	n.Tagger = tagger
	n.runner = nil
}

// Runner returns the composed pipeline runner, building it on first use
// so model functions can be set beforehand.
func (n *Newsgraph) Runner() *schedule.Runner {
	if n.runner == nil {
		collector := collect.NewCollector(n.Config.Feeds, n.Config.HTTPTimeout, n.log)
		scorer := filter.NewScorer(n.Config, n.log)
		enricher := enrich.NewEnricher(n.Embedder, n.Config, n.log)
		extractor := extract.NewExtractor(n.Tagger, n.Config, n.log)
		upserter := graph.NewUpserter(n.Store, n.Config, n.log)

		n.runner = schedule.NewRunner(collector, scorer, enricher, extractor, upserter, n.Config, n.log)
	}

	return n.runner
}

// RunOnce executes one pipeline run over the lookback window.
func (n *Newsgraph) RunOnce(ctx context.Context, lookbackDays int) (*model.RunSummary, error) {
	return n.Runner().RunOnce(ctx, lookbackDays)
}

// Schedule starts the daily scheduled run at the given hour and minute.
func (n *Newsgraph) Schedule(hour, minute int) error {
	return n.Runner().Schedule(hour, minute)
}

// Stop stops the scheduler, letting an in-flight run finish.
func (n *Newsgraph) Stop() {
	if n.runner != nil {
		n.runner.Stop()
	}
}

// Close stops the scheduler and closes the database connection
func (n *Newsgraph) Close() error {
	n.Stop()
	if n.DB != nil && n.DB.Instance != nil {
		return n.DB.Instance.Close()
	}
	return nil
}
