package extract

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"newsgraph/model"
)

// triggerGroup maps one relation label to the surface forms that signal
// it inside a sentence. Groups are checked in declaration order and
// every matching group contributes its relation, so a sentence can
// yield triples for more than one label.
type triggerGroup struct {
	relation model.Relation
	triggers []string
}

var triggerGroups = []triggerGroup{
	{model.RelationOwnership, []string{"acquire", "acquisition", "merger", "takeover", "stake", "subsidiary", "owns"}},
	{model.RelationInvestment, []string{"invest", "funding", "backs", "bet on", "capital injection"}},
	{model.RelationRise, []string{"rise", "rose", "surge", "jump", "gain", "climb", "rally", "soar"}},
	{model.RelationFall, []string{"fall", "fell", "drop", "decline", "plunge", "slump", "slide", "tumble"}},
	{model.RelationImpact, []string{"impact", "affect", "influence", "pressure", "weigh on", "boost", "hit by"}},
}

// Extractor turns enriched articles into entity mentions and relation
// triples. It is lexical on purpose: sentence splitting plus a trigger
// table, with the NER tagger supplying the entity arguments. Swapping in
// a model-based extractor only means replacing the TagFunc and the
// trigger matching, the output contract stays the same.
type Extractor struct {
	tag                 TagFunc
	confidenceThreshold float64
	minSentenceLength   int
	maxWorkers          int
	log                 *slog.Logger
}

// NewExtractor creates an extractor using the given entity tagger.
func NewExtractor(tag TagFunc, config model.PipelineConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	minLength := config.MinSentenceLength
	if minLength <= 0 {
		minLength = 10
	}
	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 5
	}

	return &Extractor{
		tag:                 tag,
		confidenceThreshold: config.ConfidenceThreshold,
		minSentenceLength:   minLength,
		maxWorkers:          maxWorkers,
		log:                 logger,
	}
}

type articleResult struct {
	entities []*model.Entity
	triples  []*model.Triple
}

// Extract runs entity and relation extraction over all articles. The
// articles are processed across a bounded worker pool, but results are
// collected per article index and concatenated in input order, so the
// output never depends on scheduling. A failure in one article is
// isolated: it is logged and that article contributes nothing.
func (e *Extractor) Extract(articles []*model.Article) ([]*model.Entity, []*model.Triple) {
	if e.tag == nil {
		return nil, nil
	}

	results := make([]articleResult, len(articles))

	pool, err := ants.NewPool(e.maxWorkers)
	if err != nil {
		e.log.Error("Worker pool unavailable, extracting sequentially", slog.String("error", err.Error()))
		for i, article := range articles {
			results[i] = e.extractArticle(article)
		}
	} else {
		defer pool.Release()

		var wg sync.WaitGroup
		for i, article := range articles {
			wg.Add(1)
			i, article := i, article
			submitErr := pool.Submit(func() {
				defer wg.Done()
				results[i] = e.extractArticle(article)
			})
			if submitErr != nil {
				wg.Done()
				results[i] = e.extractArticle(article)
			}
		}
		wg.Wait()
	}

	seen := map[string]bool{}
	var entities []*model.Entity
	var triples []*model.Triple
	for _, result := range results {
		for _, entity := range result.entities {
			if seen[entity.Name] {
				continue
			}
			seen[entity.Name] = true
			entities = append(entities, entity)
		}
		triples = append(triples, result.triples...)
	}

	e.log.Info("Extracted relations",
		slog.Int("articles", len(articles)),
		slog.Int("entities", len(entities)),
		slog.Int("triples", len(triples)),
	)

	return entities, triples
}

// extractArticle processes one article's sentences. Entities are unique
// by normalized name within the article; triples carry the article ID
// for provenance.
func (e *Extractor) extractArticle(article *model.Article) articleResult {
	text := article.Title
	if article.Body != "" {
		text += ". " + article.Body
	} else if article.Summary != "" {
		text += ". " + article.Summary
	}

	var result articleResult
	seen := map[string]bool{}
	tripleSeen := map[string]bool{}

	for _, sentence := range SplitSentences(text, e.minSentenceLength) {
		relations := matchRelations(sentence)

		mentions, err := e.tag(sentence)
		if err != nil {
			e.log.Warn("Entity tagging failed",
				slog.String("article_id", article.ID),
				slog.String("error", err.Error()),
			)
			return articleResult{}
		}

		for _, mention := range mentions {
			name := model.NormalizeEntityName(mention.Name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			result.entities = append(result.entities, &model.Entity{
				Name: name,
				Type: mention.Type,
				Metadata: model.Metadata{
					"confidence": mention.Confidence,
				},
			})
		}

		// Adjacent mention pairs become candidate triples, once per
		// matched relation. The pair confidence is the weaker of the
		// two mentions and must clear the configured threshold.
		for _, relation := range relations {
			for i := 0; i+1 < len(mentions); i++ {
				subject := mentions[i]
				object := mentions[i+1]

				confidence := subject.Confidence
				if object.Confidence < confidence {
					confidence = object.Confidence
				}
				if confidence < e.confidenceThreshold {
					continue
				}

				subjectName := model.NormalizeEntityName(subject.Name)
				objectName := model.NormalizeEntityName(object.Name)
				key := subjectName + "|" + string(relation) + "|" + objectName
				if tripleSeen[key] {
					continue
				}
				tripleSeen[key] = true

				result.triples = append(result.triples, &model.Triple{
					Subject:    subjectName,
					Relation:   relation,
					Object:     objectName,
					Confidence: confidence,
					ArticleID:  article.ID,
				})
			}
		}
	}

	return result
}

// SplitSentences splits text on sentence-ending punctuation and drops
// fragments shorter than minLength characters.
func SplitSentences(text string, minLength int) []string {
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")

	var sentences []string
	for _, sentence := range strings.Split(text, "|") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) >= minLength {
			sentences = append(sentences, sentence)
		}
	}

	return sentences
}

// matchRelations returns every relation signaled by the sentence, in
// trigger-table order.
func matchRelations(sentence string) []model.Relation {
	lowered := strings.ToLower(sentence)
	var relations []model.Relation
	for _, group := range triggerGroups {
		for _, trigger := range group.triggers {
			if strings.Contains(lowered, trigger) {
				relations = append(relations, group.relation)
				break
			}
		}
	}
	return relations
}
