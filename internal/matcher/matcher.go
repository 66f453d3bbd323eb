// Package matcher evaluates questionnaire answers against a recommendation
// catalog.
package matcher

import (
	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/catalog"
	"github.com/spigell/audit-recommender/internal/dataset"
)

// Match is a recommendation whose rule was satisfied.
type Match struct {
	Recommendation string       `json:"recommendation"`
	RuleID         string       `json:"rule_id,omitempty"`
	Kind           catalog.Kind `json:"kind"`
	Score          float64      `json:"score"`
	MaxWeight      float64      `json:"max_weight"`
}

// Result lists the matched recommendations in catalog order with totals over
// them.
type Result struct {
	Matches        []Match `json:"matched_recommendations"`
	MatchedCount   int     `json:"total_matched_recommendations"`
	TotalScore     float64 `json:"total_score"`
	TotalMaxWeight float64 `json:"total_max_weight"`
}

func (r *Result) add(rule catalog.Rule, c catalog.Contribution) {
	r.Matches = append(r.Matches, Match{
		Recommendation: rule.Recommendation(),
		RuleID:         rule.ID(),
		Kind:           rule.Kind(),
		Score:          c.Score,
		MaxWeight:      c.MaxWeight,
	})
	r.MatchedCount++
	r.TotalScore += c.Score
	r.TotalMaxWeight += c.MaxWeight
}

// Matcher evaluates datasets against one catalog. It holds no per-run state
// and may be shared between goroutines.
type Matcher struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func New(c *catalog.Catalog, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{catalog: c, logger: logger}
}

// Evaluate is a shortcut for New(c, nil).Evaluate(ds).
func Evaluate(ds *dataset.Dataset, c *catalog.Catalog) *Result {
	return New(c, nil).Evaluate(ds)
}

// Evaluate matches every catalog rule against the dataset. Unanswered questions
// and unusable scores never fail an evaluation; they only make rules not match
// or contribute nothing.
func (m *Matcher) Evaluate(ds *dataset.Dataset) *Result {
	idx := BuildIndex(ds, m.logger)

	result := &Result{Matches: make([]Match, 0)}
	if m.catalog == nil {
		return result
	}

	for _, rule := range m.catalog.Rules() {
		contribution, ok := rule.Evaluate(idx)
		if !ok {
			continue
		}

		m.logger.Debug("recommendation matched",
			zap.String("recommendation", rule.Recommendation()),
			zap.String("kind", string(rule.Kind())),
			zap.Float64("score", contribution.Score),
			zap.Float64("max_weight", contribution.MaxWeight),
		)

		result.add(rule, contribution)
	}

	m.logger.Info("recommendations evaluated",
		zap.Int("rows", ds.Len()),
		zap.Int("questions", idx.Len()),
		zap.Int("duplicate_questions", len(idx.Duplicates())),
		zap.Int("rules", m.catalog.Len()),
		zap.Int("matched", result.MatchedCount),
		zap.Float64("total_score", result.TotalScore),
		zap.Float64("total_max_weight", result.TotalMaxWeight),
	)

	return result
}
