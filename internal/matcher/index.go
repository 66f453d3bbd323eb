package matcher

import (
	"math"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/catalog"
	"github.com/spigell/audit-recommender/internal/dataset"
	"github.com/spigell/audit-recommender/internal/normalize"
)

// Index maps normalized questions to their answers for one evaluation.
type Index struct {
	entries    map[string]catalog.Answer
	duplicates []string
}

// BuildIndex indexes dataset rows by normalized question. When several rows
// share a question the last one wins; the overwritten keys are kept in
// Duplicates.
func BuildIndex(ds *dataset.Dataset, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}

	idx := &Index{entries: make(map[string]catalog.Answer, ds.Len())}
	if ds == nil {
		return idx
	}

	for i, row := range ds.Rows {
		key := normalize.Question(row.Question)
		if _, ok := idx.entries[key]; ok {
			idx.duplicates = append(idx.duplicates, key)
			logger.Warn("duplicate question in dataset, keeping the later row",
				zap.String("question", key),
				zap.Int("row", i+1),
			)
		}

		idx.entries[key] = catalog.Answer{
			Value:     normalize.Answer(row.Answer),
			Score:     number(row.Score),
			MaxWeight: number(row.MaxWeight),
		}
	}

	return idx
}

// Lookup implements catalog.Answers.
func (i *Index) Lookup(question string) (catalog.Answer, bool) {
	a, ok := i.entries[question]
	return a, ok
}

func (i *Index) Len() int { return len(i.entries) }

// Duplicates returns the questions that appeared more than once, once per
// overwrite.
func (i *Index) Duplicates() []string {
	return append([]string(nil), i.duplicates...)
}

// number coerces a score cell. Absent, non-numeric, NaN and negative values
// are all 0.
func number(v any) float64 {
	if v == nil {
		return 0
	}

	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) {
		return 0
	}

	return math.Max(0, f)
}
