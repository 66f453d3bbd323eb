package analysis

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/dataset"
)

// Responses converts dataset rows into advisor input. Rows without a question
// and rows whose category matches one of exclude (case-insensitively) are
// dropped. Answers keep their original spelling.
func Responses(ds *dataset.Dataset, exclude []string) []ai.Response {
	if ds == nil {
		return nil
	}

	responses := make([]ai.Response, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		question := strings.TrimSpace(row.Question)
		if question == "" || excluded(row.Category, exclude) {
			continue
		}

		responses = append(responses, ai.Response{
			Category: strings.TrimSpace(row.Category),
			Question: question,
			Answer:   display(row.Answer),
			Comment:  strings.TrimSpace(row.Comment),
		})
	}
	return responses
}

func excluded(category string, exclude []string) bool {
	category = strings.TrimSpace(category)
	for _, name := range exclude {
		if strings.EqualFold(category, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func display(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
