// Package ai describes the text-generation collaborator that writes free-text
// maturity summaries from questionnaire responses.
package ai

import (
	"context"
)

// Response is one answered question as shown to the model.
type Response struct {
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Comment  string `json:"comment,omitempty"`
}

// Insight is a maturity gap or driver.
type Insight struct {
	Heading string `json:"heading"`
	Context string `json:"context"`
	Impact  string `json:"impact"`
}

// Advisor produces narrative findings for an audit.
type Advisor interface {
	Summary(ctx context.Context, responses []Response) (string, error)
	Bullets(ctx context.Context, responses []Response) ([]string, error)
	Gaps(ctx context.Context, responses []Response) ([]Insight, error)
	Drivers(ctx context.Context, responses []Response) ([]Insight, error)
}
