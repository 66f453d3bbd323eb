// Package report renders analysis results as a terminal table, JSON or PDF.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/analysis"
	"github.com/spigell/audit-recommender/internal/matcher"
)

// NoMatches is printed in place of the table when nothing matched.
const NoMatches = "No recommendations matched based on the provided data."

// Format selects the report encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatPDF   Format = "pdf"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatPDF}
}

// ParseFormat accepts a format name in any case. An empty name means table.
func ParseFormat(s string) (Format, error) {
	name := Format(strings.ToLower(strings.TrimSpace(s)))
	if name == "" {
		return FormatTable, nil
	}
	for _, f := range Formats() {
		if f == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown report format %q (expected table, json or pdf)", s)
}

// Report is everything known about one audit.
type Report struct {
	CatalogVersion string          `json:"catalog_version,omitempty"`
	Summary        string          `json:"summary,omitempty"`
	Bullets        []string        `json:"bullets,omitempty"`
	Gaps           []ai.Insight    `json:"gaps,omitempty"`
	Drivers        []ai.Insight    `json:"drivers,omitempty"`
	Skipped        []string        `json:"skipped_steps,omitempty"`
	Result         *matcher.Result `json:"result"`
}

// FromAnalysis collects the outputs of a finished or partial analysis.
func FromAnalysis(a *analysis.Analysis, catalogVersion string) *Report {
	r := &Report{CatalogVersion: catalogVersion}
	if a == nil {
		return r
	}

	r.Summary = a.Summary
	r.Bullets = a.Bullets
	r.Gaps = a.Gaps
	r.Drivers = a.Drivers
	r.Skipped = a.Skipped
	r.Result = a.Result
	return r
}

func (r *Report) result() *matcher.Result {
	if r.Result == nil {
		return &matcher.Result{Matches: []matcher.Match{}}
	}
	return r.Result
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	if r == nil {
		r = &Report{}
	}

	switch format {
	case FormatTable, "":
		_, err := io.WriteString(w, Text(r))
		return err
	case FormatJSON:
		return renderJSON(w, r)
	case FormatPDF:
		return renderPDF(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func renderJSON(w io.Writer, r *Report) error {
	out := *r
	out.Result = r.result()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func amount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func totals(res *matcher.Result) []string {
	return []string{
		fmt.Sprintf("Total Number of Recommendations Matched: %d", res.MatchedCount),
		fmt.Sprintf("Total Matched Score: %s", amount(res.TotalScore)),
		fmt.Sprintf("Total Matched Max Weight: %s", amount(res.TotalMaxWeight)),
	}
}

func insightLines(in ai.Insight) []string {
	return []string{
		in.Heading,
		"Context: " + in.Context,
		"Impact: " + in.Impact,
	}
}
