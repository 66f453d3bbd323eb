package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spigell/audit-recommender/internal/ai"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

// Text renders the report for a terminal. The same text is used for the
// clipboard.
func Text(r *Report) string {
	var b strings.Builder

	if r.Summary != "" {
		section(&b, "Summary")
		b.WriteString(r.Summary)
		b.WriteString("\n\n")
	}

	if len(r.Bullets) > 0 {
		section(&b, "Key Points")
		for _, bullet := range r.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
		b.WriteString("\n")
	}

	for _, group := range []struct {
		title string
		items []ai.Insight
	}{
		{title: "Top Maturity Gaps", items: r.Gaps},
		{title: "Maturity Drivers", items: r.Drivers},
	} {
		if len(group.items) == 0 {
			continue
		}
		section(&b, group.title)
		for i, in := range group.items {
			lines := insightLines(in)
			fmt.Fprintf(&b, "%d. %s\n", i+1, lines[0])
			for _, line := range lines[1:] {
				fmt.Fprintf(&b, "   %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	res := r.result()
	section(&b, "Recommendations")
	if res.MatchedCount == 0 {
		b.WriteString(NoMatches)
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(res.Matches))
	for _, m := range res.Matches {
		rows = append(rows, []string{m.Recommendation, amount(m.Score), amount(m.MaxWeight)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Recommendation", "Score", "Max Weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col > 0:
				return numberStyle
			default:
				return cellStyle
			}
		})

	b.WriteString(t.String())
	b.WriteString("\n\n")
	for _, line := range totals(res) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
}
