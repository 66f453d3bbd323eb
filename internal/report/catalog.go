package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/spigell/audit-recommender/internal/catalog"
)

// Catalog renders the rules of c as a terminal table, one row per predicate.
func Catalog(c *catalog.Catalog) string {
	rows := make([][]string, 0, c.Len())
	for i, rule := range c.Rules() {
		for j, p := range predicates(rule) {
			num, id, rec := "", "", ""
			if j == 0 {
				num, id, rec = strconv.Itoa(i+1), rule.ID(), rule.Recommendation()
			}
			rows = append(rows, []string{
				num,
				id,
				p.Question(),
				expected(p),
				rec,
			})
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Set", "Question", "Expected", "Recommendation").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	fmt.Fprintf(&b, "Catalog version: %s\n", c.Version())
	fmt.Fprintf(&b, "Rules: %d\n", c.Len())
	b.WriteString(t.String())
	b.WriteString("\n")
	return b.String()
}

func predicates(rule catalog.Rule) []catalog.Predicate {
	switch r := rule.(type) {
	case *catalog.Single:
		return []catalog.Predicate{r.Predicate}
	case *catalog.Group:
		return r.Predicates()
	default:
		return nil
	}
}

func expected(p catalog.Predicate) string {
	values := strings.Join(p.Expected(), " | ")
	if p.Polarity() == catalog.Negative {
		return "not " + values
	}
	return values
}
