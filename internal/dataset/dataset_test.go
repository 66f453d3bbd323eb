package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Parallel()

	input := "\ufeffCategory, Question ,Answer,Score,MaxWeight,Comment\n" +
		"Tagging,\"Is your instance of Google Tag Manager server-side or client-side?\",GTM (client-side),3,5,legacy setup\n" +
		"Business,What industry is the brand considered to be in?,,,,\n" +
		",,,,,\n" +
		"Data,\"Is BigQuery in use for warehousing GA4/GA360 data?\",Yes,-1,2\n"

	ds, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.True(t, ds.HasComments)

	assert.Equal(t, Row{
		Category:  "Tagging",
		Question:  "Is your instance of Google Tag Manager server-side or client-side?",
		Answer:    "GTM (client-side)",
		Score:     "3",
		MaxWeight: "5",
		Comment:   "legacy setup",
	}, ds.Rows[0])

	assert.Nil(t, ds.Rows[1].Answer)
	assert.Nil(t, ds.Rows[1].Score)
	assert.Nil(t, ds.Rows[1].MaxWeight)

	// Short rows are padded with absent cells.
	assert.Equal(t, "", ds.Rows[2].Comment)
	assert.Equal(t, "-1", ds.Rows[2].Score)

	assert.Equal(t, []string{"Tagging", "Business", "Data"}, ds.Categories())
}

func TestReadMissingValueTokens(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"None", " NA ", "null", "NULL", "#N/A", "nan", "NaN", "<NA>", "N/A", "n/a"} {
		t.Run(token, func(t *testing.T) {
			t.Parallel()

			input := "Category,Question,Answer,Score,MaxWeight\n" +
				"Media,Q,\"" + token + "\",\"" + token + "\",\"" + token + "\"\n"

			ds, err := Read(strings.NewReader(input))
			require.NoError(t, err)
			require.Equal(t, 1, ds.Len())
			assert.Nil(t, ds.Rows[0].Answer)
			assert.Nil(t, ds.Rows[0].Score)
			assert.Nil(t, ds.Rows[0].MaxWeight)
		})
	}

	// Only whole-cell tokens count; case matters like in spreadsheet exports.
	ds, err := Read(strings.NewReader("Category,Question,Answer,Score,MaxWeight\nNone,None,none,None yet,0\n"))
	require.NoError(t, err)
	assert.Equal(t, "None", ds.Rows[0].Category)
	assert.Equal(t, "none", ds.Rows[0].Answer)
	assert.Equal(t, "None yet", ds.Rows[0].Score)
}

func TestReadWithoutCommentColumn(t *testing.T) {
	t.Parallel()

	ds, err := Read(strings.NewReader("MaxWeight,Score,Answer,Question,Category\n5,3,Yes,Q,C\n"))
	require.NoError(t, err)
	assert.False(t, ds.HasComments)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "Yes", ds.Rows[0].Answer)
	assert.Equal(t, "C", ds.Rows[0].Category)
}

func TestReadMissingColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		missing []string
	}{
		{name: "empty input", input: "", missing: RequiredColumns},
		{name: "no weight", input: "Category,Question,Answer,Score\n", missing: []string{ColumnMaxWeight}},
		{name: "case sensitive", input: "category,question,Answer,Score,MaxWeight\n", missing: []string{ColumnCategory, ColumnQuestion}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ds, err := Read(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.ErrorIs(t, err, ErrMissingColumns)

			var colErr *MissingColumnsError
			require.True(t, errors.As(err, &colErr))
			assert.Equal(t, tt.missing, colErr.Missing)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.csv")
	require.NoError(t, os.WriteFile(path, []byte("Category,Question,Answer,Score,MaxWeight\nC,Q,A,1,2\n"), 0o600))

	ds, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestNilDataset(t *testing.T) {
	t.Parallel()

	var ds *Dataset
	assert.Equal(t, 0, ds.Len())
	assert.Nil(t, ds.Categories())
}
