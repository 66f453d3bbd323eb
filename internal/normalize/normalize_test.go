package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  any
		expect string
	}{
		{name: "nil", input: nil, expect: ""},
		{name: "nan", input: math.NaN(), expect: ""},
		{name: "empty", input: "", expect: ""},
		{name: "blank", input: "   \t", expect: ""},
		{name: "upper n/a", input: "N/A", expect: ""},
		{name: "padded n/a", input: "n/a ", expect: ""},
		{name: "mixed case", input: "  GTM (client-side) ", expect: "gtm (client-side)"},
		{name: "bool", input: true, expect: "true"},
		{name: "int", input: 42, expect: "42"},
		{name: "n/a inside text is kept", input: "N/A yet", expect: "n/a yet"},
		{name: "nil string pointer", input: (*string)(nil), expect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, Answer(tt.input))
		})
	}
}

func TestAnswerIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "N/A", "  Yes ", "Google Analytics 4 (GA4)", "ΟΔΟΣ", "n/a\n", "50-75%"}
	for _, in := range inputs {
		once := Answer(in)
		assert.Equal(t, once, Answer(once), "input %q", in)
	}
}

func TestAnswerCollapsesNonAnswers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Answer("N/A"))
	assert.Equal(t, Answer("N/A"), Answer("n/a "))
	assert.Equal(t, Answer("n/a "), Answer(""))
	assert.Equal(t, Answer(""), Answer(nil))
}

func TestQuestion(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"is your instance of google tag manager server-side or client-side?",
		Question("  Is your instance of Google Tag Manager server-side or client-side? "),
	)
	// Question keys are not collapsed like answers are.
	assert.Equal(t, "n/a", Question("N/A"))
}
