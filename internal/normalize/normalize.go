// Package normalize canonicalizes questionnaire values so that answers from a
// dataset and answers declared in the rule catalog can be compared as plain
// strings.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NotApplicable is the literal that questionnaires use for a non-answer.
const NotApplicable = "n/a"

// Answer returns the comparable form of a raw answer value.
// Absent values, NaN, empty strings and "n/a" in any case all collapse to "".
func Answer(v any) string {
	if isAbsent(v) {
		return ""
	}

	s := lower(toString(v))
	if s == NotApplicable {
		return ""
	}

	return s
}

// Question returns the lookup key for a question text.
func Question(s string) string {
	return lower(s)
}

func lower(s string) string {
	// Caser keeps state between calls, so it is not shared.
	return strings.TrimSpace(cases.Lower(language.Und).String(s))
}

func toString(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

func isAbsent(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(val)
	case float32:
		return math.IsNaN(float64(val))
	case *string:
		return val == nil
	default:
		return false
	}
}
