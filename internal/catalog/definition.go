package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rule types accepted in catalog files. An empty type means a positive choice.
const (
	TypeChoice         = "choice"
	TypePositive       = "positive"
	TypeNegative       = "negative"
	TypeNegativeChoice = "negative_choice"
)

// ErrInvalidCatalog is wrapped by every error returned by Build.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Definition is the serialized form of a catalog rule. Single rules set
// Question and Answer, group rules set SetID and Questions.
type Definition struct {
	SetID          string          `mapstructure:"set_id" json:"set_id,omitempty" yaml:"set_id,omitempty"`
	Question       string          `mapstructure:"question" json:"question,omitempty" yaml:"question,omitempty"`
	Answer         []string        `mapstructure:"answer" json:"answer,omitempty" yaml:"answer,omitempty"`
	Type           string          `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=choice positive negative negative_choice"`
	Questions      []SubDefinition `mapstructure:"questions" json:"questions,omitempty" yaml:"questions,omitempty" validate:"dive"`
	Recommendation string          `mapstructure:"recommendation" json:"recommendation" yaml:"recommendation" validate:"required"`
}

// SubDefinition is one condition of a group rule. It has no recommendation of
// its own.
type SubDefinition struct {
	Question string   `mapstructure:"question" json:"question" yaml:"question" validate:"required"`
	Answer   []string `mapstructure:"answer" json:"answer" yaml:"answer" validate:"required,min=1"`
	Type     string   `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=choice positive negative negative_choice"`
}

// ConfigError describes a malformed catalog entry. Index is the 0-based
// position of the rule; messages count rules from 1.
type ConfigError struct {
	Index  int
	SetID  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.SetID != "" {
		return fmt.Sprintf("rule #%d (set %q): %s", e.Index+1, e.SetID, e.Reason)
	}
	return fmt.Sprintf("rule #%d: %s", e.Index+1, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidCatalog }

// Build validates the definitions and turns them into a catalog. All problems
// are reported at once.
func Build(version string, defs []Definition) (*Catalog, error) {
	validate := validator.New()

	var errs []error
	seen := make(map[string]int)
	rules := make([]Rule, 0, len(defs))

	for i, def := range defs {
		fail := func(format string, args ...any) {
			errs = append(errs, &ConfigError{Index: i, SetID: def.SetID, Reason: fmt.Sprintf(format, args...)})
		}

		if err := validate.Struct(def); err != nil {
			fail("%s", describeValidation(err))
			continue
		}

		if strings.TrimSpace(def.Recommendation) == "" {
			fail("recommendation is empty")
			continue
		}

		if def.SetID == "" {
			if len(def.Questions) > 0 {
				fail("questions are only allowed in rule sets; set_id is missing")
				continue
			}
			p, err := predicate(def.Question, def.Answer, def.Type)
			if err != nil {
				fail("%s", err)
				continue
			}
			rules = append(rules, NewSingle(p, def.Recommendation))
			continue
		}

		if prev, ok := seen[def.SetID]; ok {
			fail("set_id duplicates rule #%d", prev)
			continue
		}
		seen[def.SetID] = i

		if def.Question != "" || len(def.Answer) > 0 {
			fail("rule sets define conditions under questions only")
			continue
		}
		if len(def.Questions) == 0 {
			fail("rule set has no questions")
			continue
		}

		predicates := make([]Predicate, 0, len(def.Questions))
		for j, sub := range def.Questions {
			p, err := predicate(sub.Question, sub.Answer, sub.Type)
			if err != nil {
				fail("question #%d: %s", j, err)
				predicates = nil
				break
			}
			predicates = append(predicates, p)
		}
		if predicates == nil {
			continue
		}

		rules = append(rules, NewGroup(def.SetID, predicates, def.Recommendation))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Catalog{version: version, rules: rules}, nil
}

func predicate(question string, answers []string, typ string) (Predicate, error) {
	if strings.TrimSpace(question) == "" {
		return Predicate{}, errors.New("question is empty")
	}
	if len(answers) == 0 {
		return Predicate{}, errors.New("expected answers are empty")
	}

	polarity, err := ParsePolarity(typ)
	if err != nil {
		return Predicate{}, err
	}

	return NewPredicate(question, answers, polarity), nil
}

// ParsePolarity maps a rule type to its polarity.
func ParsePolarity(typ string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", TypeChoice, TypePositive:
		return Positive, nil
	case TypeNegative, TypeNegativeChoice:
		return Negative, nil
	default:
		return "", fmt.Errorf("unknown rule type %q", typ)
	}
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Definition.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
