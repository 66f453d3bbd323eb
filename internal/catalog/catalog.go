// Package catalog holds the recommendation rules that questionnaire answers are
// matched against.
//
// A catalog is built once and is read-only afterwards, so the same value can be
// shared by concurrent evaluations.
package catalog

import (
	"slices"

	"github.com/spigell/audit-recommender/internal/normalize"
)

// Polarity decides whether a predicate holds when the answer is one of the
// expected values or when it is not.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Kind tells single-question rules and group rules apart.
type Kind string

const (
	KindSingle Kind = "single"
	KindGroup  Kind = "group"
)

// Answer is an indexed, already normalized questionnaire answer.
type Answer struct {
	Value     string
	Score     float64
	MaxWeight float64
}

// Answers looks up an answer by normalized question key.
type Answers interface {
	Lookup(question string) (Answer, bool)
}

// Contribution is what a satisfied rule adds to the result.
type Contribution struct {
	Score     float64
	MaxWeight float64
}

func (c Contribution) add(a Answer) Contribution {
	return Contribution{
		Score:     c.Score + a.Score,
		MaxWeight: c.MaxWeight + a.MaxWeight,
	}
}

// Predicate is a condition on a single question.
type Predicate struct {
	question string
	expected []string
	polarity Polarity
}

// NewPredicate returns a predicate with the question and the expected answers
// normalized. It does not validate its input; use Build for that.
func NewPredicate(question string, expected []string, polarity Polarity) Predicate {
	normalized := make([]string, 0, len(expected))
	for _, e := range expected {
		normalized = append(normalized, normalize.Answer(e))
	}

	if polarity == "" {
		polarity = Positive
	}

	return Predicate{
		question: normalize.Question(question),
		expected: normalized,
		polarity: polarity,
	}
}

func (p Predicate) Question() string   { return p.question }
func (p Predicate) Expected() []string { return slices.Clone(p.expected) }
func (p Predicate) Polarity() Polarity { return p.polarity }

// Check reports whether the predicate holds for the given answers. An
// unanswered question never satisfies a predicate, whatever its polarity.
// The indexed answer is returned so that callers can pick up its score.
func (p Predicate) Check(answers Answers) (Answer, bool) {
	answer, ok := answers.Lookup(p.question)
	if !ok {
		return Answer{}, false
	}

	found := slices.Contains(p.expected, answer.Value)
	if p.polarity == Negative {
		return answer, !found
	}
	return answer, found
}

// Rule is a catalog entry that yields one recommendation when satisfied.
type Rule interface {
	ID() string
	Kind() Kind
	Recommendation() string
	Evaluate(answers Answers) (Contribution, bool)
}

// Single is a rule keyed to exactly one question.
type Single struct {
	Predicate
	recommendation string
}

// NewSingle returns a single-question rule.
func NewSingle(p Predicate, recommendation string) *Single {
	return &Single{Predicate: p, recommendation: recommendation}
}

func (r *Single) ID() string             { return "" }
func (r *Single) Kind() Kind             { return KindSingle }
func (r *Single) Recommendation() string { return r.recommendation }

// Evaluate contributes the score and weight of the rule's own question.
func (r *Single) Evaluate(answers Answers) (Contribution, bool) {
	answer, ok := r.Check(answers)
	if !ok {
		return Contribution{}, false
	}
	return Contribution{}.add(answer), true
}

// Group is a conjunction of predicates sharing one recommendation.
type Group struct {
	id             string
	predicates     []Predicate
	recommendation string
}

// NewGroup returns a group rule.
func NewGroup(id string, predicates []Predicate, recommendation string) *Group {
	return &Group{
		id:             id,
		predicates:     slices.Clone(predicates),
		recommendation: recommendation,
	}
}

func (r *Group) ID() string              { return r.id }
func (r *Group) Kind() Kind              { return KindGroup }
func (r *Group) Recommendation() string  { return r.recommendation }
func (r *Group) Predicates() []Predicate { return slices.Clone(r.predicates) }

// Evaluate checks predicates in order and stops at the first one that does not
// hold. The scores of the questions seen so far are only returned when every
// predicate holds.
func (r *Group) Evaluate(answers Answers) (Contribution, bool) {
	var subtotal Contribution
	for _, p := range r.predicates {
		answer, ok := p.Check(answers)
		if !ok {
			return Contribution{}, false
		}
		subtotal = subtotal.add(answer)
	}
	return subtotal, true
}

// Catalog is an ordered, immutable list of rules.
type Catalog struct {
	version string
	rules   []Rule
}

func (c *Catalog) Version() string { return c.version }

// Rules returns the rules in evaluation order.
func (c *Catalog) Rules() []Rule { return slices.Clone(c.rules) }

func (c *Catalog) Len() int { return len(c.rules) }
