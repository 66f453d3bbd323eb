package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/wizard"
)

// advisorStep is implemented by steps that need an ai.Advisor.
type advisorStep interface {
	usesAdvisor()
}

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type summaryStep struct {
	toggle
	exclude []string
}

// NewSummary creates the step that writes the free-text maturity summary.
func NewSummary() Step {
	return &summaryStep{}
}

func (s *summaryStep) Name() string         { return "summary" }
func (s *summaryStep) Target() wizard.State { return wizard.SummaryReady }
func (s *summaryStep) usesAdvisor()         {}

func (s *summaryStep) Validate(cfg *Config) error {
	s.exclude = nil
	if cfg != nil {
		s.exclude = append(s.exclude, cfg.ExcludeCategories...)
	}
	return nil
}

func (s *summaryStep) Apply(ctx context.Context, deps Deps, a *Analysis) (Info, error) {
	if deps.Advisor == nil {
		return Info{}, fmt.Errorf("advisor is required")
	}

	responses := Responses(a.Dataset, s.exclude)
	if len(responses) == 0 {
		deps.Logger.Warn("every response belongs to an excluded category; summary left empty",
			zap.Strings("excluded_categories", s.exclude),
		)
		a.Summary = ""
		return Info{}, nil
	}

	summary, err := deps.Advisor.Summary(ctx, responses)
	if err != nil {
		return Info{}, err
	}

	a.Summary = strings.TrimSpace(summary)
	if a.Summary == "" {
		return Info{}, nil
	}
	return Info{Items: 1}, nil
}

func (s *summaryStep) Status() Status {
	details := map[string]string{}
	if len(s.exclude) > 0 {
		details["exclude_categories"] = strings.Join(s.exclude, ",")
	}
	return Status{Name: s.Name(), State: s.Target().String(), Enabled: s.IsEnabled(), Reason: s.reason, Details: details}
}

type bulletsStep struct {
	toggle
}

// NewBullets creates the step that condenses the audit into key points.
func NewBullets() Step {
	return &bulletsStep{}
}

func (s *bulletsStep) Name() string           { return "bullets" }
func (s *bulletsStep) Target() wizard.State   { return wizard.BulletReady }
func (s *bulletsStep) Validate(*Config) error { return nil }
func (s *bulletsStep) usesAdvisor()           {}

func (s *bulletsStep) Apply(ctx context.Context, deps Deps, a *Analysis) (Info, error) {
	if deps.Advisor == nil {
		return Info{}, fmt.Errorf("advisor is required")
	}

	bullets, err := deps.Advisor.Bullets(ctx, Responses(a.Dataset, nil))
	if err != nil {
		return Info{}, err
	}

	a.Bullets = bullets
	return Info{Items: len(bullets)}, nil
}

func (s *bulletsStep) Status() Status {
	return Status{Name: s.Name(), State: s.Target().String(), Enabled: s.IsEnabled(), Reason: s.reason}
}

// insightsStep backs both the gaps and the drivers steps.
type insightsStep struct {
	toggle
	name   string
	target wizard.State
	ask    func(ai.Advisor) func(context.Context, []ai.Response) ([]ai.Insight, error)
	store  func(*Analysis, []ai.Insight)
}

// NewGaps creates the step that lists the most critical maturity gaps.
func NewGaps() Step {
	return &insightsStep{
		name:   "gaps",
		target: wizard.GapsReady,
		ask:    func(adv ai.Advisor) func(context.Context, []ai.Response) ([]ai.Insight, error) { return adv.Gaps },
		store:  func(a *Analysis, in []ai.Insight) { a.Gaps = in },
	}
}

// NewDrivers creates the step that lists what drives maturity today.
func NewDrivers() Step {
	return &insightsStep{
		name:   "drivers",
		target: wizard.DriversReady,
		ask:    func(adv ai.Advisor) func(context.Context, []ai.Response) ([]ai.Insight, error) { return adv.Drivers },
		store:  func(a *Analysis, in []ai.Insight) { a.Drivers = in },
	}
}

func (s *insightsStep) Name() string           { return s.name }
func (s *insightsStep) Target() wizard.State   { return s.target }
func (s *insightsStep) Validate(*Config) error { return nil }
func (s *insightsStep) usesAdvisor()           {}

func (s *insightsStep) Apply(ctx context.Context, deps Deps, a *Analysis) (Info, error) {
	if deps.Advisor == nil {
		return Info{}, fmt.Errorf("advisor is required")
	}

	insights, err := s.ask(deps.Advisor)(ctx, Responses(a.Dataset, nil))
	if err != nil {
		return Info{}, err
	}

	s.store(a, insights)
	return Info{Items: len(insights)}, nil
}

func (s *insightsStep) Status() Status {
	return Status{Name: s.Name(), State: s.Target().String(), Enabled: s.IsEnabled(), Reason: s.reason}
}

type recommendationsStep struct {
	toggle
}

// NewRecommendations creates the step that matches the dataset against the
// catalog.
func NewRecommendations() Step {
	return &recommendationsStep{}
}

func (s *recommendationsStep) Name() string           { return "recommendations" }
func (s *recommendationsStep) Target() wizard.State   { return wizard.RecommendationsReady }
func (s *recommendationsStep) Validate(*Config) error { return nil }

func (s *recommendationsStep) Apply(_ context.Context, deps Deps, a *Analysis) (Info, error) {
	if deps.Matcher == nil {
		return Info{}, fmt.Errorf("matcher is required")
	}

	a.Result = deps.Matcher.Evaluate(a.Dataset)
	return Info{Items: a.Result.MatchedCount}, nil
}

func (s *recommendationsStep) Status() Status {
	return Status{Name: s.Name(), State: s.Target().String(), Enabled: s.IsEnabled(), Reason: s.reason}
}
