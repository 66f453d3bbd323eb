// Package analysis runs an audit through its ordered steps: narrative findings
// from the advisor followed by the catalog recommendations.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/dataset"
	"github.com/spigell/audit-recommender/internal/logger"
	"github.com/spigell/audit-recommender/internal/matcher"
	"github.com/spigell/audit-recommender/internal/wizard"
)

// ErrFinished is returned by Runner.Next once every step has run.
var ErrFinished = errors.New("analysis is finished")

const noAdvisorReason = "no advisor configured"

// Step is a single stage of the analysis. Every step produces the outputs for
// exactly one wizard state.
type Step interface {
	Name() string
	Target() wizard.State
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, a *Analysis) (Info, error)
}

// Deps aggregates dependencies shared across all steps.
type Deps struct {
	Advisor ai.Advisor
	Matcher *matcher.Matcher
	Logger  *zap.Logger
}

// Config contains the settings consumed by the steps.
type Config struct {
	// ExcludeCategories are left out of the summary prompt.
	ExcludeCategories []string
}

// Info describes what a step produced.
type Info struct {
	Items int
}

// Outcome is reported for every step the runner passes, including skipped ones.
type Outcome struct {
	Step    string
	State   wizard.State
	Skipped bool
	Reason  string
	Items   int
}

// Analysis accumulates the outputs of the steps for one dataset.
type Analysis struct {
	Dataset *dataset.Dataset
	Summary string
	Bullets []string
	Gaps    []ai.Insight
	Drivers []ai.Insight
	Result  *matcher.Result
	Skipped []string
}

func New(ds *dataset.Dataset) *Analysis {
	return &Analysis{Dataset: ds}
}

// Reset drops every output while keeping the dataset.
func (a *Analysis) Reset() {
	*a = Analysis{Dataset: a.Dataset}
}

// Status represents runtime information about a step.
type Status struct {
	Name    string
	State   string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// DefaultSteps returns the steps in wizard order.
func DefaultSteps() []Step {
	return []Step{
		NewSummary(),
		NewBullets(),
		NewGaps(),
		NewDrivers(),
		NewRecommendations(),
	}
}

// DisableByName marks a step with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Step, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Describe returns status entries for the provided steps.
func Describe(steps []Step) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			State:   step.Target().String(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// Runner drives the steps through a wizard machine one state at a time.
type Runner struct {
	cfg     *Config
	deps    Deps
	steps   []Step
	machine *wizard.Machine
}

// NewRunner validates the enabled steps. Every step must target its own
// non-idle wizard state. Advisor backed steps are disabled
// when deps carry no advisor.
func NewRunner(cfg *Config, deps Deps, steps []Step) (*Runner, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	seen := make(map[wizard.State]string, len(steps))
	for _, step := range steps {
		target := step.Target()
		if target == wizard.Idle || !slices.Contains(wizard.States(), target) {
			return nil, fmt.Errorf("%s: targets unknown state %s", step.Name(), target)
		}
		if other, ok := seen[target]; ok {
			return nil, fmt.Errorf("%s: state %s is already produced by %s", step.Name(), target, other)
		}
		seen[target] = step.Name()
	}

	if deps.Advisor == nil {
		for _, step := range steps {
			if _, ok := step.(advisorStep); ok {
				step.Disable(noAdvisorReason)
			}
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return &Runner{
		cfg:     cfg,
		deps:    deps,
		steps:   steps,
		machine: wizard.New(),
	}, nil
}

func (r *Runner) State() wizard.State { return r.machine.Current() }

func (r *Runner) Done() bool { return r.machine.Done() }

func (r *Runner) Steps() []Step { return r.steps }

// Reset starts the flow over and clears the outputs of a.
func (r *Runner) Reset(a *Analysis) {
	r.machine.Reset()
	if a != nil {
		a.Reset()
	}
}

// Next runs the step targeting the state after the current one. A disabled
// step still advances the machine and is recorded as skipped. On failure the
// machine stays where it was so the step can be retried.
func (r *Runner) Next(ctx context.Context, a *Analysis) (Outcome, error) {
	target, ok := r.machine.Next()
	if !ok {
		return Outcome{State: r.machine.Current()}, ErrFinished
	}

	step := r.stepFor(target)
	if step == nil {
		return Outcome{State: r.machine.Current()}, fmt.Errorf("no step produces %s", target)
	}

	log := r.deps.Logger.With(logger.StepFields(step.Name(), target.String())...)
	outcome := Outcome{Step: step.Name(), State: target}

	if !step.IsEnabled() {
		outcome.Skipped = true
		outcome.Reason = reason(step)
		a.Skipped = append(a.Skipped, step.Name())
		log.Info("analysis step skipped", zap.String("reason", outcome.Reason))
	} else {
		info, err := step.Apply(ctx, r.deps, a)
		if err != nil {
			return Outcome{Step: step.Name(), State: r.machine.Current()}, fmt.Errorf("%s: %w", step.Name(), err)
		}
		outcome.Items = info.Items
		log.Info("analysis step", zap.Int("items", info.Items))
	}

	if err := r.machine.Advance(target); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// RunAll runs every remaining step.
func (r *Runner) RunAll(ctx context.Context, a *Analysis) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(r.steps))
	for !r.machine.Done() {
		outcome, err := r.Next(ctx, a)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (r *Runner) stepFor(state wizard.State) Step {
	for _, step := range r.steps {
		if step.Target() == state {
			return step
		}
	}
	return nil
}

func reason(step Step) string {
	if reporter, ok := step.(statusProvider); ok {
		return reporter.Status().Reason
	}
	return ""
}
