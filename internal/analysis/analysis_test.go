package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/catalog"
	"github.com/spigell/audit-recommender/internal/dataset"
	"github.com/spigell/audit-recommender/internal/logger"
	"github.com/spigell/audit-recommender/internal/matcher"
	"github.com/spigell/audit-recommender/internal/wizard"
)

type fakeAdvisor struct {
	calls     []string
	responses map[string][]ai.Response
	err       error
}

func newFakeAdvisor() *fakeAdvisor {
	return &fakeAdvisor{responses: map[string][]ai.Response{}}
}

func (f *fakeAdvisor) record(name string, responses []ai.Response) error {
	f.calls = append(f.calls, name)
	f.responses[name] = responses
	return f.err
}

func (f *fakeAdvisor) Summary(_ context.Context, responses []ai.Response) (string, error) {
	if err := f.record("summary", responses); err != nil {
		return "", err
	}
	return "  Strong measurement foundation.  ", nil
}

func (f *fakeAdvisor) Bullets(_ context.Context, responses []ai.Response) ([]string, error) {
	if err := f.record("bullets", responses); err != nil {
		return nil, err
	}
	return []string{"one", "two"}, nil
}

func (f *fakeAdvisor) Gaps(_ context.Context, responses []ai.Response) ([]ai.Insight, error) {
	if err := f.record("gaps", responses); err != nil {
		return nil, err
	}
	return []ai.Insight{{Heading: "No server-side tagging", Context: "N/A", Impact: "N/A"}}, nil
}

func (f *fakeAdvisor) Drivers(_ context.Context, responses []ai.Response) ([]ai.Insight, error) {
	if err := f.record("drivers", responses); err != nil {
		return nil, err
	}
	return []ai.Insight{{Heading: "Consent mode"}, {Heading: "GA4"}}, nil
}

func sampleDataset() *dataset.Dataset {
	return &dataset.Dataset{Rows: []dataset.Row{
		{Category: "Business", Question: "What industry does the client operate in?", Answer: "Retail", Score: "0", MaxWeight: "0"},
		{Category: "Tagging", Question: "Is your instance of Google Tag Manager server-side or client-side?", Answer: "GTM (client-side)", Score: "1", MaxWeight: "3", Comment: " planned "},
		{Category: "Tagging", Question: "  ", Answer: "Yes"},
	}}
}

func newDeps(t *testing.T, advisor ai.Advisor) (Deps, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	c, err := catalog.Default()
	require.NoError(t, err)

	deps := Deps{Matcher: matcher.New(c, zap.NewNop()), Logger: zap.New(core)}
	if advisor != nil {
		deps.Advisor = advisor
	}
	return deps, logs
}

func TestRunAllWithAdvisor(t *testing.T) {
	advisor := newFakeAdvisor()
	deps, logs := newDeps(t, advisor)

	runner, err := NewRunner(&Config{ExcludeCategories: []string{"business"}}, deps, DefaultSteps())
	require.NoError(t, err)

	a := New(sampleDataset())
	outcomes, err := runner.RunAll(context.Background(), a)
	require.NoError(t, err)

	assert.True(t, runner.Done())
	assert.Equal(t, wizard.RecommendationsReady, runner.State())
	assert.Equal(t, []string{"summary", "bullets", "gaps", "drivers"}, advisor.calls)

	require.Len(t, outcomes, 5)
	assert.Equal(t, Outcome{Step: "summary", State: wizard.SummaryReady, Items: 1}, outcomes[0])
	assert.Equal(t, 2, outcomes[1].Items)
	assert.Equal(t, wizard.RecommendationsReady, outcomes[4].State)

	assert.Equal(t, "Strong measurement foundation.", a.Summary)
	assert.Equal(t, []string{"one", "two"}, a.Bullets)
	assert.Len(t, a.Gaps, 1)
	assert.Len(t, a.Drivers, 2)
	require.NotNil(t, a.Result)
	assert.Equal(t, 1, a.Result.MatchedCount)
	assert.Empty(t, a.Skipped)

	// The summary leaves the excluded category out, the other steps see everything.
	require.Len(t, advisor.responses["summary"], 1)
	assert.Equal(t, ai.Response{Category: "Tagging", Question: "Is your instance of Google Tag Manager server-side or client-side?", Answer: "GTM (client-side)", Comment: "planned"}, advisor.responses["summary"][0])
	assert.Len(t, advisor.responses["gaps"], 2)

	entries := logs.FilterMessage("analysis step").All()
	require.Len(t, entries, 5)
	assert.Equal(t, "summary", entries[0].ContextMap()[logger.FieldStep])
	assert.Equal(t, "summary_ready", entries[0].ContextMap()[logger.FieldState])
}

func TestRunAllWithoutAdvisorSkipsNarrativeSteps(t *testing.T) {
	deps, logs := newDeps(t, nil)

	steps := DefaultSteps()
	runner, err := NewRunner(nil, deps, steps)
	require.NoError(t, err)

	a := New(sampleDataset())
	outcomes, err := runner.RunAll(context.Background(), a)
	require.NoError(t, err)

	require.Len(t, outcomes, 5)
	for _, outcome := range outcomes[:4] {
		assert.True(t, outcome.Skipped, outcome.Step)
		assert.Equal(t, noAdvisorReason, outcome.Reason)
	}
	assert.False(t, outcomes[4].Skipped)

	assert.Equal(t, []string{"summary", "bullets", "gaps", "drivers"}, a.Skipped)
	assert.Empty(t, a.Summary)
	require.NotNil(t, a.Result)
	assert.Equal(t, 4, logs.FilterMessage("analysis step skipped").Len())

	for _, status := range Describe(steps)[:4] {
		assert.False(t, status.Enabled)
		assert.Equal(t, noAdvisorReason, status.Reason)
	}
}

func TestNextFailureKeepsState(t *testing.T) {
	advisor := newFakeAdvisor()
	advisor.err = errors.New("quota exceeded")
	deps, _ := newDeps(t, advisor)

	runner, err := NewRunner(nil, deps, DefaultSteps())
	require.NoError(t, err)

	a := New(sampleDataset())
	_, err = runner.Next(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary: quota exceeded")
	assert.Equal(t, wizard.Idle, runner.State())

	advisor.err = nil
	outcome, err := runner.Next(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, wizard.SummaryReady, outcome.State)
	assert.Equal(t, wizard.SummaryReady, runner.State())
}

func TestNextAfterFinish(t *testing.T) {
	deps, _ := newDeps(t, nil)
	runner, err := NewRunner(nil, deps, DefaultSteps())
	require.NoError(t, err)

	a := New(sampleDataset())
	_, err = runner.RunAll(context.Background(), a)
	require.NoError(t, err)

	_, err = runner.Next(context.Background(), a)
	assert.ErrorIs(t, err, ErrFinished)

	runner.Reset(a)
	assert.Equal(t, wizard.Idle, runner.State())
	assert.Nil(t, a.Result)
	assert.Empty(t, a.Skipped)
	assert.NotNil(t, a.Dataset)
}

func TestDisableByName(t *testing.T) {
	advisor := newFakeAdvisor()
	deps, _ := newDeps(t, advisor)

	steps := DefaultSteps()
	DisableByName(steps, "gaps", "disabled by user")

	runner, err := NewRunner(nil, deps, steps)
	require.NoError(t, err)

	a := New(sampleDataset())
	_, err = runner.RunAll(context.Background(), a)
	require.NoError(t, err)

	assert.Equal(t, []string{"gaps"}, a.Skipped)
	assert.NotContains(t, advisor.calls, "gaps")
}

func TestMissingStepForState(t *testing.T) {
	deps, _ := newDeps(t, nil)
	runner, err := NewRunner(nil, deps, []Step{NewSummary(), NewRecommendations()})
	require.NoError(t, err)

	a := New(sampleDataset())
	_, err = runner.Next(context.Background(), a)
	require.NoError(t, err)

	_, err = runner.Next(context.Background(), a)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bullet_ready")
	assert.Equal(t, wizard.SummaryReady, runner.State())
}

func TestRecommendationsRequireMatcher(t *testing.T) {
	runner, err := NewRunner(nil, Deps{}, DefaultSteps())
	require.NoError(t, err)

	_, err = runner.RunAll(context.Background(), New(sampleDataset()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recommendations: matcher is required")
	assert.Equal(t, wizard.DriversReady, runner.State())
}

func TestResponses(t *testing.T) {
	ds := &dataset.Dataset{Rows: []dataset.Row{
		{Category: " Business ", Question: "Industry?", Answer: "Retail"},
		{Category: "Data", Question: " Score? ", Answer: 4.5},
		{Category: "Data", Question: "Empty?", Answer: nil},
	}}

	got := Responses(ds, []string{"BUSINESS"})
	assert.Equal(t, []ai.Response{
		{Category: "Data", Question: "Score?", Answer: "4.5"},
		{Category: "Data", Question: "Empty?", Answer: ""},
	}, got)

	assert.Len(t, Responses(ds, nil), 3)
	assert.Nil(t, Responses(nil, nil))
}

type idleStep struct{ toggle }

func (s *idleStep) Name() string           { return "idle" }
func (s *idleStep) Target() wizard.State   { return wizard.Idle }
func (s *idleStep) Validate(*Config) error { return nil }
func (s *idleStep) Apply(context.Context, Deps, *Analysis) (Info, error) {
	return Info{}, nil
}

func TestNewRunnerRejectsBadTargets(t *testing.T) {
	deps, _ := newDeps(t, nil)

	_, err := NewRunner(nil, deps, []Step{NewSummary(), NewSummary()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summary_ready is already produced by summary")

	_, err = NewRunner(nil, deps, []Step{&idleStep{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "targets unknown state idle")

	_, err = NewRunner(nil, deps, DefaultSteps())
	require.NoError(t, err)
}
