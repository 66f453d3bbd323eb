package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/analysis"
	"github.com/spigell/audit-recommender/internal/report"
)

const (
	PromptNext       = "Run next step"
	PromptRunAll     = "Run remaining steps"
	PromptShowReport = "Show report"
	PromptDescribe   = "Describe steps"
	PromptRestart    = "Restart"
	PromptFinish     = "Finish and write report"
	PromptQuit       = "Quit without report"
)

var errExit = errors.New("exit requested")

type selector interface {
	Run() (int, string, error)
}

// newPrompt is replaced in tests.
var newPrompt = func(label string, items []string) selector {
	return &promptui.Select{Label: label, Items: items}
}

// runWizard lets the user drive the analysis one step at a time. It returns nil
// when the report should be written and errExit when the user quits.
func runWizard(ctx context.Context, out io.Writer, runner *analysis.Runner, a *analysis.Analysis, catalogVersion string, logger *zap.Logger) error {
	for {
		label := fmt.Sprintf("Current state: %s. Proceed?", runner.State())

		_, action, err := newPrompt(label, wizardItems(runner)).Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errExit
			}
			return err
		}

		done, err := handleWizardAction(ctx, action, out, runner, a, catalogVersion, logger)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func wizardItems(runner *analysis.Runner) []string {
	items := make([]string, 0, 7)
	if !runner.Done() {
		items = append(items, PromptNext, PromptRunAll)
	}
	return append(items, PromptShowReport, PromptDescribe, PromptRestart, PromptFinish, PromptQuit)
}

func handleWizardAction(ctx context.Context, action string, out io.Writer, runner *analysis.Runner, a *analysis.Analysis, catalogVersion string, logger *zap.Logger) (bool, error) {
	switch action {
	case PromptNext:
		outcome, err := runner.Next(ctx, a)
		if err != nil {
			logger.Warn("analysis step failed, it can be retried", zap.Error(err))
			return false, nil
		}
		logger.Info("current state", zap.String("state", outcome.State.String()), zap.Bool("skipped", outcome.Skipped))
		return false, nil
	case PromptRunAll:
		if _, err := runner.RunAll(ctx, a); err != nil {
			logger.Warn("analysis step failed, it can be retried", zap.Error(err))
		}
		return false, nil
	case PromptShowReport:
		return false, report.Render(out, report.FromAnalysis(a, catalogVersion), report.FormatTable)
	case PromptDescribe:
		for _, status := range analysis.Describe(runner.Steps()) {
			fmt.Fprintln(out, describeLine(status))
		}
		return false, nil
	case PromptRestart:
		runner.Reset(a)
		logger.Info("analysis restarted")
		return false, nil
	case PromptFinish:
		if !runner.Done() {
			logger.Info("writing a partial report", zap.String("state", runner.State().String()))
		}
		return true, nil
	case PromptQuit:
		return false, errExit
	default:
		return false, fmt.Errorf("invalid action: %s", action)
	}
}

func describeLine(status analysis.Status) string {
	state := "enabled"
	if !status.Enabled {
		state = "disabled"
	}

	line := fmt.Sprintf("%s (%s): %s", status.Name, status.State, state)
	if status.Reason != "" {
		line += ", " + status.Reason
	}
	if len(status.Details) > 0 {
		details := make([]string, 0, len(status.Details))
		for k, v := range status.Details {
			details = append(details, k+"="+v)
		}
		slices.Sort(details)
		line += " [" + strings.Join(details, " ") + "]"
	}
	return line
}
