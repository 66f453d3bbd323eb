package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/ai/gemini"
	"github.com/spigell/audit-recommender/internal/analysis"
	"github.com/spigell/audit-recommender/internal/catalog"
	"github.com/spigell/audit-recommender/internal/dataset"
	"github.com/spigell/audit-recommender/internal/logger"
	"github.com/spigell/audit-recommender/internal/matcher"
	"github.com/spigell/audit-recommender/internal/report"
	"github.com/spigell/audit-recommender/internal/secrets"
)

const geminiAPIKeyEnv = "GEMINI_API_KEY"

var analyzeCmd = &cobra.Command{
	Use:   "analyze <answers.csv>",
	Short: "Match questionnaire answers against the recommendation catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, args[0])
	},
}

// buildAdvisor is replaced in tests.
var buildAdvisor = newAdvisor

type analyzeOptions struct {
	Path        string
	Interactive bool
	Skip        []string
	Out         io.Writer
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("catalog", "", "catalog file (yaml or json). Default is the embedded catalog")
	analyzeCmd.Flags().StringP("format", "f", "table", "report format: table, json or pdf")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().Bool("copy", false, "copy the text report to the clipboard")
	analyzeCmd.Flags().Bool("ai", false, "ask the AI advisor for a summary, key points, gaps and drivers")
	analyzeCmd.Flags().String("instructions", "", "extra guidance passed to the AI advisor")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "walk through the analysis steps one by one")
	analyzeCmd.Flags().StringSlice("skip", nil, "analysis steps to skip (summary, bullets, gaps, drivers)")

	viper.BindPFlag("catalog", analyzeCmd.Flags().Lookup("catalog"))
	viper.BindPFlag("report.format", analyzeCmd.Flags().Lookup("format"))
	viper.BindPFlag("report.output", analyzeCmd.Flags().Lookup("output"))
	viper.BindPFlag("report.copy", analyzeCmd.Flags().Lookup("copy"))
	viper.BindPFlag("ai.enabled", analyzeCmd.Flags().Lookup("ai"))
	viper.BindPFlag("ai.instructions", analyzeCmd.Flags().Lookup("instructions"))
}

func runAnalyze(cmd *cobra.Command, path string) error {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Error("getting a config", zap.Error(err))
		return err
	}

	logger.Info("starting the audit-recommender", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	interactive, _ := cmd.Flags().GetBool("interactive")
	skip, _ := cmd.Flags().GetStringSlice("skip")

	return analyze(cmd.Context(), config, analyzeOptions{
		Path:        path,
		Interactive: interactive,
		Skip:        skip,
		Out:         cmd.OutOrStdout(),
	}, logger)
}

func analyze(ctx context.Context, config *Config, opts analyzeOptions, logger *zap.Logger) error {
	format, err := report.ParseFormat(config.Report.Format)
	if err != nil {
		return err
	}
	if format == report.FormatPDF && strings.TrimSpace(config.Report.Output) == "" {
		return errors.New("pdf report requires an output file (--output)")
	}

	ds, err := dataset.ReadFile(opts.Path)
	if err != nil {
		var missing *dataset.MissingColumnsError
		if errors.As(err, &missing) {
			logger.Error("answers file has no required columns",
				zap.Strings("missing", missing.Missing),
				zap.Strings("required", dataset.RequiredColumns),
			)
		}
		return err
	}

	logger.Info("answers loaded",
		zap.String("path", opts.Path),
		zap.Int("rows", ds.Len()),
		zap.Strings("categories", ds.Categories()),
	)

	cat, err := loadCatalog(config.Catalog)
	if err != nil {
		return err
	}

	logger.Info("catalog loaded", zap.String("version", cat.Version()), zap.Int("rules", cat.Len()))

	var advisor ai.Advisor
	if config.AI.Enabled {
		advisor, err = buildAdvisor(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping ai steps", zap.Error(err))
			advisor = nil
		}
	}

	steps := analysis.DefaultSteps()
	for _, name := range opts.Skip {
		if !knownStep(steps, name) {
			return fmt.Errorf("unknown analysis step %q", name)
		}
		analysis.DisableByName(steps, name, "skip requested via flag")
	}

	runner, err := analysis.NewRunner(
		&analysis.Config{ExcludeCategories: config.AI.ExcludeCategories},
		analysis.Deps{
			Advisor: advisor,
			Matcher: matcher.New(cat, logger),
			Logger:  logger,
		},
		steps,
	)
	if err != nil {
		return err
	}

	a := analysis.New(ds)

	if opts.Interactive {
		err := runWizard(ctx, opts.Out, runner, a, cat.Version(), logger)
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "quit requested"))
			return nil
		}
		if err != nil {
			return err
		}
	} else if _, err := runner.RunAll(ctx, a); err != nil {
		return err
	}

	return writeReport(config.Report, format, report.FromAnalysis(a, cat.Version()), opts.Out, logger)
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path = strings.TrimSpace(path); path != "" {
		return catalog.Load(path)
	}
	return catalog.Default()
}

func knownStep(steps []analysis.Step, name string) bool {
	for _, step := range steps {
		if step.Name() == name {
			return true
		}
	}
	return false
}

func writeReport(cfg *ReportConfig, format report.Format, r *report.Report, out io.Writer, logger *zap.Logger) (err error) {
	path := strings.TrimSpace(cfg.Output)
	if path != "" {
		var f *os.File
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing report file: %w", cerr)
			}
		}()
		out = f
	}

	if err := report.Render(out, r, format); err != nil {
		return err
	}

	if path != "" {
		logger.Info("report written", zap.String("path", path), zap.String("format", string(format)))
	}

	if cfg.Copy {
		if err := clipboard.WriteAll(report.Text(r)); err != nil {
			logger.Warn("copying report to clipboard", zap.Error(err))
		} else {
			logger.Info("report copied to clipboard")
		}
	}

	return nil
}

func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Advisor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiAPIKeyEnv,
		Value: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or %s)", err, geminiAPIKeyEnv)
	}

	generatorLogger := log.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, generatorLogger)
	if err != nil {
		return nil, err
	}

	advisor := gemini.NewAdvisor(generator, cfg.Gemini.MaxLogLength, logger.WithCommonFields(log, "gemini", generator.Model()))
	advisor.SetInstructions(cfg.Instructions)

	return advisor, nil
}

func redacted(config *Config) Config {
	out := *config
	if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.APIKey != "" {
		aiCfg := *config.AI
		gem := *config.AI.Gemini
		gem.APIKey = "***"
		aiCfg.Gemini = &gem
		out.AI = &aiCfg
	}
	return out
}
