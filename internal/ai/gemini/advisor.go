package gemini

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/audit-recommender/internal/ai"
	"github.com/spigell/audit-recommender/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompts/*.md
var prompts embed.FS

type task string

const (
	taskSummary task = "summary"
	taskBullets task = "bullets"
	taskGaps    task = "gaps"
	taskDrivers task = "drivers"
)

var systemInstructions = map[task]string{
	taskSummary: "Imagine you are a marketing agency focused on Adtech and Martech and Google Marketing Platform.",
	taskBullets: "Imagine you are a marketing agency focused on Adtech and Martech and Google Marketing Platform.",
	taskGaps:    "You are a marketing maturity consultant focused on identifying key capability gaps from audits.",
	taskDrivers: "You are a marketing maturity consultant focused on identifying key capability strengths from audits.",
}

const (
	defaultMaxLogLength     = 200
	maxUserInstructionRunes = 500
	notAvailable            = "N/A"
)

var (
	insightSplitRe = regexp.MustCompile(`\d+\.\s*\*\*Heading\*\*:`)
	headingRe      = regexp.MustCompile(`(?s)^(.*?)\s*\*\*\s*Context\*\*:`)
	contextRe      = regexp.MustCompile(`(?s)\*\*\s*Context\*\*:\s*(.*?)\s*\*\*\s*Impact\*\*:`)
	impactRe       = regexp.MustCompile(`(?s)\*\*\s*Impact\*\*:\s*(.*)`)
	bulletRe       = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
)

// Advisor implements ai.Advisor on top of a Gemini generator.
type Advisor struct {
	generator    contentGenerator
	logger       *zap.Logger
	maxLogLen    int
	instructions string
}

var _ ai.Advisor = (*Advisor)(nil)

func NewAdvisor(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Advisor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Advisor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// SetInstructions adds free-form guidance from the user to every prompt.
func (a *Advisor) SetInstructions(instructions string) {
	a.instructions = instructions
}

func (a *Advisor) Summary(ctx context.Context, responses []ai.Response) (string, error) {
	return a.generate(ctx, taskSummary, responses)
}

func (a *Advisor) Bullets(ctx context.Context, responses []ai.Response) ([]string, error) {
	raw, err := a.generate(ctx, taskBullets, responses)
	if err != nil {
		return nil, err
	}
	return parseBullets(raw), nil
}

// Gaps asks for the ten most critical maturity gaps.
func (a *Advisor) Gaps(ctx context.Context, responses []ai.Response) ([]ai.Insight, error) {
	raw, err := a.generate(ctx, taskGaps, responses)
	if err != nil {
		return nil, err
	}
	return parseInsights(raw), nil
}

// Drivers asks for the strongest maturity drivers.
func (a *Advisor) Drivers(ctx context.Context, responses []ai.Response) ([]ai.Insight, error) {
	raw, err := a.generate(ctx, taskDrivers, responses)
	if err != nil {
		return nil, err
	}
	return parseInsights(raw), nil
}

func (a *Advisor) generate(ctx context.Context, t task, responses []ai.Response) (string, error) {
	if len(responses) == 0 {
		return "", errors.New("no responses to analyze")
	}

	prompt, err := buildPrompt(t, responses, a.instructions)
	if err != nil {
		return "", err
	}

	a.logger.Debug("gemini generate content request",
		zap.String("task", string(t)),
		zap.Int("responses", len(responses)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.Preview(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, systemInstructions[t], prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", t, err)
	}

	a.logger.Debug("gemini generate content response",
		zap.String("task", string(t)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.Preview(raw, a.maxLogLen)),
	)

	return stripFences(raw), nil
}

func buildPrompt(t task, responses []ai.Response, instructions string) (string, error) {
	template, err := prompts.ReadFile("prompts/" + string(t) + ".md")
	if err != nil {
		return "", fmt.Errorf("prompt template %s: %w", t, err)
	}

	replacer := strings.NewReplacer(
		"{{RESPONSES}}", formatResponses(responses),
		"{{USER_INSTRUCTIONS}}", sanitizeInstructions(instructions),
	)

	return replacer.Replace(string(template)), nil
}

func formatResponses(responses []ai.Response) string {
	var b strings.Builder
	for i, r := range responses {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, singleLine(r.Category), singleLine(r.Question))
		fmt.Fprintf(&b, "   Answer: %s\n", singleLine(r.Answer))
		if comment := singleLine(r.Comment); comment != "" {
			fmt.Fprintf(&b, "   Comment: %s\n", comment)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// sanitizeInstructions renders user guidance as an indented list. Square
// brackets are replaced so the text cannot open a new prompt section.
func sanitizeInstructions(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "  - none"
	}

	if runes := []rune(s); len(runes) > maxUserInstructionRunes {
		s = string(runes[:maxUserInstructionRunes])
	}

	s = strings.NewReplacer("[", "(", "]", ")").Replace(s)

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, "  - "+line)
	}

	return strings.Join(lines, "\n")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if idx := strings.Index(raw, "\n"); idx != -1 {
			raw = raw[idx+1:]
		} else {
			raw = strings.TrimPrefix(raw, "```")
		}
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}

// parseInsights reads numbered "**Heading**/**Context**/**Impact**" blocks.
// Parts that cannot be found are reported as N/A.
func parseInsights(raw string) []ai.Insight {
	entries := insightSplitRe.Split(raw, -1)
	if len(entries) < 2 {
		return nil
	}

	insights := make([]ai.Insight, 0, len(entries)-1)
	for _, entry := range entries[1:] {
		insights = append(insights, ai.Insight{
			Heading: submatch(headingRe, entry),
			Context: submatch(contextRe, entry),
			Impact:  submatch(impactRe, entry),
		})
	}
	return insights
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return notAvailable
	}
	return strings.TrimSpace(m[1])
}

func parseBullets(raw string) []string {
	var bullets, plain []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if loc := bulletRe.FindStringIndex(line); loc != nil {
			bullets = append(bullets, strings.TrimSpace(line[loc[1]:]))
			continue
		}
		plain = append(plain, strings.TrimSpace(line))
	}

	if len(bullets) > 0 {
		return bullets
	}
	return plain
}
