package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/workload-radar/internal/ai"
	"github.com/spigell/workload-radar/internal/utils"
	"github.com/spigell/workload-radar/internal/workload"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Estimator asks Gemini for the placeholder figures of people and work
// items. Answers are memoized by prompt hash for the life of the process.
type Estimator struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int

	cacheMu sync.RWMutex
	cache   map[string]*ai.Assessment
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200

	kindPerson = "person"
	kindItem   = "work item"

	personTask = "Estimate the burnout risk and productivity of this person from their allocation (fte), skills and project."
	itemTask   = "Estimate the complexity of this work item from its title, progress and schedule."
)

func NewEstimator(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Estimator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Estimator{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
		cache:     make(map[string]*ai.Assessment),
	}
}

func (e *Estimator) Model() string {
	return e.generator.Model()
}

func (e *Estimator) EstimatePerson(ctx context.Context, person workload.Person) (*ai.Assessment, error) {
	subject := map[string]any{
		"name":    sanitizeSingleLine(person.Name),
		"skills":  person.Skills,
		"fte":     person.FTE,
		"project": sanitizeSingleLine(person.CurrentProject),
	}

	assessment, err := e.estimate(ctx, kindPerson, personTask, subject)
	if err != nil {
		return nil, fmt.Errorf("estimate person %q: %w", person.Name, err)
	}

	assessment.Complexity = 0
	return assessment, nil
}

func (e *Estimator) EstimateItem(ctx context.Context, item workload.WorkItem) (*ai.Assessment, error) {
	subject := map[string]any{
		"title":            sanitizeSingleLine(item.Title),
		"actual_progress":  item.ActualProgress,
		"planned_progress": item.PlannedProgress,
		"start":            item.Start,
		"end":              item.End,
	}

	assessment, err := e.estimate(ctx, kindItem, itemTask, subject)
	if err != nil {
		return nil, fmt.Errorf("estimate item %q: %w", item.Title, err)
	}

	assessment.BurnoutRisk = 0
	assessment.Productivity = 0
	return assessment, nil
}

func (e *Estimator) estimate(ctx context.Context, kind, task string, subject map[string]any) (*ai.Assessment, error) {
	subjectJSON, err := json.MarshalIndent(subject, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}

	prompt := buildPrompt(kind, task, string(subjectJSON))
	key := fmt.Sprintf("%x", sha256.Sum256([]byte(prompt)))

	e.cacheMu.RLock()
	cached, ok := e.cache[key]
	e.cacheMu.RUnlock()
	if ok {
		copied := *cached
		return &copied, nil
	}

	e.logger.Debug("gemini generate content request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(string(subjectJSON), e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	assessment, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	assessment.Raw = raw

	e.cacheMu.Lock()
	e.cache[key] = assessment
	e.cacheMu.Unlock()

	copied := *assessment
	return &copied, nil
}

func buildPrompt(kind, task, subjectJSON string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "{{TASK}}\n\n{{KIND}}:\n{{SUBJECT_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{TASK}}", task)
	prompt = strings.ReplaceAll(prompt, "{{KIND}}", kind)
	prompt = strings.ReplaceAll(prompt, "{{SUBJECT_JSON}}", subjectJSON)
	return prompt
}

// sanitizeSingleLine flattens whitespace and swaps square brackets so
// workspace text cannot open a new prompt section.
func sanitizeSingleLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.NewReplacer("[", "(", "]", ")").Replace(s)
}

func parseResponse(raw string) (*ai.Assessment, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = extractJSON(cleaned)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.Assessment{
		BurnoutRisk:  clamp(coerceFloat(data["burnout_risk"]), 0, 1),
		Productivity: int(math.Round(clamp(coerceFloat(data["productivity"]), 0, 100))),
		Complexity:   clamp(coerceFloat(data["complexity"]), 0, 1),
		Reason:       coerceString(data["reason"]),
	}, nil
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v) || v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
