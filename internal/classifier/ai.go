package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grievance-intake-go/internal/llm"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/types"
)

// ErrRejected marks an AI answer that parsed but named no known category.
var ErrRejected = errors.New("classification rejected")

const aiPromptTemplate = `You are an AI assistant for an Indian government grievance system.
Analyze the following citizen complaint and categorize it.

Complaint: %q

Respond ONLY with a JSON object in this exact format (no markdown, no backticks):
{
  "category": "<one of: %s>",
  "department": "<specific government department name>",
  "explanation": "<one sentence on why this category fits>"
}`

type aiAnswer struct {
	Category    string `json:"category"`
	Department  string `json:"department"`
	Explanation string `json:"explanation"`
}

// AIStrategy asks the chat gateway for a structured classification.
type AIStrategy struct {
	llm llm.Completer
	log *logger.Logger
}

func NewAIStrategy(c llm.Completer, log *logger.Logger) *AIStrategy {
	return &AIStrategy{llm: c, log: log}
}

func (a *AIStrategy) Name() string { return StrategyAI }

func (a *AIStrategy) Classify(ctx context.Context, text string) (Result, error) {
	names := make([]string, 0, len(types.Categories()))
	for _, c := range types.Categories() {
		names = append(names, string(c))
	}
	prompt := fmt.Sprintf(aiPromptTemplate, text, strings.Join(names, ", "))

	content, err := a.llm.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Options{Temperature: 0.3, MaxTokens: 200})
	if err != nil {
		return Result{}, fmt.Errorf("ai classify: %w", err)
	}

	var ans aiAnswer
	if err := llm.DecodeJSON(content, &ans); err != nil {
		return Result{}, fmt.Errorf("ai classify: %w", err)
	}
	cat, ok := matchCategory(ans.Category)
	if !ok {
		return Result{}, fmt.Errorf("%w: category %q", ErrRejected, ans.Category)
	}
	dept := strings.TrimSpace(ans.Department)
	if dept == "" {
		dept = types.DefaultDepartment
	}
	return Result{
		Category:    cat,
		Department:  dept,
		Strategy:    StrategyAI,
		Explanation: strings.TrimSpace(ans.Explanation),
	}, nil
}

// matchCategory accepts the enum value ignoring case and surrounding space.
func matchCategory(s string) (types.Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range types.Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}
