// Package classifier assigns a category and routing department to normalized
// complaint text. The AI strategy is tried first when configured; the keyword
// strategy always answers.
package classifier

import (
	"context"
	"errors"
	"strings"

	"grievance-intake-go/internal/llm"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/metrics"
	"grievance-intake-go/internal/types"
)

const (
	StrategyAI      = "ai"
	StrategyKeyword = "keyword"
)

var errChainExhausted = errors.New("no strategy produced a valid category")

type Result struct {
	Category    types.Category `json:"category"`
	Department  string         `json:"department"`
	Strategy    string         `json:"strategy"`
	Explanation string         `json:"explanation,omitempty"`
}

type Strategy interface {
	Name() string
	Classify(ctx context.Context, text string) (Result, error)
}

// Chain tries strategies in order and returns the first result whose category
// is a member of the enum.
type Chain struct {
	strategies []Strategy
	log        *logger.Logger
}

func NewChain(log *logger.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, log: log}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Classify(ctx context.Context, text string) (Result, error) {
	for _, s := range c.strategies {
		res, err := s.Classify(ctx, text)
		if err != nil {
			c.log.WithError(err).WithField("strategy", s.Name()).Warn("classification strategy failed, falling through")
			continue
		}
		if !res.Category.IsValid() {
			c.log.WithField("strategy", s.Name()).WithField("category", string(res.Category)).Warn("strategy returned unknown category, falling through")
			continue
		}
		if res.Department == "" {
			res.Department = types.DefaultDepartment
		}
		return res, nil
	}
	return Result{}, errChainExhausted
}

// Classifier is the entry point used by the pipeline. It never fails.
type Classifier struct {
	chain    *Chain
	primary  string
	fallback *KeywordStrategy
	log      *logger.Logger
}

// New selects strategies once. A nil completer means the AI backend is not
// configured and only keyword matching runs.
func New(c llm.Completer, log *logger.Logger) *Classifier {
	log = log.WithComponent("classifier")
	kw := NewKeywordStrategy(nil)
	strategies := []Strategy{kw}
	if c != nil {
		strategies = []Strategy{NewAIStrategy(c, log), kw}
	}
	return NewWithStrategies(log, kw, strategies...)
}

// NewWithStrategies builds a classifier over an explicit chain. fallback
// answers when every strategy in the chain is rejected.
func NewWithStrategies(log *logger.Logger, fallback *KeywordStrategy, strategies ...Strategy) *Classifier {
	primary := StrategyKeyword
	if len(strategies) > 0 {
		primary = strategies[0].Name()
	}
	return &Classifier{
		chain:    NewChain(log, strategies...),
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		metrics.RecordStage("classification", metrics.OutcomeSkipped)
		return c.fallback.classify("")
	}
	res, err := c.chain.Classify(ctx, text)
	if err != nil {
		metrics.RecordStage("classification", metrics.OutcomeFallback)
		return c.fallback.classify(text)
	}
	if res.Strategy == c.primary {
		metrics.RecordStage("classification", metrics.OutcomeOK)
	} else {
		metrics.RecordStage("classification", metrics.OutcomeFallback)
	}
	c.log.WithField("category", string(res.Category)).WithField("strategy", res.Strategy).Debug("classified")
	return res
}

// Suggest previews the classification a submission would get, with a short
// explanation for the citizen. Nothing is persisted.
func (c *Classifier) Suggest(ctx context.Context, text string) Result {
	res := c.Classify(ctx, text)
	if res.Explanation == "" {
		res.Explanation = "Your complaint will be routed to the " + res.Department + "."
	}
	return res
}
