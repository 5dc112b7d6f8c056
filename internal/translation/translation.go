// Package translation converts complaint text between the supported languages.
package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"grievance-intake-go/internal/llm"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/metrics"
	"grievance-intake-go/internal/types"
)

// ErrTranslationFailed wraps every failure a Translator reports.
var ErrTranslationFailed = errors.New("translation failed")

type Translator interface {
	Translate(ctx context.Context, text string, source, target types.Language) (string, error)
}

// LLMTranslator asks the chat gateway for a plain translation.
type LLMTranslator struct {
	llm llm.Completer
	log *logger.Logger
}

func NewLLMTranslator(c llm.Completer, log *logger.Logger) *LLMTranslator {
	return &LLMTranslator{llm: c, log: log.WithComponent("translation")}
}

func (t *LLMTranslator) Translate(ctx context.Context, text string, source, target types.Language) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty input", ErrTranslationFailed)
	}
	if source == target {
		return text, nil
	}

	prompt := fmt.Sprintf(
		"Translate the following %s text to %s. Provide only the translated text without any explanation or additional commentary.\n\nText: %s",
		source.Name(), target.Name(), text,
	)
	msgs := []llm.Message{
		{Role: "system", Content: "You are a professional translator. Translate text accurately while preserving the meaning and tone."},
		{Role: "user", Content: prompt},
	}
	out, err := t.llm.Complete(ctx, msgs, llm.Options{Temperature: 0.3, MaxTokens: 500})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	out = Clean(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty result", ErrTranslationFailed)
	}
	t.log.WithField("source", string(source)).WithField("target", string(target)).Debug("translated")
	return out, nil
}

// Clean strips code fences and surrounding quotes models like to add.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.Contains(s[:i], " ") {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	for _, q := range []string{`"`, "'", "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(s) >= len(q)+len(closing) && strings.HasPrefix(s, q) && strings.HasSuffix(s, closing) {
			s = strings.TrimSpace(s[len(q) : len(s)-len(closing)])
		}
	}
	return s
}

// CachedTranslator memoizes successful translations of another Translator.
type CachedTranslator struct {
	next  Translator
	cache *expirable.LRU[string, string]
}

func NewCachedTranslator(next Translator, size int, ttl time.Duration) *CachedTranslator {
	if size <= 0 {
		size = 512
	}
	return &CachedTranslator{
		next:  next,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *CachedTranslator) Translate(ctx context.Context, text string, source, target types.Language) (string, error) {
	key := string(source) + ">" + string(target) + "|" + text
	if out, ok := c.cache.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return out, nil
	}
	metrics.RecordCacheLookup(false)

	out, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	if out != "" {
		c.cache.Add(key, out)
	}
	return out, nil
}

// Len reports the number of cached entries.
func (c *CachedTranslator) Len() int { return c.cache.Len() }
