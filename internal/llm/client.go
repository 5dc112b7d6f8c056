// Package llm talks to an OpenAI-compatible chat completion gateway. Each call
// is a single bounded attempt; callers own the fallback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/logger"
)

var (
	ErrNotConfigured = errors.New("llm gateway not configured")
	ErrNoJSON        = errors.New("no JSON found in LLM output")
	ErrEmptyContent  = errors.New("empty LLM content")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completer is the seam the classifier, translator and assistant depend on.
type Completer interface {
	Complete(ctx context.Context, msgs []Message, opts Options) (string, error)
}

type Client struct {
	url     string
	apiKey  string
	model   string
	timeout time.Duration
	http    *http.Client
	log     *logger.Logger
}

// NewClient returns ErrNotConfigured when the gateway is absent so callers can
// select their non-AI strategy at construction time.
func NewClient(cfg config.AIConfig, log *logger.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		url:     cfg.GatewayURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithComponent("llm"),
	}, nil
}

// Complete sends one chat completion request and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, msgs []Message, opts Options) (string, error) {
	reqBody := map[string]any{
		"model":       c.model,
		"messages":    msgs,
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		reqBody["max_tokens"] = opts.MaxTokens
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode llm request: %w", err)
	}
	c.log.WithField("payload_len", len(data)).Debug("LLM request payload")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build llm request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("llm request failed")
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}
	c.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("llm gateway status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	content, ok := ContentFromChoices(body)
	if !ok {
		return "", fmt.Errorf("unexpected llm response shape: %s", truncate(string(body), 200))
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

// ContentFromChoices reads openai-style choices[0].message.content.
func ContentFromChoices(body []byte) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return "", false
	}

	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return "", false
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return "", false
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return "", false
	}
	content, ok := msg["content"].(string)
	return content, ok
}

// ExtractJSON finds the first balanced JSON object in a string and returns it.
// It strips common markdown fences first.
func ExtractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")

	// Remove markdown fences (commonly output by LLMs)
	for _, r := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	return ""
}

// DecodeJSON extracts the first JSON object from content into v.
func DecodeJSON(content string, v any) error {
	raw := ExtractJSON(content)
	if raw == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode llm JSON: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
