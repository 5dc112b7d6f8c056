package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/logger"
)

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func newTestClient(t *testing.T, url string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(config.AIConfig{GatewayURL: url, APIKey: "k", Model: "m", Timeout: timeout}, logger.Discard())
	require.NoError(t, err)
	return c
}

func TestNewClient_NotConfigured(t *testing.T) {
	_, err := NewClient(config.AIConfig{}, logger.Discard())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestComplete_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		io.WriteString(w, chatBody("  hello  "))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	out, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{Temperature: 0.3, MaxTokens: 150})

	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "m", gotBody["model"])
	assert.Equal(t, float64(150), gotBody["max_tokens"])
}

func TestComplete_SingleAttemptOnServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Second)
	_, err := c.Complete(context.Background(), nil, Options{})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 50*time.Millisecond)
	_, err := c.Complete(context.Background(), nil, Options{})
	assert.Error(t, err)
}

func TestComplete_MalformedAndEmpty(t *testing.T) {
	for name, body := range map[string]string{
		"not json":      "oops",
		"no choices":    `{"choices":[]}`,
		"empty content": chatBody("   "),
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			}))
			defer srv.Close()
			_, err := newTestClient(t, srv.URL, time.Second).Complete(context.Background(), nil, Options{})
			assert.Error(t, err)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`},
		{"brace in string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"unbalanced", `{"a":1`, ""},
		{"none", "no json", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Category string `json:"category"`
	}
	require.NoError(t, DecodeJSON("```json {\"category\":\"Housing\"}```", &v))
	assert.Equal(t, "Housing", v.Category)

	assert.ErrorIs(t, DecodeJSON("nothing here", &v), ErrNoJSON)
}
