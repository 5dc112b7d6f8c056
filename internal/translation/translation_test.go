package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grievance-intake-go/internal/llm"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/types"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, msgs []llm.Message, opts llm.Options) (string, error) {
	args := m.Called(ctx, msgs, opts)
	return args.String(0), args.Error(1)
}

type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) Translate(ctx context.Context, text string, source, target types.Language) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

func TestLLMTranslator_Translate(t *testing.T) {
	c := new(mockCompleter)
	c.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []llm.Message) bool {
		return len(msgs) == 2 && msgs[0].Role == "system" && msgs[1].Role == "user"
	}), mock.Anything).Return("\"No water for three days\"", nil).Once()

	out, err := NewLLMTranslator(c, logger.Discard()).Translate(context.Background(), "तीन दिन से पानी नहीं", types.LanguageHindi, types.LanguageEnglish)

	require.NoError(t, err)
	assert.Equal(t, "No water for three days", out)
	c.AssertExpectations(t)
}

func TestLLMTranslator_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
	}{
		{"gateway error", "", errors.New("timeout")},
		{"empty after cleaning", "\"\"", nil},
		{"fence only", "```\n```", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(mockCompleter)
			c.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(tt.content, tt.err)

			_, err := NewLLMTranslator(c, logger.Discard()).Translate(context.Background(), "पाणी", types.LanguageMarathi, types.LanguageEnglish)
			assert.ErrorIs(t, err, ErrTranslationFailed)
		})
	}
}

func TestLLMTranslator_SameLanguageSkipsGateway(t *testing.T) {
	c := new(mockCompleter)
	out, err := NewLLMTranslator(c, logger.Discard()).Translate(context.Background(), "road broken", types.LanguageEnglish, types.LanguageEnglish)
	require.NoError(t, err)
	assert.Equal(t, "road broken", out)
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestClean(t *testing.T) {
	tests := map[string]string{
		"  plain  ":                 "plain",
		"\"quoted\"":                "quoted",
		"'single'":                  "single",
		"“curly”":                   "curly",
		"```\nfenced\n```":          "fenced",
		"```text\nfenced text\n```": "fenced text",
		"```inline```":              "inline",
		"He said \"hi\" to me":      "He said \"hi\" to me",
	}
	for in, want := range tests {
		assert.Equal(t, want, Clean(in), "input %q", in)
	}
}

func TestCachedTranslator(t *testing.T) {
	next := new(mockTranslator)
	next.On("Translate", mock.Anything, "पानी", types.LanguageHindi, types.LanguageEnglish).Return("water", nil).Once()
	next.On("Translate", mock.Anything, "बिजली", types.LanguageHindi, types.LanguageEnglish).Return("", errors.New("down")).Twice()

	c := NewCachedTranslator(next, 8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := c.Translate(ctx, "पानी", types.LanguageHindi, types.LanguageEnglish)
		require.NoError(t, err)
		assert.Equal(t, "water", out)
	}

	// failures are not cached
	_, err := c.Translate(ctx, "बिजली", types.LanguageHindi, types.LanguageEnglish)
	assert.Error(t, err)
	_, err = c.Translate(ctx, "बिजली", types.LanguageHindi, types.LanguageEnglish)
	assert.Error(t, err)

	assert.Equal(t, 1, c.Len())
	next.AssertExpectations(t)
}
