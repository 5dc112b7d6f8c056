// Package normalizer turns a raw submission (typed or spoken, in any supported
// language) into its original text plus a canonical English rendering.
package normalizer

import (
	"context"
	"fmt"
	"strings"

	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/metrics"
	"grievance-intake-go/internal/transcription"
	"grievance-intake-go/internal/translation"
	"grievance-intake-go/internal/types"
)

// TranscriptionPlaceholder stands in for the complaint text when a voice
// submission could not be transcribed and nothing was typed.
const TranscriptionPlaceholder = "[Voice complaint - transcription unavailable]"

// Degradation markers reported in Result.Degraded.
const (
	DegradedTranslation = "translation"
	DegradedEmptyOutput = "empty_output"
)

type Input struct {
	Text     string
	Audio    []byte
	IsAudio  bool
	Language types.Language
}

type Result struct {
	OriginalText   string
	NormalizedText string
	Transcribed    bool
	Translated     bool
	Degraded       []string
}

type Normalizer struct {
	transcriber transcription.Transcriber
	translator  translation.Translator
	log         *logger.Logger
}

// New wires the normalizer. A nil translator means every non-English text is
// passed through untranslated.
func New(tr transcription.Transcriber, tl translation.Translator, log *logger.Logger) *Normalizer {
	return &Normalizer{transcriber: tr, translator: tl, log: log.WithComponent("normalizer")}
}

// Normalize returns an error only when transcription fails; the error wraps
// transcription.ErrTranscriptionFailed. Translation failures degrade to the
// original text.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (Result, error) {
	lang := in.Language
	if !lang.IsValid() {
		lang = types.LanguageEnglish
	}

	var res Result
	original := strings.TrimSpace(in.Text)
	if in.IsAudio {
		text, err := n.transcriber.Transcribe(ctx, in.Audio, lang.Locale())
		if err != nil {
			metrics.RecordStage("transcription", metrics.OutcomeFailed)
			n.log.WithError(err).Warn("transcription failed")
			return Result{}, fmt.Errorf("normalize: %w", err)
		}
		metrics.RecordStage("transcription", metrics.OutcomeOK)
		original = strings.TrimSpace(text)
		res.Transcribed = true
	}
	res.OriginalText = original

	normalized := original
	switch {
	case original == "":
	case lang == types.LanguageEnglish:
		metrics.RecordStage("translation", metrics.OutcomeSkipped)
	case n.translator == nil:
		metrics.RecordStage("translation", metrics.OutcomeSkipped)
		res.Degraded = append(res.Degraded, DegradedTranslation)
	default:
		out, err := n.translator.Translate(ctx, original, lang, types.LanguageEnglish)
		if err != nil {
			metrics.RecordStage("translation", metrics.OutcomeFallback)
			n.log.WithError(err).WithField("language", string(lang)).Warn("translation failed, keeping original text")
			res.Degraded = append(res.Degraded, DegradedTranslation)
			break
		}
		metrics.RecordStage("translation", metrics.OutcomeOK)
		normalized = strings.TrimSpace(out)
		res.Translated = true
	}

	if normalized == "" {
		if original != "" {
			res.Degraded = append(res.Degraded, DegradedEmptyOutput)
		}
		normalized = original
	}
	res.NormalizedText = normalized
	return res, nil
}

// FromEnglish renders English text (authority remarks, assistant replies) in
// the citizen's language. Any failure yields the English text.
func (n *Normalizer) FromEnglish(ctx context.Context, text string, target types.Language) string {
	if target == types.LanguageEnglish || !target.IsValid() || n.translator == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := n.translator.Translate(ctx, text, types.LanguageEnglish, target)
	if err != nil || strings.TrimSpace(out) == "" {
		n.log.WithError(err).WithField("language", string(target)).Warn("reverse translation failed")
		return text
	}
	return strings.TrimSpace(out)
}
