// Package pipeline turns a raw citizen submission into a stored complaint:
// validate, normalize, classify, persist. Only validation and persistence
// failures reach the caller; every AI-side failure degrades to a fallback.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"grievance-intake-go/internal/classifier"
	"grievance-intake-go/internal/events"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/metrics"
	"grievance-intake-go/internal/normalizer"
	"grievance-intake-go/internal/transcription"
	"grievance-intake-go/internal/types"
)

// DegradedTranscription marks a voice submission whose audio could not be transcribed.
const DegradedTranscription = "transcription"

type Normalizer interface {
	Normalize(ctx context.Context, in normalizer.Input) (normalizer.Result, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) classifier.Result
}

type Store interface {
	Create(ctx context.Context, rec *types.ComplaintRecord) error
}

// Result is returned by Submit.
type Result struct {
	Record     *types.ComplaintRecord `json:"complaint"`
	Strategy   string                 `json:"classifiedBy"`
	Degraded   []string               `json:"degraded,omitempty"`
	DurationMs int64                  `json:"durationMs"`
}

type Pipeline struct {
	normalizer Normalizer
	classifier Classifier
	store      Store
	events     events.Publisher
	log        *logger.Logger
	now        func() time.Time
}

func New(n Normalizer, c Classifier, s Store, pub events.Publisher, log *logger.Logger) *Pipeline {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Pipeline{
		normalizer: n,
		classifier: c,
		store:      s,
		events:     pub,
		log:        log.WithComponent("pipeline"),
		now:        time.Now,
	}
}

// Submit ingests one submission. Errors are *types.ValidationError (nothing
// was called or stored) or a storage error (nothing was stored).
func (p *Pipeline) Submit(ctx context.Context, sub types.Submission) (*Result, error) {
	start := time.Now()
	log := p.log.With("submitter_id", sub.SubmitterID)

	lang, err := p.validate(sub)
	if err != nil {
		metrics.RecordSubmission("rejected")
		log.WithError(err).Info("submission rejected")
		return nil, err
	}

	norm, degraded, err := p.normalize(ctx, sub, lang)
	if err != nil {
		metrics.RecordSubmission("rejected")
		return nil, err
	}

	cls := p.classifier.Classify(ctx, norm.NormalizedText)
	if !cls.Category.IsValid() {
		log.WithField("category", string(cls.Category)).Warn("classifier returned unknown category, forcing Other")
		cls.Category = types.CategoryOther
	}

	rec := types.NewComplaintRecord(types.NewComplaintParams{
		SubmitterID:    sub.SubmitterID,
		Contact:        trimContact(sub.Metadata),
		SourceLanguage: lang,
		OriginalText:   norm.OriginalText,
		NormalizedText: norm.NormalizedText,
		Category:       cls.Category,
		Department:     cls.Department,
		AttachmentRef:  sub.AttachmentRef,
	}, p.now())

	if err := p.store.Create(ctx, rec); err != nil {
		metrics.RecordStage("persistence", metrics.OutcomeFailed)
		metrics.RecordSubmission("failed")
		log.WithError(err).Error("complaint not persisted")
		return nil, err
	}
	metrics.RecordStage("persistence", metrics.OutcomeOK)
	metrics.RecordSubmission("accepted")

	if err := p.events.Publish(ctx, events.Submitted(rec)); err != nil {
		log.WithError(err).WithField("complaint_id", rec.ID).Warn("submitted event not published")
	}

	degraded = append(degraded, norm.Degraded...)
	log.WithField("complaint_id", rec.ID).
		WithField("category", string(rec.Category)).
		WithField("strategy", cls.Strategy).
		WithField("degraded", degraded).
		Info("complaint submitted")

	return &Result{
		Record:     rec,
		Strategy:   cls.Strategy,
		Degraded:   degraded,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// validate runs before any external call.
func (p *Pipeline) validate(sub types.Submission) (types.Language, error) {
	if strings.TrimSpace(sub.SubmitterID) == "" {
		return "", &types.ValidationError{Field: "submitterId", Message: "an authenticated submitter is required"}
	}
	if err := trimContact(sub.Metadata).Validate(); err != nil {
		return "", err
	}
	lang, err := types.ParseLanguage(string(sub.Language))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sub.Text) == "" && !sub.IsAudio {
		return "", &types.ValidationError{Field: "complaintText", Message: "provide complaint text or voice input"}
	}
	return lang, nil
}

// normalize absorbs transcription failure: typed text is used when present,
// otherwise the placeholder stands in for the complaint body.
func (p *Pipeline) normalize(ctx context.Context, sub types.Submission, lang types.Language) (normalizer.Result, []string, error) {
	in := normalizer.Input{Text: sub.Text, Audio: sub.Audio, IsAudio: sub.IsAudio, Language: lang}
	res, err := p.normalizer.Normalize(ctx, in)
	var degraded []string
	if err != nil {
		if !errors.Is(err, transcription.ErrTranscriptionFailed) {
			p.log.WithError(err).Warn("unexpected normalizer error, treating as transcription failure")
		}
		degraded = append(degraded, DegradedTranscription)
		in = normalizer.Input{Text: sub.Text, Language: lang}
		if strings.TrimSpace(sub.Text) == "" {
			in = normalizer.Input{Text: normalizer.TranscriptionPlaceholder, Language: types.LanguageEnglish}
		}
		if res, err = p.normalizer.Normalize(ctx, in); err != nil {
			res = normalizer.Result{OriginalText: strings.TrimSpace(in.Text), NormalizedText: strings.TrimSpace(in.Text)}
		}
	}
	if res.OriginalText == "" && res.NormalizedText == "" {
		return res, degraded, &types.ValidationError{Field: "complaintText", Message: "provide complaint text or voice input"}
	}
	return res, degraded, nil
}

func trimContact(m types.ContactMetadata) types.ContactMetadata {
	return types.ContactMetadata{
		Name:     strings.TrimSpace(m.Name),
		Mobile:   strings.TrimSpace(m.Mobile),
		AreaCode: strings.TrimSpace(m.AreaCode),
	}
}
