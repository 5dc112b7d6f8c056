// Package app assembles the service components from configuration. Both the
// HTTP server and the admin tool start from here.
package app

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"grievance-intake-go/internal/assistant"
	"grievance-intake-go/internal/classifier"
	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/events"
	"grievance-intake-go/internal/llm"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/normalizer"
	"grievance-intake-go/internal/pipeline"
	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/transcription"
	"grievance-intake-go/internal/translation"
	"grievance-intake-go/internal/workflow"
)

type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Store      *storage.Store
	Events     events.Publisher
	Normalizer *normalizer.Normalizer
	Classifier *classifier.Classifier
	Pipeline   *pipeline.Pipeline
	Workflow   *workflow.Workflow
	Assistant  *assistant.Assistant
}

// Build connects storage (and Redis when configured) and wires the pipeline.
// Without an AI gateway the classifier is keyword-only and translation is off.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := storage.Open(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Store: storage.New(db, log), Events: events.NopPublisher{}}

	if cfg.Redis.Enabled() {
		rdb, err := events.Connect(ctx, cfg.Redis, cfg.DB.ConnectTimeout, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		a.Events = events.NewRedisPublisher(rdb, log)
	} else {
		log.Info("REDIS_ADDR not set, complaint events are not published")
	}

	var completer llm.Completer
	var translator translation.Translator
	client, err := llm.NewClient(cfg.AI, log)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Warn("LLM gateway not configured, using keyword classification without translation")
	case err != nil:
		a.Close()
		return nil, err
	default:
		completer = client
		translator = translation.NewCachedTranslator(
			translation.NewLLMTranslator(client, log),
			cfg.Translation.CacheSize,
			cfg.Translation.CacheTTL,
		)
	}

	a.Normalizer = normalizer.New(transcription.New(cfg.Transcribe, log), translator, log)
	a.Classifier = classifier.New(completer, log)
	a.Pipeline = pipeline.New(a.Normalizer, a.Classifier, a.Store, a.Events, log)
	a.Workflow = workflow.New(a.Store, a.Events, log)
	a.Assistant = assistant.New(completer, log)
	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
