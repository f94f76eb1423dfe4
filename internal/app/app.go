// Package app wires configuration, storage, providers and the HTTP surface
// into a runnable service.
package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nsharma/interviewally/internal/diarize"
	"github.com/nsharma/interviewally/internal/engine"
	"github.com/nsharma/interviewally/internal/eventlog"
	"github.com/nsharma/interviewally/internal/httpapi"
	"github.com/nsharma/interviewally/internal/index"
	"github.com/nsharma/interviewally/internal/jobs"
	"github.com/nsharma/interviewally/internal/llm"
	"github.com/nsharma/interviewally/internal/notifications"
	"github.com/nsharma/interviewally/internal/store"
	"github.com/nsharma/interviewally/internal/stt"
)

type App struct {
	cfg         Config
	logger      *log.Logger
	db          *pgxpool.Pool
	store       *store.Store
	eventLog    *eventlog.Logger
	index       *index.Index
	llm         llm.Client
	transcriber stt.Transcriber
	diarizer    diarize.Diarizer
	engine      *engine.Engine
	progress    *httpapi.ProgressHub
	worker      *jobs.ProcessingWorker
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := store.New(db)
	el := eventlog.New(db)

	// Migrations are applied externally by the CI deploy job (docker exec psql).
	// No automatic migration runner at startup.

	// Shared HTTP client with connection pooling for the external providers.
	// Transcription of long recordings needs the generous timeout.
	providerClient := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	transcriber, err := newTranscriber(cfg, logger, providerClient)
	if err != nil {
		db.Close()
		return nil, err
	}

	var diarizer diarize.Diarizer = unconfiguredDiarizer{}
	if cfg.DiarizerURL != "" {
		diarizer = diarize.NewPyannoteDiarizer(cfg.DiarizerURL, providerClient)
	}

	eng, err := newEngine(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	ai := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		HTTPClient: providerClient,
	})

	embedder := index.NewOpenAIEmbedder(index.OpenAIEmbedderConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.EmbeddingModel,
		HTTPClient: providerClient,
	})
	idx := index.New(db, embedder)

	apns, err := notifications.NewAPNsClient(notifications.APNsConfig{
		KeyPath:    cfg.APNsKeyPath,
		KeyID:      cfg.APNsKeyID,
		TeamID:     cfg.APNsTeamID,
		BundleID:   cfg.APNsBundleID,
		Production: cfg.APNsProduction,
	}, logger)
	if err != nil {
		logger.Printf("Warning: APNs client initialization failed: %v", err)
	}

	progress := httpapi.NewProgressHub()

	worker := jobs.NewProcessingWorker(jobs.WorkerConfig{
		Store:       s,
		Events:      el,
		Transcriber: transcriber,
		Diarizer:    diarizer,
		Engine:      eng,
		Index:       idx,
		LLM:         ai,
		APNs:        apns,
		Discord:     notifications.NewDiscord(cfg.DiscordWebhookURL, logger),
		Progress:    progress,
		Logger:      logger,
		UploadDir:   cfg.UploadDir,
		Interval:    cfg.WorkerPollInterval,
	})

	return &App{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		store:       s,
		eventLog:    el,
		index:       idx,
		llm:         ai,
		transcriber: transcriber,
		diarizer:    diarizer,
		engine:      eng,
		progress:    progress,
		worker:      worker,
	}, nil
}

func newTranscriber(cfg Config, logger *log.Logger, httpClient *http.Client) (stt.Transcriber, error) {
	switch cfg.STTProvider {
	case "deepgram", "":
		if cfg.DeepgramAPIKey == "" {
			return nil, errors.New("DEEPGRAM_API_KEY is required when STT_PROVIDER=deepgram")
		}
		return stt.NewDeepgramTranscriber(stt.DeepgramConfig{
			APIKey:     cfg.DeepgramAPIKey,
			Model:      cfg.DeepgramModel,
			HTTPClient: httpClient,
		}), nil
	case "whisperx":
		return &stt.WhisperXTranscriber{
			Command: cfg.WhisperXBinary,
			Model:   cfg.WhisperXModel,
			Logger:  logger,
		}, nil
	default:
		return nil, errors.New("unknown STT_PROVIDER: " + cfg.STTProvider)
	}
}

func newEngine(cfg Config) (*engine.Engine, error) {
	eng := engine.New()
	if cfg.EngineMaxGap > 0 {
		eng.MaxGap = cfg.EngineMaxGap
	}
	if cfg.TagRulesPath != "" {
		rules, err := engine.LoadTagRules(cfg.TagRulesPath)
		if err != nil {
			return nil, err
		}
		eng.Rules = rules
	}
	return eng, nil
}

// unconfiguredDiarizer always errors; the worker degrades to its silence
// heuristic, which needs the transcription segments we don't have here.
type unconfiguredDiarizer struct{}

func (unconfiguredDiarizer) Diarize(context.Context, string) ([]engine.SpeakerInterval, error) {
	return nil, errors.New("no diarization sidecar configured")
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		UploadDir:         a.cfg.UploadDir,
		MaxUploadBytes:    a.cfg.MaxUploadBytes,
		JWTSecret:         a.cfg.JWTSecret,
		JWTExpiry:         a.cfg.JWTExpiry,
		DiscordWebhookURL: a.cfg.DiscordWebhookURL,
		APNsKeyPath:       a.cfg.APNsKeyPath,
		APNsKeyID:         a.cfg.APNsKeyID,
		APNsTeamID:        a.cfg.APNsTeamID,
		APNsBundleID:      a.cfg.APNsBundleID,
		APNsProduction:    a.cfg.APNsProduction,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.store, a.eventLog, a.index, a.llm, a.progress)
}

// StartWorker launches the background processing worker.
func (a *App) StartWorker() {
	a.worker.Start()
}

// StopWorker stops the worker, letting an in-flight interview finish.
func (a *App) StopWorker() {
	a.worker.Stop()
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
