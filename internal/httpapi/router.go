// Package httpapi exposes the REST and WebSocket surface: upload and track
// interviews, read structured chunks, and talk to the coaching endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/nsharma/interviewally/internal/engine"
	"github.com/nsharma/interviewally/internal/eventlog"
	"github.com/nsharma/interviewally/internal/index"
	"github.com/nsharma/interviewally/internal/llm"
	"github.com/nsharma/interviewally/internal/notifications"
	"github.com/nsharma/interviewally/internal/store"
)

type RouterConfig struct {
	// Uploads
	UploadDir      string
	MaxUploadBytes int64 // default 500 MB

	// JWT Authentication
	JWTSecret string
	JWTExpiry time.Duration

	// Notifications
	DiscordWebhookURL string

	// APNs Push Notifications
	APNsKeyPath    string // Path to .p8 key file
	APNsKeyID      string // Key ID from Apple Developer Portal
	APNsTeamID     string // Team ID from Apple Developer Portal
	APNsBundleID   string // App bundle ID (e.g., io.interviewally.app)
	APNsProduction bool   // Use production environment
}

// ChunkIndex is the retrieval surface handlers need from the chunk index.
type ChunkIndex interface {
	ListChunks(ctx context.Context, interviewID string) ([]engine.ChunkRecord, error)
	Search(ctx context.Context, interviewID, query string, k int) ([]index.ScoredChunk, error)
}

type Router struct {
	cfg      RouterConfig
	logger   *log.Logger
	store    *store.Store
	eventLog *eventlog.Logger
	index    ChunkIndex
	llm      llm.Client
	discord  *notifications.Discord
	apns     *notifications.APNsClient
	progress *ProgressHub
	mux      *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, s *store.Store, eventLog *eventlog.Logger, idx ChunkIndex, ai llm.Client, progress *ProgressHub) http.Handler {
	// Initialize APNs client (may be nil if not configured)
	apnsClient, err := notifications.NewAPNsClient(notifications.APNsConfig{
		KeyPath:    cfg.APNsKeyPath,
		KeyID:      cfg.APNsKeyID,
		TeamID:     cfg.APNsTeamID,
		BundleID:   cfg.APNsBundleID,
		Production: cfg.APNsProduction,
	}, logger)
	if err != nil {
		logger.Printf("Warning: APNs client initialization failed: %v", err)
	}

	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 500 << 20
	}

	r := &Router{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		eventLog: eventLog,
		index:    idx,
		llm:      ai,
		discord:  notifications.NewDiscord(cfg.DiscordWebhookURL, logger),
		apns:     apnsClient,
		progress: progress,
		mux:      http.NewServeMux(),
	}

	r.routes()
	return withSentryRecovery(withCORS(r.mux))
}

func (r *Router) routes() {
	// Health check
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)

	// Auth endpoints (public)
	r.mux.HandleFunc("POST /auth/login", r.handleLogin)
	r.mux.HandleFunc("POST /auth/refresh", r.handleRefreshToken)
	r.mux.HandleFunc("POST /auth/logout", r.withAuth(r.handleLogout))

	// Protected API endpoints
	r.mux.HandleFunc("GET /api/me", r.withAuth(r.handleGetMe))
	r.mux.HandleFunc("PATCH /api/me", r.withAuth(r.handleUpdateMe))

	r.mux.HandleFunc("POST /api/interviews", r.withAuth(r.handleUploadInterview))
	r.mux.HandleFunc("GET /api/interviews", r.withAuth(r.handleListInterviews))
	r.mux.HandleFunc("GET /api/interviews/{id}", r.withAuth(r.handleGetInterview))
	r.mux.HandleFunc("DELETE /api/interviews/{id}", r.withAuth(r.handleDeleteInterview))
	r.mux.HandleFunc("POST /api/interviews/{id}/retry", r.withAuth(r.handleRetryInterview))
	r.mux.HandleFunc("GET /api/interviews/{id}/chunks", r.withAuth(r.handleListChunks))
	r.mux.HandleFunc("GET /api/interviews/{id}/events", r.withAuth(r.handleListEvents))

	// Coaching endpoints (protected)
	r.mux.HandleFunc("POST /api/interviews/{id}/analyze", r.withAuth(r.handleAnalyze))
	r.mux.HandleFunc("POST /api/interviews/{id}/rewrite", r.withAuth(r.handleRewrite))
	r.mux.HandleFunc("POST /api/interviews/{id}/chat", r.withAuth(r.handleChat))

	// Processing progress (WebSocket; token in query, not header)
	r.mux.HandleFunc("GET /api/interviews/{id}/progress", r.handleProgressWS)

	// Push notifications (protected)
	r.mux.HandleFunc("POST /api/push/register", r.withAuth(r.handlePushRegister))
	r.mux.HandleFunc("POST /api/push/unregister", r.withAuth(r.handlePushUnregister))
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
