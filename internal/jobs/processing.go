// Package jobs runs the background processing pipeline. A worker polls for
// queued interviews and takes each one through transcription, diarization,
// structuring, indexing and analysis, reporting progress as it goes.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nsharma/interviewally/internal/costs"
	"github.com/nsharma/interviewally/internal/diarize"
	"github.com/nsharma/interviewally/internal/engine"
	"github.com/nsharma/interviewally/internal/eventlog"
	"github.com/nsharma/interviewally/internal/llm"
	"github.com/nsharma/interviewally/internal/notifications"
	"github.com/nsharma/interviewally/internal/store"
	"github.com/nsharma/interviewally/internal/stt"
)

// Storage is the slice of the store the worker needs.
type Storage interface {
	ClaimQueuedInterview(ctx context.Context) (*store.Interview, error)
	SaveTranscript(ctx context.Context, id string, transcript json.RawMessage) error
	SaveAnalysis(ctx context.Context, id string, analysis json.RawMessage) error
	MarkInterviewCompleted(ctx context.Context, id string) error
	MarkInterviewFailed(ctx context.Context, id, errMsg string) error
	GetUserDevices(ctx context.Context, userID string) ([]store.DevicePushToken, error)
}

// Indexer stores embedded chunks for retrieval.
type Indexer interface {
	IndexChunks(ctx context.Context, interviewID string, chunks []engine.ChunkRecord) error
}

// ProgressPublisher pushes stage updates to connected clients.
type ProgressPublisher interface {
	Publish(interviewID, stage string)
}

// ProcessingWorker polls for queued interviews and runs the pipeline on each.
type ProcessingWorker struct {
	store       Storage
	events      *eventlog.Logger
	transcriber stt.Transcriber
	diarizer    diarize.Diarizer
	engine      *engine.Engine
	index       Indexer
	llm         llm.Client
	apns        *notifications.APNsClient
	discord     *notifications.Discord
	progress    ProgressPublisher
	logger      *log.Logger
	uploadDir   string
	interval    time.Duration
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// WorkerConfig wires the worker's collaborators.
type WorkerConfig struct {
	Store       Storage
	Events      *eventlog.Logger
	Transcriber stt.Transcriber
	Diarizer    diarize.Diarizer
	Engine      *engine.Engine
	Index       Indexer
	LLM         llm.Client
	APNs        *notifications.APNsClient
	Discord     *notifications.Discord
	Progress    ProgressPublisher
	Logger      *log.Logger
	UploadDir   string
	Interval    time.Duration // Poll interval, default 5s
}

// NewProcessingWorker creates a new worker.
func NewProcessingWorker(cfg WorkerConfig) *ProcessingWorker {
	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	eng := cfg.Engine
	if eng == nil {
		eng = engine.New()
	}
	return &ProcessingWorker{
		store:       cfg.Store,
		events:      cfg.Events,
		transcriber: cfg.Transcriber,
		diarizer:    cfg.Diarizer,
		engine:      eng,
		index:       cfg.Index,
		llm:         cfg.LLM,
		apns:        cfg.APNs,
		discord:     cfg.Discord,
		progress:    cfg.Progress,
		logger:      cfg.Logger,
		uploadDir:   cfg.UploadDir,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the background worker.
func (w *ProcessingWorker) Start() {
	w.wg.Add(1)
	go w.run()
	w.logger.Printf("ProcessingWorker: started (interval=%v)", w.interval)
}

// Stop gracefully stops the worker. The interview being processed, if any,
// finishes first.
func (w *ProcessingWorker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.logger.Println("ProcessingWorker: stopped")
}

func (w *ProcessingWorker) run() {
	defer w.wg.Done()

	// Drain anything left over from a previous run before waiting.
	w.drainQueue()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.drainQueue()
		case <-w.stopCh:
			return
		}
	}
}

func (w *ProcessingWorker) drainQueue() {
	ctx := context.Background()
	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		iv, err := w.store.ClaimQueuedInterview(ctx)
		if err != nil {
			w.logger.Printf("ProcessingWorker: failed to claim interview: %v", err)
			return
		}
		if iv == nil {
			return
		}
		w.processInterview(ctx, iv)
	}
}

func (w *ProcessingWorker) audioPath(iv *store.Interview) string {
	return filepath.Join(w.uploadDir, iv.ID+filepath.Ext(iv.Filename))
}

func (w *ProcessingWorker) processInterview(ctx context.Context, iv *store.Interview) {
	started := time.Now()
	path := w.audioPath(iv)
	w.publish(iv.ID, "processing")

	// Transcription
	w.logEvent(ctx, iv.ID, eventlog.EventTranscriptionStarted, nil)
	segments, err := w.transcriber.Transcribe(ctx, path)
	if err != nil {
		w.fail(ctx, iv, "transcription", err)
		return
	}
	w.logEvent(ctx, iv.ID, eventlog.EventTranscriptionComplete, map[string]any{
		"segment_count": len(segments),
	})
	w.publish(iv.ID, "transcribed")

	// Diarization. A sidecar failure degrades to the silence-gap heuristic
	// instead of failing the interview.
	w.logEvent(ctx, iv.ID, eventlog.EventDiarizationStarted, nil)
	intervals, err := w.diarizer.Diarize(ctx, path)
	if err != nil {
		w.logger.Printf("ProcessingWorker: diarization failed for %s, falling back to silence heuristic: %v", iv.ID, err)
		fallback := &diarize.SilenceDiarizer{Segments: segments}
		intervals, err = fallback.Diarize(ctx, path)
		if err != nil {
			w.fail(ctx, iv, "diarization", err)
			return
		}
	}
	w.logEvent(ctx, iv.ID, eventlog.EventDiarizationComplete, map[string]any{
		"interval_count": len(intervals),
	})
	w.publish(iv.ID, "diarized")

	// Structuring
	chunks, err := w.engine.Process(iv.ID, segments, intervals)
	if err != nil {
		w.fail(ctx, iv, "structuring", err)
		return
	}
	transcript, err := json.Marshal(chunks)
	if err != nil {
		w.fail(ctx, iv, "structuring", err)
		return
	}
	if err := w.store.SaveTranscript(ctx, iv.ID, transcript); err != nil {
		w.fail(ctx, iv, "structuring", err)
		return
	}
	w.logEvent(ctx, iv.ID, eventlog.EventStructuringComplete, map[string]any{
		"chunk_count": len(chunks),
	})
	w.publish(iv.ID, "structured")

	// Indexing
	if err := w.index.IndexChunks(ctx, iv.ID, chunks); err != nil {
		w.fail(ctx, iv, "indexing", err)
		return
	}
	w.logEvent(ctx, iv.ID, eventlog.EventIndexingComplete, map[string]any{
		"chunk_count": len(chunks),
	})
	w.publish(iv.ID, "indexed")

	// Analysis
	w.logEvent(ctx, iv.ID, eventlog.EventAnalysisStarted, nil)
	transcriptText := engine.FormatTranscript(chunks)
	analysis, err := w.llm.AnalyzeInterview(ctx, transcriptText)
	if err != nil {
		w.fail(ctx, iv, "analysis", err)
		return
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		w.fail(ctx, iv, "analysis", err)
		return
	}
	if err := w.store.SaveAnalysis(ctx, iv.ID, analysisJSON); err != nil {
		w.fail(ctx, iv, "analysis", err)
		return
	}
	w.logEvent(ctx, iv.ID, eventlog.EventAnalysisComplete, map[string]any{
		"technical_score": analysis.TechnicalScore,
	})
	w.publish(iv.ID, "analyzed")

	if err := w.store.MarkInterviewCompleted(ctx, iv.ID); err != nil {
		w.logger.Printf("ProcessingWorker: failed to mark %s completed: %v", iv.ID, err)
		return
	}

	c := w.interviewCosts(segments, transcriptText)
	w.logEvent(ctx, iv.ID, eventlog.EventProcessingComplete, map[string]any{
		"elapsed_ms":       time.Since(started).Milliseconds(),
		"cost_total_cents": c.TotalCostCents,
		"cost_stt_cents":   c.STTCostCents,
	})
	w.publish(iv.ID, "completed")
	w.notifyAnalysisReady(ctx, iv, analysis)
	w.cleanupAudio(iv, path)

	w.logger.Printf("ProcessingWorker: processed interview %s (%d chunks, %v)", iv.ID, len(chunks), time.Since(started).Round(time.Millisecond))
}

func (w *ProcessingWorker) fail(ctx context.Context, iv *store.Interview, stage string, err error) {
	msg := fmt.Sprintf("%s failed: %v", stage, err)
	w.logger.Printf("ProcessingWorker: interview %s: %s", iv.ID, msg)

	if markErr := w.store.MarkInterviewFailed(ctx, iv.ID, msg); markErr != nil {
		w.logger.Printf("ProcessingWorker: failed to mark %s failed: %v", iv.ID, markErr)
	}
	w.logEvent(ctx, iv.ID, eventlog.EventProcessingFailed, map[string]any{
		"stage": stage,
		"error": err.Error(),
	})
	w.publish(iv.ID, "failed")

	if w.discord != nil {
		w.discord.NotifyProcessingFailed(ctx, iv.ID, stage, err.Error())
	}
	w.notifyProcessingFailed(ctx, iv)
}

func (w *ProcessingWorker) notifyAnalysisReady(ctx context.Context, iv *store.Interview, analysis *llm.Analysis) {
	if w.apns == nil {
		return
	}
	devices, err := w.store.GetUserDevices(ctx, iv.UserID)
	if err != nil {
		w.logger.Printf("ProcessingWorker: failed to get devices for user %s: %v", iv.UserID, err)
		return
	}
	for _, d := range devices {
		if err := w.apns.SendAnalysisReady(d.Token, notifications.AnalysisNotification{
			InterviewID:    iv.ID,
			Filename:       iv.Filename,
			TechnicalScore: analysis.TechnicalScore,
			Summary:        analysis.Summary,
		}); err != nil {
			w.logger.Printf("ProcessingWorker: failed to push analysis notification: %v", err)
		}
	}
}

func (w *ProcessingWorker) notifyProcessingFailed(ctx context.Context, iv *store.Interview) {
	if w.apns == nil {
		return
	}
	devices, err := w.store.GetUserDevices(ctx, iv.UserID)
	if err != nil {
		return
	}
	for _, d := range devices {
		if err := w.apns.SendProcessingFailed(d.Token, iv.ID, iv.Filename); err != nil {
			w.logger.Printf("ProcessingWorker: failed to push failure notification: %v", err)
		}
	}
}

func (w *ProcessingWorker) cleanupAudio(iv *store.Interview, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		w.logger.Printf("ProcessingWorker: failed to remove audio for %s: %v", iv.ID, err)
	}
}

func (w *ProcessingWorker) interviewCosts(segments []engine.TextSegment, transcriptText string) costs.InterviewCosts {
	var audioSeconds int
	if len(segments) > 0 {
		audioSeconds = int(segments[len(segments)-1].End)
	}
	// Rough 4-chars-per-token estimate; exact counts come back in API usage
	// fields we do not persist.
	tokens := len(transcriptText) / 4
	return costs.CalculateInterviewCosts(costs.InterviewMetrics{
		AudioDurationSeconds: audioSeconds,
		LLMInputTokens:       tokens,
		LLMOutputTokens:      700,
		EmbeddingTokens:      tokens,
	})
}

func (w *ProcessingWorker) logEvent(ctx context.Context, interviewID string, eventType eventlog.EventType, data map[string]any) {
	if w.events == nil {
		return
	}
	if err := w.events.Log(ctx, interviewID, eventType, data); err != nil {
		w.logger.Printf("ProcessingWorker: failed to log %s event: %v", eventType, err)
	}
}

func (w *ProcessingWorker) publish(interviewID, stage string) {
	if w.progress != nil {
		w.progress.Publish(interviewID, stage)
	}
}
