// Package eventlog records per-interview processing events so stage timings
// and failures can be inspected after the fact.
package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventType represents the type of processing event
type EventType string

const (
	EventUploadReceived        EventType = "upload_received"
	EventTranscriptionStarted  EventType = "transcription_started"
	EventTranscriptionComplete EventType = "transcription_completed"
	EventDiarizationStarted    EventType = "diarization_started"
	EventDiarizationComplete   EventType = "diarization_completed"
	EventStructuringComplete   EventType = "structuring_completed"
	EventIndexingComplete      EventType = "indexing_completed"
	EventAnalysisStarted       EventType = "analysis_started"
	EventAnalysisComplete      EventType = "analysis_completed"
	EventProcessingComplete    EventType = "processing_completed"
	EventProcessingFailed      EventType = "processing_failed"
)

// Logger provides event logging to the database
type Logger struct {
	db *pgxpool.Pool
}

// New creates a new event logger
func New(db *pgxpool.Pool) *Logger {
	return &Logger{db: db}
}

// Log writes an event to the database synchronously
func (l *Logger) Log(ctx context.Context, interviewID string, eventType EventType, data map[string]any) error {
	if l.db == nil || interviewID == "" {
		return nil // Silently skip if no DB or interview ID
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	_, err = l.db.Exec(ctx, `
		INSERT INTO interview_events (interview_id, event_type, event_data)
		VALUES ($1, $2, $3)
	`, interviewID, string(eventType), dataJSON)

	return err
}

// LogAsync logs an event without blocking the caller
func (l *Logger) LogAsync(interviewID string, eventType EventType, data map[string]any) {
	if l.db == nil || interviewID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = l.Log(ctx, interviewID, eventType, data)
	}()
}

// Event is a stored processing event.
type Event struct {
	ID          string          `json:"id"`
	InterviewID string          `json:"interview_id"`
	EventType   EventType       `json:"event_type"`
	EventData   json.RawMessage `json:"event_data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListEvents retrieves events for an interview in chronological order.
func (l *Logger) ListEvents(ctx context.Context, interviewID string, limit int) ([]Event, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, interview_id, event_type, event_data, created_at
		FROM interview_events
		WHERE interview_id = $1
		ORDER BY created_at ASC
		LIMIT $2
	`, interviewID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var data []byte
		if err := rows.Scan(&e.ID, &e.InterviewID, &e.EventType, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.EventData = json.RawMessage(data)
		events = append(events, e)
	}
	return events, rows.Err()
}
