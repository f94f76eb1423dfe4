// Package stt provides batch speech-to-text for uploaded interview
// recordings. Providers return plain timestamped segments; speaker
// attribution is the diarization collaborator's job.
package stt

import (
	"context"

	"github.com/nsharma/interviewally/internal/engine"
)

// Transcriber defines the interface for speech-to-text providers.
type Transcriber interface {
	// Transcribe processes a finalized audio file and returns its
	// timestamped segments ordered by start time.
	Transcribe(ctx context.Context, audioPath string) ([]engine.TextSegment, error)
}
