// Package diarize provides speaker diarization for interview recordings:
// partitioning the audio time axis into speaker-labeled intervals. Labels
// are raw cluster ids; mapping them to semantic roles happens in the engine.
package diarize

import (
	"context"

	"github.com/nsharma/interviewally/internal/engine"
)

// Diarizer computes speaker-turn intervals for an audio file.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]engine.SpeakerInterval, error)
}
