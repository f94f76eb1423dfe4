package diarize

import (
	"context"
	"fmt"

	"github.com/nsharma/interviewally/internal/engine"
)

// SilenceDiarizer is the fallback when no diarization sidecar is configured:
// it derives intervals from the transcription segments themselves,
// alternating between two speaker clusters whenever the silence between
// segments exceeds GapThreshold. Crude, but it keeps the pipeline producing
// structured output instead of failing, and the engine's confidence scores
// flag the weaker attribution downstream.
type SilenceDiarizer struct {
	// Segments are the transcription segments of the same recording.
	Segments []engine.TextSegment
	// GapThreshold is the silence, in seconds, treated as a speaker
	// hand-over. Zero means 1.5s.
	GapThreshold float64
}

func (s *SilenceDiarizer) Diarize(ctx context.Context, audioPath string) ([]engine.SpeakerInterval, error) {
	_ = audioPath // segment timing is all this heuristic needs

	gap := s.GapThreshold
	if gap <= 0 {
		gap = 1.5
	}

	intervals := make([]engine.SpeakerInterval, 0, len(s.Segments))
	cluster := 0
	for i, seg := range s.Segments {
		if i > 0 && seg.Start-s.Segments[i-1].End > gap {
			cluster = 1 - cluster
		}
		intervals = append(intervals, engine.SpeakerInterval{
			Start:   seg.Start,
			End:     seg.End,
			Speaker: fmt.Sprintf("SPEAKER_%02d", cluster),
		})
	}
	return intervals, nil
}
