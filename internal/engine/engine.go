package engine

import (
	"errors"
	"fmt"
)

// Malformed-input errors. These are the only failures Process propagates;
// everything past validation degrades gracefully to lower-confidence output.
var (
	ErrNoSegments   = errors.New("no text segments")
	ErrNoIntervals  = errors.New("no speaker intervals")
	ErrNonMonotonic = errors.New("non-monotonic timing")
)

// Engine runs the five structuring stages in order: align, coalesce, pair,
// tag, emit. It holds only tuning parameters, no per-interview state, so one
// Engine value is safe to share across concurrent interviews.
type Engine struct {
	// MaxGap is the largest silence (seconds) bridged inside one
	// speaker's turn. Zero means DefaultMaxGap.
	MaxGap float64

	// Rules is the tagging vocabulary. The zero value is not usable; use
	// New or fill it from DefaultTagRules/LoadTagRules.
	Rules TagRules
}

// New returns an Engine with the default gap threshold and tag rules.
func New() *Engine {
	return &Engine{MaxGap: DefaultMaxGap, Rules: DefaultTagRules()}
}

// Process turns one interview's transcript and diarization into ordered
// chunk records. It validates input timing first — downstream grounding
// depends on it — and then never fails: attribution ambiguity, unanswered
// questions and classification misses all degrade into the output rather
// than erroring.
func (e *Engine) Process(interviewID string, segments []TextSegment, intervals []SpeakerInterval) ([]ChunkRecord, error) {
	if err := validateInputs(segments, intervals); err != nil {
		return nil, err
	}

	roles := ResolveRoles(intervals)
	labeled := Align(segments, ApplyRoles(intervals, roles))
	turns := Coalesce(labeled, e.MaxGap)
	units := BuildPairs(turns)

	tagged := make([]TaggedChunk, 0, len(units))
	for i, u := range units {
		tagged = append(tagged, Tag(u, i, e.Rules))
	}
	return Emit(interviewID, tagged), nil
}

func validateInputs(segments []TextSegment, intervals []SpeakerInterval) error {
	if len(segments) == 0 {
		return ErrNoSegments
	}
	if len(intervals) == 0 {
		return ErrNoIntervals
	}
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].Start {
			return fmt.Errorf("segment %d starts at %.3f before segment %d at %.3f: %w",
				i, segments[i].Start, i-1, segments[i-1].Start, ErrNonMonotonic)
		}
	}
	for i, s := range segments {
		if s.End < s.Start {
			return fmt.Errorf("segment %d has negative duration (%.3f-%.3f): %w",
				i, s.Start, s.End, ErrNonMonotonic)
		}
	}
	for i := 1; i < len(intervals); i++ {
		if intervals[i].Start < intervals[i-1].Start {
			return fmt.Errorf("interval %d starts at %.3f before interval %d at %.3f: %w",
				i, intervals[i].Start, i-1, intervals[i-1].Start, ErrNonMonotonic)
		}
	}
	return nil
}
