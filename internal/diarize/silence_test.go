package diarize

import (
	"context"
	"testing"

	"github.com/nsharma/interviewally/internal/engine"
)

func TestSilenceDiarizer_AlternatesOnLargeGaps(t *testing.T) {
	d := &SilenceDiarizer{
		Segments: []engine.TextSegment{
			{Start: 0, End: 2, Text: "q"},
			{Start: 2.3, End: 4, Text: "still q"}, // small gap, same speaker
			{Start: 7, End: 12, Text: "a"},        // big gap, hand-over
			{Start: 15, End: 17, Text: "q2"},      // big gap, hand-over back
		},
		GapThreshold: 1.5,
	}

	intervals, err := d.Diarize(context.Background(), "ignored.wav")
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}

	want := []string{"SPEAKER_00", "SPEAKER_00", "SPEAKER_01", "SPEAKER_00"}
	if len(intervals) != len(want) {
		t.Fatalf("expected %d intervals, got %d", len(want), len(intervals))
	}
	for i, w := range want {
		if intervals[i].Speaker != w {
			t.Errorf("interval %d speaker = %s, want %s", i, intervals[i].Speaker, w)
		}
	}
}

func TestSilenceDiarizer_Empty(t *testing.T) {
	d := &SilenceDiarizer{}
	intervals, err := d.Diarize(context.Background(), "x.wav")
	if err != nil {
		t.Fatal(err)
	}
	if len(intervals) != 0 {
		t.Errorf("expected no intervals, got %d", len(intervals))
	}
}

func TestSilenceDiarizer_IntervalsMatchSegmentSpans(t *testing.T) {
	segs := []engine.TextSegment{
		{Start: 1, End: 3, Text: "a"},
		{Start: 3.5, End: 6, Text: "b"},
	}
	d := &SilenceDiarizer{Segments: segs}

	intervals, _ := d.Diarize(context.Background(), "x.wav")
	for i, iv := range intervals {
		if iv.Start != segs[i].Start || iv.End != segs[i].End {
			t.Errorf("interval %d span = [%f,%f], want [%f,%f]",
				i, iv.Start, iv.End, segs[i].Start, segs[i].End)
		}
	}
}
