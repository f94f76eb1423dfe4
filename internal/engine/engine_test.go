package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestEngine_ProcessInterviewScenario(t *testing.T) {
	segments := []TextSegment{
		{Start: 0, End: 3, Text: "Tell me about a challenge"},
		{Start: 4, End: 9, Text: "I led a migration of our database"},
		{Start: 10, End: 12, Text: "Great, next question"},
	}
	intervals := []SpeakerInterval{
		{Start: 0, End: 3, Speaker: "SPEAKER_00"},
		{Start: 4, End: 9, Speaker: "SPEAKER_01"},
		{Start: 10, End: 12, Speaker: "SPEAKER_00"},
	}

	records, err := New().Process("iv-1", segments, intervals)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %+v", len(records), records)
	}

	first := records[0]
	if first.TextQuestion != "Tell me about a challenge" {
		t.Errorf("first question = %q", first.TextQuestion)
	}
	if first.TextAnswer != "I led a migration of our database" {
		t.Errorf("first answer = %q", first.TextAnswer)
	}
	if first.RoleQuestion != RoleInterviewer || first.RoleAnswer != RoleCandidate {
		t.Errorf("roles = %s/%s", first.RoleQuestion, first.RoleAnswer)
	}
	if first.Topic != TopicTechnical {
		t.Errorf("first topic = %s, want %s", first.Topic, TopicTechnical)
	}
	if first.QuestionType != QuestionTellMeAbout {
		t.Errorf("first question type = %s", first.QuestionType)
	}

	second := records[1]
	if second.TextQuestion != "Great, next question" {
		t.Errorf("second question = %q", second.TextQuestion)
	}
	if second.TextAnswer != "" {
		t.Errorf("unanswered question must keep empty answer, got %q", second.TextAnswer)
	}
}

func TestEngine_CoverageNoTextLostOrDuplicated(t *testing.T) {
	segments := []TextSegment{
		{Start: 0, End: 2, Text: "hello and welcome"},
		{Start: 3, End: 5, Text: "glad to be here"},
		{Start: 6, End: 8, Text: "what do you do"},
		{Start: 9, End: 14, Text: "i write services"},
		{Start: 14.2, End: 18, Text: "mostly in go"},
		{Start: 19, End: 21, Text: "why go"},
		{Start: 22, End: 28, Text: "the concurrency model"},
	}
	intervals := []SpeakerInterval{
		{Start: 0, End: 2, Speaker: "A"},
		{Start: 3, End: 5, Speaker: "B"},
		{Start: 6, End: 8, Speaker: "A"},
		{Start: 9, End: 18, Speaker: "B"},
		{Start: 19, End: 21, Speaker: "A"},
		{Start: 22, End: 28, Speaker: "B"},
	}

	records, err := New().Process("iv-2", segments, intervals)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	var all strings.Builder
	for _, r := range records {
		all.WriteString(r.TextQuestion)
		all.WriteByte(' ')
		all.WriteString(r.TextAnswer)
		all.WriteByte(' ')
	}
	combined := all.String()
	for _, seg := range segments {
		if n := strings.Count(combined, seg.Text); n != 1 {
			t.Errorf("segment %q appears %d times in output, want exactly 1", seg.Text, n)
		}
	}
}

func TestEngine_ProcessIsDeterministic(t *testing.T) {
	segments := []TextSegment{
		{Start: 0, End: 2, Text: "how are you"},
		{Start: 3, End: 9, Text: "fine thanks"},
	}
	intervals := []SpeakerInterval{
		{Start: 0, End: 2, Speaker: "A"},
		{Start: 3, End: 9, Speaker: "B"},
	}

	e := New()
	first, err := e.Process("iv-3", segments, intervals)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := e.Process("iv-3", segments, intervals)
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: %d chunks vs %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d chunk %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func TestEngine_ValidationFailsFast(t *testing.T) {
	valid := []TextSegment{{Start: 0, End: 1, Text: "x"}}
	validIv := []SpeakerInterval{{Start: 0, End: 1, Speaker: "A"}}

	tests := []struct {
		name      string
		segments  []TextSegment
		intervals []SpeakerInterval
		want      error
	}{
		{"empty segments", nil, validIv, ErrNoSegments},
		{"empty intervals", valid, nil, ErrNoIntervals},
		{
			"non-monotonic segments",
			[]TextSegment{{Start: 5, End: 6, Text: "b"}, {Start: 0, End: 1, Text: "a"}},
			validIv,
			ErrNonMonotonic,
		},
		{
			"negative duration segment",
			[]TextSegment{{Start: 2, End: 1, Text: "a"}},
			validIv,
			ErrNonMonotonic,
		},
		{
			"non-monotonic intervals",
			valid,
			[]SpeakerInterval{{Start: 5, End: 6, Speaker: "A"}, {Start: 0, End: 1, Speaker: "B"}},
			ErrNonMonotonic,
		},
	}

	e := New()
	for _, tc := range tests {
		_, err := e.Process("iv", tc.segments, tc.intervals)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
