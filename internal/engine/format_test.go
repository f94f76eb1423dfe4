package engine

import (
	"strings"
	"testing"
)

func TestFormatTranscript(t *testing.T) {
	chunks := []ChunkRecord{
		{
			RoleQuestion: RoleInterviewer, TextQuestion: "Tell me about a challenge.",
			RoleAnswer: RoleCandidate, TextAnswer: "I led a migration.",
			Start: 65,
		},
		{RoleAnswer: RoleCandidate, TextAnswer: "Hi, I'm Sam."},
	}

	got := FormatTranscript(chunks)
	if !strings.Contains(got, "[00:01:05] INTERVIEWER: Tell me about a challenge.") {
		t.Errorf("missing timestamped question line:\n%s", got)
	}
	if !strings.Contains(got, "CANDIDATE: I led a migration.") {
		t.Errorf("missing answer line:\n%s", got)
	}
	// Chunks without a question render only the answer side.
	if strings.Contains(got, ": \n") {
		t.Errorf("empty question rendered:\n%s", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{65, "00:01:05"},
		{3725, "01:02:05"},
	}
	for _, tc := range tests {
		if got := FormatTimestamp(tc.seconds); got != tc.want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
