package engine

import "testing"

func TestAlign_MaxOverlapWins(t *testing.T) {
	segments := []TextSegment{{Start: 1.0, End: 4.0, Text: "so tell me"}}
	intervals := []SpeakerInterval{
		{Start: 0.0, End: 2.0, Speaker: RoleInterviewer}, // 1s overlap
		{Start: 2.0, End: 5.0, Speaker: RoleCandidate},   // 2s overlap
	}

	got := Align(segments, intervals)
	if len(got) != 1 {
		t.Fatalf("expected 1 labeled segment, got %d", len(got))
	}
	if got[0].Speaker != RoleCandidate {
		t.Errorf("expected %s, got %s", RoleCandidate, got[0].Speaker)
	}
	want := 2.0 / 3.0
	if diff := got[0].Confidence - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %f, want %f", got[0].Confidence, want)
	}
}

func TestAlign_EveryTextSegmentProducesExactlyOneLabeledSegment(t *testing.T) {
	segments := []TextSegment{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 1, Text: "b"}, // zero duration
		{Start: 5, End: 6, Text: "c"}, // no overlapping interval
	}
	intervals := []SpeakerInterval{{Start: 0, End: 2, Speaker: RoleInterviewer}}

	got := Align(segments, intervals)
	if len(got) != len(segments) {
		t.Fatalf("expected %d labeled segments, got %d", len(segments), len(got))
	}
	for i := range segments {
		if got[i].Text != segments[i].Text {
			t.Errorf("segment %d: text %q, want %q", i, got[i].Text, segments[i].Text)
		}
	}
}

func TestAlign_DiarizationGapFallsBackToUnknown(t *testing.T) {
	segments := []TextSegment{{Start: 10, End: 12, Text: "unattributed"}}
	intervals := []SpeakerInterval{{Start: 0, End: 3, Speaker: RoleInterviewer}}

	got := Align(segments, intervals)
	if got[0].Speaker != RoleUnknown {
		t.Errorf("expected %s, got %s", RoleUnknown, got[0].Speaker)
	}
	if got[0].Confidence != 0 {
		t.Errorf("confidence = %f, want 0", got[0].Confidence)
	}
}

func TestAlign_TieBreakPrefersEarlierStart(t *testing.T) {
	// Both intervals overlap the segment by exactly 1s.
	segments := []TextSegment{{Start: 2, End: 4, Text: "simultaneous"}}
	intervals := []SpeakerInterval{
		{Start: 1, End: 3, Speaker: "SPEAKER_00"},
		{Start: 3, End: 5, Speaker: "SPEAKER_01"},
	}

	// Deterministic across repeated runs.
	for i := 0; i < 50; i++ {
		got := Align(segments, intervals)
		if got[0].Speaker != "SPEAKER_00" {
			t.Fatalf("run %d: tie resolved to %s, want earlier-starting SPEAKER_00", i, got[0].Speaker)
		}
	}
}

func TestAlign_OverlappingSpeechNeverRaises(t *testing.T) {
	// Fully simultaneous intervals over one segment.
	segments := []TextSegment{{Start: 0, End: 2, Text: "talking over"}}
	intervals := []SpeakerInterval{
		{Start: 0, End: 2, Speaker: "SPEAKER_00"},
		{Start: 0, End: 2, Speaker: "SPEAKER_01"},
	}

	got := Align(segments, intervals)
	if got[0].Speaker != "SPEAKER_00" {
		t.Errorf("expected earlier-starting SPEAKER_00, got %s", got[0].Speaker)
	}
	if got[0].Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", got[0].Confidence)
	}
}

func TestAlign_ZeroDurationSegmentTakesNearestInterval(t *testing.T) {
	segments := []TextSegment{{Start: 4.9, End: 4.9, Text: "mm"}}
	intervals := []SpeakerInterval{
		{Start: 0, End: 3, Speaker: RoleInterviewer},
		{Start: 5, End: 9, Speaker: RoleCandidate},
	}

	got := Align(segments, intervals)
	if got[0].Speaker != RoleCandidate {
		t.Errorf("expected nearest interval speaker %s, got %s", RoleCandidate, got[0].Speaker)
	}
}

func TestAlign_NoIntervalsAtAll(t *testing.T) {
	segments := []TextSegment{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 1, Text: "b"},
	}

	got := Align(segments, nil)
	for i, ls := range got {
		if ls.Speaker != RoleUnknown {
			t.Errorf("segment %d: expected %s, got %s", i, RoleUnknown, ls.Speaker)
		}
	}
}

func TestOverlapSeconds(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd, want float64
	}{
		{"disjoint", 0, 1, 2, 3, 0},
		{"touching", 0, 1, 1, 2, 0},
		{"partial", 0, 2, 1, 3, 1},
		{"contained", 0, 10, 2, 4, 2},
		{"identical", 1, 3, 1, 3, 2},
	}
	for _, tc := range tests {
		if got := overlapSeconds(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Errorf("%s: overlapSeconds = %f, want %f", tc.name, got, tc.want)
		}
	}
}
