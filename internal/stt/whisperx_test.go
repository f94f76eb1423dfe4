package stt

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWhisperXTranscribe_ParsesResultFile(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "interview.wav")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	// The "binary" is a no-op; the result file is prepared up front as if
	// whisperx had written it.
	resultJSON := `{
		"segments": [
			{"text": " Tell me about a challenge. ", "start": 0.0, "end": 2.500},
			{"text": "", "start": 2.6, "end": 2.8},
			{"text": "I led a migration.", "start": 12.340, "end": 19.1}
		]
	}`
	if err := os.WriteFile(filepath.Join(dir, "interview.json"), []byte(resultJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	w := &WhisperXTranscriber{Command: "true"}
	segments, err := w.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2 (empty text dropped)", len(segments))
	}
	if segments[0].Text != "Tell me about a challenge." {
		t.Errorf("text not trimmed: %q", segments[0].Text)
	}
	if segments[1].Start != 12.34 {
		t.Errorf("start = %v, want 12.34", segments[1].Start)
	}
}

func TestWhisperXTranscribe_MissingBinary(t *testing.T) {
	w := &WhisperXTranscriber{Command: "/nonexistent/whisperx"}
	if _, err := w.Transcribe(context.Background(), "audio.wav"); err == nil {
		t.Fatal("expected error when whisperx binary is missing")
	}
}
