package stt

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/nsharma/interviewally/internal/engine"
)

// WhisperXTranscriber shells out to the whisperx CLI and parses the JSON
// file it writes next to the input audio.
type WhisperXTranscriber struct {
	// Command is the whisperx binary name or path. Empty means
	// "whisperx" from PATH.
	Command string
	// Model is the whisper model size (tiny/base/small/...). Empty uses
	// whisperx's default.
	Model  string
	Logger *log.Logger
}

// whisperx emits timestamps as decimal seconds in JSON; decode them exactly
// before converting to float64 so values like 12.340 round-trip cleanly.
type whisperxResult struct {
	Segments []whisperxSegment `json:"segments"`
}

type whisperxSegment struct {
	Text  string          `json:"text"`
	Start decimal.Decimal `json:"start"`
	End   decimal.Decimal `json:"end"`
}

func (w *WhisperXTranscriber) Transcribe(ctx context.Context, audioPath string) ([]engine.TextSegment, error) {
	bin := w.Command
	if bin == "" {
		bin = "whisperx"
	}
	args := []string{audioPath, "--output_format", "json"}
	if w.Model != "" {
		args = append(args, "--model", w.Model)
	}
	args = append(args, "--output_dir", filepath.Dir(audioPath))

	cmd := exec.CommandContext(ctx, bin, args...)

	stderr, _ := cmd.StderrPipe()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting whisperx: %w", err)
	}
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if w.Logger != nil {
				w.Logger.Printf("whisperx: %s", scanner.Text())
			}
		}
	}()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("transcribing with whisperx: %w", err)
	}

	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	resultPath := base + ".json"
	f, err := os.Open(resultPath)
	if err != nil {
		return nil, fmt.Errorf("opening whisperx result: %w", err)
	}
	defer f.Close()

	var res whisperxResult
	if err := json.NewDecoder(f).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding whisperx json result: %w", err)
	}

	segments := make([]engine.TextSegment, 0, len(res.Segments))
	for _, s := range res.Segments {
		start, _ := s.Start.Float64()
		end, _ := s.End.Float64()
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, engine.TextSegment{Start: start, End: end, Text: text})
	}
	return segments, nil
}
