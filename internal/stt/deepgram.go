package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nsharma/interviewally/internal/engine"
)

const deepgramListenURL = "https://api.deepgram.com/v1/listen"

// DeepgramTranscriber uses Deepgram's pre-recorded audio API. Interviews are
// complete files by the time processing starts, so the batch endpoint is a
// better fit than streaming.
type DeepgramTranscriber struct {
	apiKey     string
	model      string
	language   string
	apiURL     string
	httpClient *http.Client
}

// DeepgramConfig holds configuration for the Deepgram client.
type DeepgramConfig struct {
	APIKey   string
	Model    string // e.g., "nova-3"
	Language string // e.g., "en"
	// HTTPClient is optional; long recordings need a generous timeout.
	HTTPClient *http.Client
}

// NewDeepgramTranscriber creates a new pre-recorded Deepgram client.
func NewDeepgramTranscriber(cfg DeepgramConfig) *DeepgramTranscriber {
	model := cfg.Model
	if model == "" {
		model = "nova-3"
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &DeepgramTranscriber{
		apiKey:     cfg.APIKey,
		model:      model,
		language:   language,
		apiURL:     deepgramListenURL,
		httpClient: httpClient,
	}
}

// deepgramResponse covers the slice of Deepgram's pre-recorded response we
// consume: utterance-level transcripts with timestamps.
type deepgramResponse struct {
	Results struct {
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"utterances"`
	} `json:"results"`
}

func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audioPath string) ([]engine.TextSegment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	params := url.Values{}
	params.Set("model", d.model)
	params.Set("language", d.language)
	params.Set("punctuate", "true")
	params.Set("utterances", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.apiURL+"?"+params.Encode(), f)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", contentTypeForAudio(audioPath))

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("deepgram API error: %s - %s", resp.Status, string(body))
	}

	var dgResp deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dgResp); err != nil {
		return nil, fmt.Errorf("decoding deepgram response: %w", err)
	}

	segments := make([]engine.TextSegment, 0, len(dgResp.Results.Utterances))
	for _, u := range dgResp.Results.Utterances {
		text := strings.TrimSpace(u.Transcript)
		if text == "" {
			continue
		}
		segments = append(segments, engine.TextSegment{Start: u.Start, End: u.End, Text: text})
	}
	return segments, nil
}

func contentTypeForAudio(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
