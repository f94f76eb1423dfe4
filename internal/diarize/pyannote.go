package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nsharma/interviewally/internal/engine"
)

// PyannoteDiarizer calls a pyannote.audio sidecar service over HTTP. The
// sidecar accepts a multipart audio upload on /diarize and responds with
// JSON speaker turns.
type PyannoteDiarizer struct {
	baseURL    string
	httpClient *http.Client
}

// NewPyannoteDiarizer creates a client for the sidecar at baseURL
// (e.g. "http://localhost:9090"). httpClient is optional.
func NewPyannoteDiarizer(baseURL string, httpClient *http.Client) *PyannoteDiarizer {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &PyannoteDiarizer{baseURL: baseURL, httpClient: httpClient}
}

type pyannoteResponse struct {
	Turns []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"` // SPEAKER_00, SPEAKER_01, ...
	} `json:"turns"`
}

func (p *PyannoteDiarizer) Diarize(ctx context.Context, audioPath string) ([]engine.SpeakerInterval, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/diarize", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarization service error: %s - %s", resp.Status, string(b))
	}

	var pr pyannoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding diarization response: %w", err)
	}

	intervals := make([]engine.SpeakerInterval, 0, len(pr.Turns))
	for _, t := range pr.Turns {
		intervals = append(intervals, engine.SpeakerInterval{
			Start:   t.Start,
			End:     t.End,
			Speaker: t.Speaker,
		})
	}
	return intervals, nil
}
