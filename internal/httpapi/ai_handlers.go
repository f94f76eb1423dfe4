package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nsharma/interviewally/internal/engine"
	"github.com/nsharma/interviewally/internal/llm"
	"github.com/nsharma/interviewally/internal/store"
)

// transcriptText reconstructs the plain-text transcript from the stored
// structured chunks. Returns an error if the interview has no transcript yet.
func transcriptText(iv *store.Interview) (string, error) {
	if len(iv.Transcript) == 0 {
		return "", fmt.Errorf("interview %s has no transcript", iv.ID)
	}
	var chunks []engine.ChunkRecord
	if err := json.Unmarshal(iv.Transcript, &chunks); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	return engine.FormatTranscript(chunks), nil
}

// handleAnalyze runs (or re-runs) the LLM evaluation over the full transcript.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	transcript, err := transcriptText(iv)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "interview has not finished processing",
		})
		return
	}

	analysis, err := r.llm.AnalyzeInterview(req.Context(), transcript)
	if err != nil {
		captureError(req, err, "analysis failed")
		http.Error(w, `{"error": "analysis failed"}`, http.StatusBadGateway)
		return
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	if err := r.store.SaveAnalysis(req.Context(), iv.ID, raw); err != nil {
		captureError(req, err, "failed to save analysis")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}

// handleRewrite asks the LLM for a stronger version of a weak answer.
func (r *Router) handleRewrite(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	var body struct {
		Gap     string `json:"gap"`
		Profile string `json:"profile"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Gap) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gap is required"})
		return
	}

	transcript, err := transcriptText(iv)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "interview has not finished processing",
		})
		return
	}

	rewrite, err := r.llm.RewriteAnswer(req.Context(), body.Gap, transcript, body.Profile)
	if err != nil {
		captureError(req, err, "rewrite failed")
		http.Error(w, `{"error": "rewrite failed"}`, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"rewrite": rewrite})
}

// handleChat answers a coaching question grounded in retrieved transcript
// chunks and the stored analysis summary.
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) {
	iv := r.ownedInterview(w, req)
	if iv == nil {
		return
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	scored, err := r.index.Search(req.Context(), iv.ID, body.Question, 5)
	if err != nil {
		captureError(req, err, "chunk search failed")
		http.Error(w, `{"error": "search failed"}`, http.StatusInternalServerError)
		return
	}

	chunkTexts := make([]string, 0, len(scored))
	for _, sc := range scored {
		chunkTexts = append(chunkTexts, chatChunkContext(sc.Chunk))
	}

	analysisContext := ""
	if len(iv.Analysis) > 0 {
		var analysis llm.Analysis
		if err := json.Unmarshal(iv.Analysis, &analysis); err == nil {
			analysisContext = analysis.Summary
		}
	}

	answer, err := r.llm.ChatResponse(req.Context(), body.Question, chunkTexts, analysisContext)
	if err != nil {
		captureError(req, err, "chat failed")
		http.Error(w, `{"error": "chat failed"}`, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":      answer,
		"chunks_used": len(chunkTexts),
	})
}

// chatChunkContext renders one retrieved chunk as LLM context, including its
// position in the recording so answers can cite timestamps.
func chatChunkContext(c engine.ChunkRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", engine.FormatTimestamp(c.Start))
	if c.TextQuestion != "" {
		fmt.Fprintf(&b, " %s: %s", c.RoleQuestion, c.TextQuestion)
	}
	if c.TextAnswer != "" {
		fmt.Fprintf(&b, " %s: %s", c.RoleAnswer, c.TextAnswer)
	}
	return b.String()
}
