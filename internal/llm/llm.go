// Package llm provides the scoring, rewriting and coaching chat collaborator.
// It consumes retrieved transcript chunks produced by the structuring engine;
// it never participates in the structuring pipeline itself.
package llm

import "context"

// Analysis contains the LLM's structured evaluation of an interview.
type Analysis struct {
	Summary              string   `json:"summary"`
	TechnicalScore       int      `json:"technical_score"`        // 1-10
	CommunicationScore   int      `json:"communication_score"`    // 1-10
	CulturalFitScore     int      `json:"cultural_fit_score"`     // 1-10
	KeyStrengths         []string `json:"key_strengths"`          // 3 distinct strengths
	CriticalGaps         []string `json:"critical_gaps"`          // 3 distinct gaps or red flags
	TimestampsOfInterest []string `json:"timestamps_of_interest"` // "00:12:30" style
}

// Client defines the interface for LLM providers.
type Client interface {
	// AnalyzeInterview evaluates the full speaker-attributed transcript
	// and returns a structured assessment.
	AnalyzeInterview(ctx context.Context, transcript string) (*Analysis, error)

	// RewriteAnswer produces a stronger version of a weak answer
	// identified by gap, grounded in the transcript and the candidate's
	// profile context.
	RewriteAnswer(ctx context.Context, gap, transcript, profile string) (string, error)

	// ChatResponse answers a coaching question using retrieved transcript
	// chunks and the prior analysis summary as context.
	ChatResponse(ctx context.Context, question string, chunks []string, analysisContext string) (string, error)
}
