// Package costs provides cost calculation for API usage.
package costs

import (
	"os"

	"github.com/shopspring/decimal"
)

// Pricing (in cents per unit). Money math runs on decimals so repeated
// per-interview accounting never accumulates float drift.
// Based on 2026 market rates; override via environment variables.
var (
	// DeepgramCentsPerMinute is the cost per minute for Deepgram Nova-3
	// prerecorded STT. Default: $0.0043/min = 0.43 cents/min
	DeepgramCentsPerMinute = getEnvDecimal("COST_DEEPGRAM_CENTS_PER_MIN", "0.43")

	// OpenAICentsPerThousandInputTokens is the cost per 1K input tokens for GPT-4o-mini.
	// Default: $0.15/1M = 0.015 cents/1K tokens
	OpenAICentsPerThousandInputTokens = getEnvDecimal("COST_OPENAI_INPUT_CENTS_PER_1K", "0.015")

	// OpenAICentsPerThousandOutputTokens is the cost per 1K output tokens for GPT-4o-mini.
	// Default: $0.60/1M = 0.06 cents/1K tokens
	OpenAICentsPerThousandOutputTokens = getEnvDecimal("COST_OPENAI_OUTPUT_CENTS_PER_1K", "0.06")

	// EmbeddingCentsPerThousandTokens is the cost per 1K tokens for
	// text-embedding-3-small. Default: $0.02/1M = 0.002 cents/1K tokens
	EmbeddingCentsPerThousandTokens = getEnvDecimal("COST_EMBEDDING_CENTS_PER_1K", "0.002")
)

var thousand = decimal.NewFromInt(1000)

// InterviewMetrics contains the raw usage metrics from processing one interview.
type InterviewMetrics struct {
	AudioDurationSeconds int // Audio sent to STT
	LLMInputTokens       int // Tokens sent to the LLM (analysis, rewrites, chat)
	LLMOutputTokens      int // Tokens received from the LLM
	EmbeddingTokens      int // Tokens embedded for the chunk index
}

// InterviewCosts contains the calculated costs for an interview in cents.
type InterviewCosts struct {
	STTCostCents       int
	LLMCostCents       int
	EmbeddingCostCents int
	TotalCostCents     int
}

// CalculateInterviewCosts computes the processing costs for an interview.
func CalculateInterviewCosts(m InterviewMetrics) InterviewCosts {
	sttMinutes := decimal.NewFromInt(int64(m.AudioDurationSeconds)).Div(decimal.NewFromInt(60))
	sttCents := sttMinutes.Mul(DeepgramCentsPerMinute)

	llmInputCents := decimal.NewFromInt(int64(m.LLMInputTokens)).Div(thousand).Mul(OpenAICentsPerThousandInputTokens)
	llmOutputCents := decimal.NewFromInt(int64(m.LLMOutputTokens)).Div(thousand).Mul(OpenAICentsPerThousandOutputTokens)
	llmCents := llmInputCents.Add(llmOutputCents)

	embeddingCents := decimal.NewFromInt(int64(m.EmbeddingTokens)).Div(thousand).Mul(EmbeddingCentsPerThousandTokens)

	// Stored as integer cents, rounded half up.
	costs := InterviewCosts{
		STTCostCents:       roundToCents(sttCents),
		LLMCostCents:       roundToCents(llmCents),
		EmbeddingCostCents: roundToCents(embeddingCents),
	}
	costs.TotalCostCents = costs.STTCostCents + costs.LLMCostCents + costs.EmbeddingCostCents

	return costs
}

func roundToCents(d decimal.Decimal) int {
	return int(d.Round(0).IntPart())
}

// getEnvDecimal returns an environment variable as a decimal, or the default
// if not set or unparsable.
func getEnvDecimal(key, defaultVal string) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(defaultVal)
}
