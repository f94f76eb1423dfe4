package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient implements the Client interface using OpenAI's API.
type OpenAIClient struct {
	apiKey       string
	model        string
	systemPrompt string
	apiURL       string
	httpClient   *http.Client
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey       string
	Model        string // e.g., "gpt-4o-mini"
	SystemPrompt string // Optional custom system prompt
	HTTPClient   *http.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPromptCoach
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAIClient{
		apiKey:       cfg.APIKey,
		model:        model,
		systemPrompt: systemPrompt,
		apiURL:       openaiAPIURL,
		httpClient:   httpClient,
	}
}

// chatRequest represents an OpenAI chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents an OpenAI chat completion response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// AnalyzeInterview evaluates the transcript and returns a structured
// assessment.
func (c *OpenAIClient) AnalyzeInterview(ctx context.Context, transcript string) (*Analysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("empty transcript")
	}

	content, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: c.systemPrompt},
		{Role: "user", Content: AnalysisPrompt + truncate(transcript, 25000)},
	}, 0.3, 700)
	if err != nil {
		return nil, err
	}

	var result Analysis
	if err := json.Unmarshal([]byte(stripFences(content)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w (content: %s)", err, content)
	}
	return &result, nil
}

// RewriteAnswer produces a gold-standard rewrite of the weak answer
// described by gap.
func (c *OpenAIClient) RewriteAnswer(ctx context.Context, gap, transcript, profile string) (string, error) {
	prompt := fmt.Sprintf("%s\nCandidate profile: %s\nCritique: %q\nTranscript excerpt:\n%s",
		RewritePrompt, profile, gap, truncate(transcript, 25000))

	return c.complete(ctx, []chatMessage{
		{Role: "system", Content: c.systemPrompt},
		{Role: "user", Content: prompt},
	}, 0.5, 300)
}

// ChatResponse answers a coaching question grounded in retrieved chunks.
func (c *OpenAIClient) ChatResponse(ctx context.Context, question string, chunks []string, analysisContext string) (string, error) {
	var b strings.Builder
	b.WriteString("CONTEXT FROM INTERVIEW:\n")
	for _, chunk := range chunks {
		b.WriteString(chunk)
		b.WriteString("\n---\n")
	}
	if analysisContext != "" {
		b.WriteString("\nPREVIOUS ANALYSIS SUMMARY:\n")
		b.WriteString(analysisContext)
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nIf the transcript excerpts do not cover the topic, say so before giving general advice. Keep the answer under 100 words.")

	return c.complete(ctx, []chatMessage{
		{Role: "system", Content: c.systemPrompt},
		{Role: "user", Content: b.String()},
	}, 0.3, 250)
}

func (c *OpenAIClient) complete(ctx context.Context, messages []chatMessage, temperature float64, maxTokens int) (string, error) {
	req := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API error: %s - %s", resp.Status, string(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
