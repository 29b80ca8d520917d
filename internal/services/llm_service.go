package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"askdocs/internal/models"
)

const (
	LMStudioBaseURL = "http://localhost:1234/v1"
	DefaultLLMModel = "llama-3.2-3b-instruct"
)

// CompletionService is the opaque text-in/text-out boundary to the language
// model. Complete wraps a single prompt; Chat sends a full message sequence.
type CompletionService interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// CompletionError represents a failure of the completion backend (timeout,
// rate limit, malformed or empty response). Transient: callers may retry with
// backoff; this service never retries internally.
type CompletionError struct {
	Err     error
	Message string
}

func (e *CompletionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// NewCompletionError creates a new completion error
func NewCompletionError(message string, err error) *CompletionError {
	return &CompletionError{Message: message, Err: err}
}

// chatCompletionRequest is the OpenAI-compatible request format
type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens"`
	Stream      bool                 `json:"stream"`
}

// chatCompletionResponse is the OpenAI-compatible response format
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// LLMService handles communication with an OpenAI-compatible chat completion
// endpoint (LM Studio, Ollama's compat layer, or any hosted equivalent).
type LLMService struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewLLMService creates a new LLM service instance
func NewLLMService(baseURL, model string) *LLMService {
	if baseURL == "" {
		baseURL = LMStudioBaseURL
	}
	if model == "" {
		model = DefaultLLMModel
	}
	return &LLMService{
		baseURL:     baseURL,
		model:       model,
		temperature: 0.7,
		httpClient: &http.Client{
			Timeout: 120 * time.Second, // LLMs can be slow
		},
	}
}

// Complete sends a single prompt and returns the raw completion text
func (s *LLMService) Complete(ctx context.Context, prompt string) (string, error) {
	return s.Chat(ctx, []models.ChatMessage{
		{Role: "user", Content: prompt},
	})
}

// Chat sends a message sequence and returns the assistant's reply
func (s *LLMService) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	request := chatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
		MaxTokens:   -1, // No limit
		Stream:      false,
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return "", NewCompletionError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", NewCompletionError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", NewCompletionError("failed to reach completion backend", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewCompletionError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", NewCompletionError(
			fmt.Sprintf("completion backend returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", NewCompletionError("failed to parse response", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", NewCompletionError("completion backend returned an empty response", nil)
	}

	return completion.Choices[0].Message.Content, nil
}

// HealthCheck verifies the completion backend is running and has a model loaded
func (s *LLMService) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/models", nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("completion backend not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("completion backend returned status %d", resp.StatusCode)
	}

	return nil
}
