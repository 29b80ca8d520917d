package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdocs/internal/models"
)

func completionReply(content string) string {
	response := map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
	body, _ := json.Marshal(response)
	return string(body)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService("", "")
	assert.Equal(t, LMStudioBaseURL, svc.baseURL)
	assert.Equal(t, DefaultLLMModel, svc.model)
}

func TestLLMService_Complete(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionReply("The capital of France is Paris.")))
	}))
	defer server.Close()

	svc := NewLLMService(server.URL, "test-model")
	reply, err := svc.Complete(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", reply)

	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "What is the capital of France?", captured.Messages[0].Content)
	assert.False(t, captured.Stream)
}

func TestLLMService_ChatSendsFullSequence(t *testing.T) {
	var captured chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(completionReply("ok")))
	}))
	defer server.Close()

	svc := NewLLMService(server.URL, "test-model")
	_, err := svc.Chat(context.Background(), []models.ChatMessage{
		{Role: "system", Content: "You are terse."},
		{Role: "user", Content: "hi"},
	})
	require.NoError(t, err)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
}

func TestLLMService_EmptyChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"chatcmpl-2","choices":[]}`))
	}))
	defer server.Close()

	svc := NewLLMService(server.URL, "test-model")
	_, err := svc.Complete(context.Background(), "prompt")
	require.Error(t, err)

	var completionErr *CompletionError
	assert.ErrorAs(t, err, &completionErr)
}

func TestLLMService_EmptyContentIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionReply("")))
	}))
	defer server.Close()

	svc := NewLLMService(server.URL, "test-model")
	_, err := svc.Complete(context.Background(), "prompt")
	require.Error(t, err)

	var completionErr *CompletionError
	assert.ErrorAs(t, err, &completionErr)
}

func TestLLMService_BackendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewLLMService(server.URL, "test-model")
	_, err := svc.Complete(context.Background(), "prompt")
	require.Error(t, err)

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Contains(t, completionErr.Message, "503")
}

func TestLLMService_BackendUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	svc := NewLLMService(server.URL, "test-model")
	_, err := svc.Complete(context.Background(), "prompt")
	require.Error(t, err)

	var completionErr *CompletionError
	assert.ErrorAs(t, err, &completionErr)
}

func TestLLMService_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"test-model"}]}`))
	}))
	defer server.Close()

	svc := NewLLMService(server.URL, "test-model")
	assert.NoError(t, svc.HealthCheck(context.Background()))
}
