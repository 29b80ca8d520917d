package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
	"askdocs/internal/services"
)

// flatEmbedder maps every text to the same vector, so search ordering falls
// back to insertion order and tests stay deterministic.
type flatEmbedder struct{}

func (flatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (flatEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0}
	}
	return vectors, nil
}

func (flatEmbedder) ModelID() string { return "test/model" }

// scriptedCompletion replies from a queue, repeating the last entry.
type scriptedCompletion struct {
	replies []string
	calls   int
}

func (s *scriptedCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if len(s.replies) == 0 {
		return "", services.NewCompletionError("no scripted reply", nil)
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func (s *scriptedCompletion) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	return s.Complete(ctx, "")
}

func handlerLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func builtIndex(t *testing.T, texts ...string) *services.IndexService {
	t.Helper()
	index := services.NewIndexService(flatEmbedder{}, repositories.NewMemoryVectorRepository(), "askdocs", handlerLogger())

	chunks := make([]*models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &models.Chunk{
			ID:         "doc-1_chunk_" + string(rune('0'+i)),
			DocumentID: "doc-1",
			Text:       text,
			ChunkIndex: i,
		}
	}
	require.NoError(t, index.BuildIndex(context.Background(), chunks))
	return index
}

func newChatHandler(t *testing.T, answerLLM, routerLLM, writerLLM *scriptedCompletion) *ChatHandler {
	t.Helper()
	index := builtIndex(t, "Paris is the capital of France.")
	answerer := services.NewAnswerService(index, answerLLM, handlerLogger())
	writer := services.NewWriterService(writerLLM, handlerLogger())
	router := services.NewRouterService(routerLLM, handlerLogger())
	dispatcher := services.NewDispatcherService(router, answerer, writer, services.DefaultToolCatalog(), handlerLogger())
	return NewChatHandler(answerer, dispatcher, handlerLogger())
}

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(encoded))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestChatHandler_Ask(t *testing.T) {
	answerLLM := &scriptedCompletion{replies: []string{"Paris."}}
	handler := newChatHandler(t, answerLLM, &scriptedCompletion{}, &scriptedCompletion{})

	rec := postJSON(t, handler.Ask, models.AskRequest{Question: "What is the capital of France?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AskResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Paris.", resp.Answer)
	assert.Equal(t, "success", resp.Status)
	require.NotEmpty(t, resp.Context)
	assert.Equal(t, "Paris is the capital of France.", resp.Context[0].Text)
}

func TestChatHandler_AskValidation(t *testing.T) {
	handler := newChatHandler(t, &scriptedCompletion{}, &scriptedCompletion{}, &scriptedCompletion{})

	rec := postJSON(t, handler.Ask, models.AskRequest{Question: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp.Message, "question")
}

func TestChatHandler_AskInvalidBody(t *testing.T) {
	handler := newChatHandler(t, &scriptedCompletion{}, &scriptedCompletion{}, &scriptedCompletion{})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.Ask(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_AskEmptyIndex(t *testing.T) {
	index := services.NewIndexService(flatEmbedder{}, repositories.NewMemoryVectorRepository(), "askdocs", handlerLogger())
	answerer := services.NewAnswerService(index, &scriptedCompletion{}, handlerLogger())
	handler := NewChatHandler(answerer, nil, handlerLogger())

	rec := postJSON(t, handler.Ask, models.AskRequest{Question: "anything"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_AskCompletionFailure(t *testing.T) {
	handler := newChatHandler(t, &scriptedCompletion{}, &scriptedCompletion{}, &scriptedCompletion{})

	rec := postJSON(t, handler.Ask, models.AskRequest{Question: "anything"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChatHandler_ChatRoutesToAnswerer(t *testing.T) {
	answerLLM := &scriptedCompletion{replies: []string{"Paris."}}
	routerLLM := &scriptedCompletion{replies: []string{"<tool>find_information</tool>"}}
	handler := newChatHandler(t, answerLLM, routerLLM, &scriptedCompletion{})

	rec := postJSON(t, handler.Chat, models.AgentChatRequest{Message: "What is the capital of France?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AgentChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Paris.", resp.Message)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "find_information", resp.Tool)
}

func TestChatHandler_ChatRoutesToWriter(t *testing.T) {
	routerLLM := &scriptedCompletion{replies: []string{"<tool>write_content</tool>"}}
	writerLLM := &scriptedCompletion{replies: []string{"A short poem."}}
	handler := newChatHandler(t, &scriptedCompletion{}, routerLLM, writerLLM)

	rec := postJSON(t, handler.Chat, models.AgentChatRequest{
		Message: "Write a poem",
		History: []models.ConversationTurn{{Query: "q", Reply: "earlier reply"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AgentChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "A short poem.", resp.Message)
	assert.Equal(t, "write_content", resp.Tool)
}

func TestChatHandler_ChatRouterFailureStillReplies(t *testing.T) {
	// Router produces garbage twice: the strict re-ask also fails, yet the
	// turn resolves with an apologetic reply instead of an error status
	routerLLM := &scriptedCompletion{replies: []string{"no markers here"}}
	handler := newChatHandler(t, &scriptedCompletion{}, routerLLM, &scriptedCompletion{})

	rec := postJSON(t, handler.Chat, models.AgentChatRequest{Message: "hmm"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.AgentChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, routerFailureReply, resp.Message)
	assert.Equal(t, "error", resp.Status)
	assert.Empty(t, resp.Tool)
	assert.Equal(t, 2, routerLLM.calls, "one strict re-ask before giving up")
}

func TestChatHandler_ChatValidation(t *testing.T) {
	handler := newChatHandler(t, &scriptedCompletion{}, &scriptedCompletion{}, &scriptedCompletion{})

	rec := postJSON(t, handler.Chat, models.AgentChatRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
