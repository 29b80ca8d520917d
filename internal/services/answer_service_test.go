package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdocs/internal/models"
	"askdocs/internal/repositories"
)

// stubCompletion records every prompt and replies from a queue. An empty
// queue repeats the last reply.
type stubCompletion struct {
	prompts []string
	replies []string
	err     error
}

func (s *stubCompletion) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func (s *stubCompletion) Chat(ctx context.Context, messages []models.ChatMessage) (string, error) {
	var sb strings.Builder
	for _, message := range messages {
		sb.WriteString(message.Content)
		sb.WriteString("\n")
	}
	return s.Complete(ctx, sb.String())
}

func newAnswerFixture(t *testing.T, texts []string, completion *stubCompletion) *AnswerService {
	t.Helper()

	embedder := &stubEmbedder{model: "test/model"}
	index := NewIndexService(embedder, repositories.NewMemoryVectorRepository(), "askdocs", testLogger())

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

	return NewAnswerService(index, completion, testLogger())
}

func TestAnswerService_PromptContainsQuestionAndChunks(t *testing.T) {
	completion := &stubCompletion{replies: []string{"Paris."}}
	svc := newAnswerFixture(t, []string{
		"Paris is the capital of France.",
		"France is in Western Europe.",
	}, completion)

	result, err := svc.Answer(context.Background(), "What is the capital of France?", 2)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", result.Answer)
	assert.Len(t, result.Chunks, 2)

	require.Len(t, completion.prompts, 1)
	prompt := completion.prompts[0]
	assert.Contains(t, prompt, "What is the capital of France?")
	assert.Contains(t, prompt, "Paris is the capital of France.")
	assert.Contains(t, prompt, "France is in Western Europe.")
	assert.Contains(t, prompt, UnknownAnswerMarker)
}

func TestAnswerService_EmptyQuestion(t *testing.T) {
	completion := &stubCompletion{replies: []string{"unused"}}
	svc := newAnswerFixture(t, []string{"some text"}, completion)

	_, err := svc.Answer(context.Background(), "", 2)
	require.Error(t, err)

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Empty(t, completion.prompts, "no completion call for an invalid question")
}

func TestAnswerService_DefaultsTopK(t *testing.T) {
	completion := &stubCompletion{replies: []string{"ok"}}
	svc := newAnswerFixture(t, []string{"a", "b", "c", "d", "e", "f"}, completion)

	result, err := svc.Answer(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Len(t, result.Chunks, DefaultAnswerTopK)
}

func TestAnswerService_RetrievalErrorPropagates(t *testing.T) {
	// Index never built, so retrieval fails before any completion call
	index := NewIndexService(&stubEmbedder{model: "test/model"}, repositories.NewMemoryVectorRepository(), "askdocs", testLogger())
	completion := &stubCompletion{replies: []string{"unused"}}
	svc := NewAnswerService(index, completion, testLogger())

	_, err := svc.Answer(context.Background(), "question", 3)
	require.Error(t, err)

	var emptyErr *EmptyIndexError
	assert.ErrorAs(t, err, &emptyErr)
	assert.Empty(t, completion.prompts)
}

func TestAnswerService_EmptyCompletionIsError(t *testing.T) {
	completion := &stubCompletion{replies: []string{"   \n "}}
	svc := newAnswerFixture(t, []string{"some text"}, completion)

	_, err := svc.Answer(context.Background(), "question", 1)
	require.Error(t, err)

	var completionErr *CompletionError
	assert.ErrorAs(t, err, &completionErr)
}

func TestAnswerService_CompletionFailurePropagates(t *testing.T) {
	completion := &stubCompletion{err: NewCompletionError("backend timeout", nil)}
	svc := newAnswerFixture(t, []string{"some text"}, completion)

	_, err := svc.Answer(context.Background(), "question", 1)
	require.Error(t, err)

	var completionErr *CompletionError
	assert.ErrorAs(t, err, &completionErr)
}
