package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
)

// letterFreqEmbedder is a deterministic offline embedder: a text's vector
// is its letter frequency histogram.
type letterFreqEmbedder struct{}

func (letterFreqEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 26)
		for _, r := range strings.ToLower(text) {
			if r >= 'a' && r <= 'z' {
				vec[r-'a']++
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("rate limited")
}

// stubAI returns a canned answer and records what it was asked.
type stubAI struct {
	answer      string
	err         error
	lastPrompt  string
	lastHistory []types.Message
}

func (s *stubAI) Chat(_ context.Context, prompt string, messages []types.Message) (string, error) {
	s.lastPrompt = prompt
	s.lastHistory = messages
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

func newChatFixture(t *testing.T) (*ChatService, *stubAI, *database.MemoryIndex, *repository.DocumentRepo) {
	t.Helper()
	index := database.NewMemoryIndex(letterFreqEmbedder{})
	repo := repository.NewDocumentRepo()
	ai := &stubAI{answer: "The report covers revenue."}
	return NewChatService(index, repo, ai, 3, 0), ai, index, repo
}

func TestChatService_BlankMessage(t *testing.T) {
	chat, _, _, _ := newChatFixture(t)

	_, err := chat.Chat(context.Background(), "", "   \t ", nil)

	assert.ErrorIs(t, err, types.ErrEmptyMessage)
}

func TestChatService_IndexUnavailable(t *testing.T) {
	repo := repository.NewDocumentRepo()
	chat := NewChatService(nil, repo, &stubAI{answer: "unused"}, 3, 0)

	res, err := chat.Chat(context.Background(), "", "anything", nil)

	require.NoError(t, err)
	assert.Equal(t, AdvisoryIndexUnavailable, res.Response)
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, DegradedIndexUnavailable, res.DegradedReason)
}

func TestChatService_AnswersWithDeduplicatedSources(t *testing.T) {
	chat, ai, index, _ := newChatFixture(t)
	err := index.InsertPassages(context.Background(), "doc-1", "report.pdf", []string{
		"revenue grew in the first quarter",
		"revenue guidance was raised",
		"churn stayed flat across regions",
	})
	require.NoError(t, err)

	res, err := chat.Chat(context.Background(), "", "what does the report say about revenue?", nil)

	require.NoError(t, err)
	assert.Equal(t, "The report covers revenue.", res.Response)
	assert.Equal(t, []string{"report.pdf"}, res.Sources)
	assert.Equal(t, 0.8, res.Confidence)
	assert.Empty(t, res.DegradedReason)
	assert.Contains(t, ai.lastPrompt, "revenue")
}

func TestChatService_ScopedRetrieval(t *testing.T) {
	chat, ai, index, _ := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, index.InsertPassages(ctx, "doc-1", "report.pdf", []string{"revenue grew this quarter"}))
	require.NoError(t, index.InsertPassages(ctx, "doc-2", "manual.txt", []string{"revenue is recorded in table four"}))

	res, err := chat.Chat(ctx, "", "where is revenue recorded?", []string{"doc-2"})

	require.NoError(t, err)
	assert.Equal(t, []string{"manual.txt"}, res.Sources)
	assert.NotContains(t, ai.lastPrompt, "report.pdf")
}

func TestChatService_GenerationFailureDegrades(t *testing.T) {
	chat, ai, index, _ := newChatFixture(t)
	ai.err = errors.New("model overloaded")
	require.NoError(t, index.InsertPassages(context.Background(), "doc-1", "report.pdf", []string{"some content"}))

	res, err := chat.Chat(context.Background(), "", "a question", nil)

	require.NoError(t, err)
	assert.Contains(t, res.Response, "model overloaded")
	assert.Empty(t, res.Sources)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, DegradedGenerationFailed, res.DegradedReason)
	// A degraded turn is not recorded in the conversation.
	assert.Equal(t, 0, chat.Memory("").Len())
}

func TestChatService_RetrievalFailureDegrades(t *testing.T) {
	index := database.NewMemoryIndex(failingEmbedder{})
	chat := NewChatService(index, repository.NewDocumentRepo(), &stubAI{answer: "unused"}, 3, 0)

	res, err := chat.Chat(context.Background(), "", "a question", nil)

	require.NoError(t, err)
	assert.Contains(t, res.Response, "rate limited")
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, DegradedRetrievalFailed, res.DegradedReason)
}

func TestChatService_SessionsAreIsolated(t *testing.T) {
	chat, ai, index, _ := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, index.InsertPassages(ctx, "doc-1", "report.pdf", []string{"quarterly revenue numbers"}))

	_, err := chat.Chat(ctx, "alice", "first question", nil)
	require.NoError(t, err)
	_, err = chat.Chat(ctx, "bob", "another question", nil)
	require.NoError(t, err)

	// The second turn ran in a fresh session, so no history was passed.
	assert.Empty(t, ai.lastHistory)
	assert.Equal(t, 2, chat.Memory("alice").Len())
	assert.Equal(t, 2, chat.Memory("bob").Len())
	assert.Equal(t, 0, chat.Memory("").Len())
}

func TestChatService_MemoryGrowsPerTurn(t *testing.T) {
	chat, ai, index, _ := newChatFixture(t)
	ctx := context.Background()
	require.NoError(t, index.InsertPassages(ctx, "doc-1", "report.pdf", []string{"quarterly revenue numbers"}))

	_, err := chat.Chat(ctx, "", "first question", nil)
	require.NoError(t, err)
	_, err = chat.Chat(ctx, "", "second question", nil)
	require.NoError(t, err)

	require.Len(t, ai.lastHistory, 2)
	assert.Equal(t, "user", ai.lastHistory[0].Role)
	assert.Equal(t, "first question", ai.lastHistory[0].Content)
	assert.Equal(t, "assistant", ai.lastHistory[1].Role)
	assert.Equal(t, 4, chat.Memory("").Len())
}

func TestConversationMemory_OutputKey(t *testing.T) {
	memory := NewConversationMemory(AnswerOutputKey)
	memory.AppendTurn("a question", map[string]string{
		"answer":           "the answer",
		"source_documents": "ignored",
	})

	history := memory.History()
	require.Len(t, history, 2)
	assert.Equal(t, "the answer", history[1].Content)
}
