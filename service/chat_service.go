package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tieubaoca/docqa-be/database"
	"github.com/tieubaoca/docqa-be/repository"
	"github.com/tieubaoca/docqa-be/types"
)

const (
	DefaultTopK = 3

	// DefaultSessionID is the conversation used when a chat request does
	// not name a session.
	DefaultSessionID = "default"

	// AnswerOutputKey names the generated field the conversation memory
	// records as the answer of a turn.
	AnswerOutputKey = "answer"

	// AdvisoryIndexUnavailable is returned as chat content when the vector
	// index never initialized.
	AdvisoryIndexUnavailable = "Vector store not initialized. Please upload some documents first."

	answeredConfidence = 0.8
)

// Reason codes attached to degraded chat responses.
const (
	DegradedIndexUnavailable = "index_unavailable"
	DegradedRetrievalFailed  = "retrieval_failed"
	DegradedGenerationFailed = "generation_failed"
)

// ConversationMemory holds the ordered (question, answer) turns of a chat
// session. Turn appends are serialized so concurrent chats cannot reorder
// a session's history.
type ConversationMemory struct {
	mu        sync.Mutex
	outputKey string
	messages  []types.Message
}

func NewConversationMemory(outputKey string) *ConversationMemory {
	if outputKey == "" {
		outputKey = AnswerOutputKey
	}
	return &ConversationMemory{outputKey: outputKey}
}

// AppendTurn records one question and the generated outputs of the turn,
// keeping the output named by the memory's output key as the answer.
func (m *ConversationMemory) AppendTurn(question string, outputs map[string]string) {
	answer := outputs[m.outputKey]
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages,
		types.Message{Role: "user", Content: question},
		types.Message{Role: "assistant", Content: answer},
	)
}

// History returns a copy of the conversation so far.
func (m *ConversationMemory) History() []types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]types.Message, len(m.messages))
	copy(history, m.messages)
	return history
}

// Len returns the number of recorded messages.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// ChatService answers questions with retrieval-augmented generation. A chat
// turn never fails outward except for blank input: retrieval or generation
// errors become degraded responses carrying the error as content.
type ChatService struct {
	index   database.VectorIndex
	repo    *repository.DocumentRepo
	ai      AIService
	topK    int
	timeout time.Duration

	mu       sync.Mutex
	sessions map[string]*ConversationMemory
}

func NewChatService(
	index database.VectorIndex,
	repo *repository.DocumentRepo,
	ai AIService,
	topK int,
	timeout time.Duration,
) *ChatService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &ChatService{
		index:    index,
		repo:     repo,
		ai:       ai,
		topK:     topK,
		timeout:  timeout,
		sessions: make(map[string]*ConversationMemory),
	}
}

// Memory returns the conversation memory of the named session, creating
// it on first use. An empty id maps to the default session.
func (s *ChatService) Memory(sessionID string) *ConversationMemory {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	memory, ok := s.sessions[sessionID]
	if !ok {
		memory = NewConversationMemory(AnswerOutputKey)
		s.sessions[sessionID] = memory
	}
	return memory
}

// Chat answers one turn within the named session. When documentIDs is
// non-empty, retrieval is restricted to those documents.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string, documentIDs []string) (*types.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, types.ErrEmptyMessage
	}

	if s.index == nil || !s.index.Ready() {
		return degradedResponse(AdvisoryIndexUnavailable, DegradedIndexUnavailable), nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	hits, err := s.index.Query(ctx, message, s.topK, documentIDs)
	if err != nil {
		log.Printf("Retrieval failed: %v", err)
		return degradedResponse(fmt.Sprintf("Error generating response: %v", err), DegradedRetrievalFailed), nil
	}

	memory := s.Memory(sessionID)
	prompt := buildPrompt(hits, message)
	answer, err := s.ai.Chat(ctx, prompt, memory.History())
	if err != nil {
		log.Printf("Generation failed: %v", err)
		return degradedResponse(fmt.Sprintf("Error generating response: %v", err), DegradedGenerationFailed), nil
	}

	memory.AppendTurn(message, map[string]string{AnswerOutputKey: answer})

	return &types.ChatResponse{
		Response:   answer,
		Sources:    s.collectSources(hits),
		Confidence: answeredConfidence,
	}, nil
}

// collectSources deduplicates the source filenames of the retrieved
// passages. A document contributing several passages appears once.
func (s *ChatService) collectSources(hits []database.PassageHit) []string {
	sources := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		source := hit.Source
		if source == "" {
			if doc, ok := s.repo.Get(hit.DocumentID); ok {
				source = doc.Filename
			}
		}
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}

func buildPrompt(hits []database.PassageHit, question string) string {
	var b strings.Builder
	b.WriteString("Answer the question using the document excerpts below.\n\n")
	if len(hits) == 0 {
		b.WriteString("No relevant excerpts were found.\n")
	}
	for i, hit := range hits {
		fmt.Fprintf(&b, "Excerpt %d (from %s):\n%s\n\n", i+1, hit.Source, hit.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func degradedResponse(message, reason string) *types.ChatResponse {
	return &types.ChatResponse{
		Response:       message,
		Sources:        []string{},
		Confidence:     0.0,
		DegradedReason: reason,
	}
}
