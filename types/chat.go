package types

// Message represents a single message in the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest carries one chat turn. SessionID selects the conversation
// memory to use; when empty the shared default session is used.
type ChatRequest struct {
	Message     string   `json:"message"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	SessionID   string   `json:"session_id,omitempty"`
}

// ChatResponse is the result of one chat turn. Confidence is a fixed
// placeholder: 0.8 when an answer was generated, 0.0 for degraded
// responses. DegradedReason is set only on degraded responses.
type ChatResponse struct {
	Response       string   `json:"response"`
	Sources        []string `json:"sources"`
	Confidence     float64  `json:"confidence"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
}
