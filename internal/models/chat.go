package models

// ChatMessage represents a single message sent to the completion service
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// ConversationTurn represents one completed exchange with the assistant.
// The reply half is what the content-generation path harvests as material.
type ConversationTurn struct {
	Query string `json:"query"`
	Reply string `json:"reply"`
}

// AskRequest represents a non-agentic question over the indexed documents
type AskRequest struct {
	Question string             `json:"question"`
	History  []ConversationTurn `json:"history,omitempty"` // Accepted for interface uniformity; retrieval is stateless per question
	TopK     int                `json:"top_k,omitempty"`   // Maximum chunks to retrieve (default: 4)
}

// Validate validates the ask request
func (r *AskRequest) Validate() error {
	if r.Question == "" {
		return &ValidationError{Field: "question", Message: "question is required"}
	}
	if r.TopK < 0 {
		return &ValidationError{Field: "top_k", Message: "top_k cannot be negative"}
	}
	return nil
}

// AskResponse represents the answer to a non-agentic question
type AskResponse struct {
	Answer  string     `json:"answer"`
	Status  string     `json:"status"` // "success" or "error"
	Context []ChunkDTO `json:"context,omitempty"`
}

// AgentChatRequest represents an agentic chat request routed through the
// tool-decision layer
type AgentChatRequest struct {
	Message string             `json:"message"`
	History []ConversationTurn `json:"history,omitempty"`
}

// Validate validates the agent chat request
func (r *AgentChatRequest) Validate() error {
	if r.Message == "" {
		return &ValidationError{Field: "message", Message: "message is required"}
	}
	return nil
}

// AgentChatResponse represents the reply from the agentic chat endpoint
type AgentChatResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`         // "success" or "error"
	Tool    string `json:"tool,omitempty"` // Which tool handled the request
}
