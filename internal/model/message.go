// Package model defines the API-facing message types.
package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// CreateThreadResponse is the response to a thread creation request.
type CreateThreadResponse struct {
	ThreadID string `json:"thread_id"`
}

// AddMessageRequest asks the analyst to answer a user message on a thread.
type AddMessageRequest struct {
	ThreadID    string `json:"thread_id"`
	UserMessage string `json:"user_message"`
}

// MessageView is one rendered message in the turn's answer. Image carries the
// base64-encoded chart bytes when the message has an image attachment.
type MessageView struct {
	Role  Role   `json:"role"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// AddMessageResponse carries the assistant's answer for the turn.
type AddMessageResponse struct {
	Messages []MessageView `json:"messages"`
}
