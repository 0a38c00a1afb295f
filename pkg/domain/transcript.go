package domain

import "time"

// Transcript is the archived record of a finished conversation.
// It is kept for audit only and never reloaded into a run.
type Transcript struct {
	ConversationID string    `json:"conversationId"`
	Flow           string    `json:"flow,omitempty"`
	Config         RunConfig `json:"config"`
	State          RunState  `json:"state"`
	ArchivedAt     time.Time `json:"archivedAt"`
}
