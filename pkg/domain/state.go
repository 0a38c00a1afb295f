package domain

import (
	"encoding/json"
	"time"
)

// RunStatus defines the current mode of a run.
type RunStatus string

const (
	StatusIdle         RunStatus = "idle"          // No run in progress
	StatusRunning      RunStatus = "running"       // Engine is processing nodes
	StatusWaitingInput RunStatus = "waiting_input" // Suspended at an input or condition node
	StatusCompleted    RunStatus = "completed"     // Sink reached (end node or dead end)
	StatusError        RunStatus = "error"         // Structural or per-node failure
)

// Terminal reports whether no further node will be processed.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// MessageType classifies a transcript entry.
type MessageType string

const (
	MessageBot    MessageType = "bot"
	MessageUser   MessageType = "user"
	MessageSystem MessageType = "system"
)

// Message is one transcript line.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	NodeID    string      `json:"nodeId,omitempty"`
}

// LogEntry is the structured audit record of one node being processed.
type LogEntry struct {
	NodeID     string    `json:"nodeId"`
	NodeType   NodeType  `json:"nodeType"`
	NodeLabel  string    `json:"nodeLabel"`
	Action     string    `json:"action"`
	Input      any       `json:"input,omitempty"`
	Output     any       `json:"output,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
}

// VisitedSet is an insertion-ordered set of node ids. It only grows.
type VisitedSet struct {
	order []string
	seen  map[string]struct{}
}

// Add records id; repeated visits keep the first position.
func (v *VisitedSet) Add(id string) {
	if v.seen == nil {
		v.seen = make(map[string]struct{})
	}
	if _, ok := v.seen[id]; ok {
		return
	}
	v.seen[id] = struct{}{}
	v.order = append(v.order, id)
}

// Has reports whether id was visited.
func (v *VisitedSet) Has(id string) bool {
	_, ok := v.seen[id]
	return ok
}

// Len returns the number of distinct visited nodes.
func (v *VisitedSet) Len() int { return len(v.order) }

// IDs returns the visited ids in first-visit order.
func (v *VisitedSet) IDs() []string {
	return append([]string{}, v.order...)
}

// MarshalJSON encodes the set as an ordered array.
func (v VisitedSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.IDs())
}

// UnmarshalJSON decodes an array of ids.
func (v *VisitedSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*v = VisitedSet{}
	for _, id := range ids {
		v.Add(id)
	}
	return nil
}

// RunState is the single owner of everything a run mutates.
type RunState struct {
	Status        RunStatus      `json:"status"`
	CurrentNodeID string         `json:"currentNodeId,omitempty"`
	Variables     map[string]any `json:"variables"`
	Messages      []Message      `json:"messages"`
	ExecutionLog  []LogEntry     `json:"executionLog"`
	VisitedNodes  VisitedSet     `json:"visitedNodes"`
	Error         string         `json:"error,omitempty"`
}

// NewRunState returns the empty idle state.
func NewRunState() *RunState {
	return &RunState{
		Status:       StatusIdle,
		Variables:    make(map[string]any),
		Messages:     []Message{},
		ExecutionLog: []LogEntry{},
	}
}

// Clone returns a copy that shares no mutable memory with s.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return nil
	}
	next := *s
	next.Variables = make(map[string]any, len(s.Variables))
	for k, v := range s.Variables {
		next.Variables[k] = v
	}
	next.Messages = append([]Message{}, s.Messages...)
	next.ExecutionLog = append([]LogEntry{}, s.ExecutionLog...)
	next.VisitedNodes = VisitedSet{}
	for _, id := range s.VisitedNodes.order {
		next.VisitedNodes.Add(id)
	}
	return &next
}

// LastMessage returns the most recent transcript entry, if any.
func (s *RunState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}
