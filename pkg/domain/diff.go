package domain

import (
	"reflect"
)

// RunDiff represents the changes between two run snapshots.
// It is serialized to JSON for partial updates on streaming clients.
type RunDiff struct {
	// RunID is always present to identify the target.
	RunID string `json:"run_id"`

	CurrentNodeID *string    `json:"current_node_id,omitempty"`
	Status        *RunStatus `json:"status,omitempty"`

	// Variables contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Variables map[string]any `json:"variables,omitempty"`

	// Messages and Log contain entries appended since the old snapshot.
	Messages []Message  `json:"messages,omitempty"`
	Log      []LogEntry `json:"log,omitempty"`

	// Reset is set when the new snapshot is not a continuation of the old one.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(runID string, oldState, newState *RunState) *RunDiff {
	if newState == nil {
		return nil
	}

	diff := &RunDiff{RunID: runID}

	if oldState != nil && !continues(oldState, newState) {
		// Transcript was replaced: the run was reset. Send everything.
		diff.Reset = true
		oldState = nil
	}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		id := newState.CurrentNodeID
		diff.CurrentNodeID = &id
	}
	if oldState == nil || oldState.Status != newState.Status {
		status := newState.Status
		diff.Status = &status
	}

	diff.Variables = diffVariables(oldState, newState)

	var oldMsgs, oldLog int
	if oldState != nil {
		oldMsgs = len(oldState.Messages)
		oldLog = len(oldState.ExecutionLog)
	}
	if len(newState.Messages) > oldMsgs {
		diff.Messages = append([]Message{}, newState.Messages[oldMsgs:]...)
	}
	if len(newState.ExecutionLog) > oldLog {
		diff.Log = append([]LogEntry{}, newState.ExecutionLog[oldLog:]...)
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// continues reports whether newState's transcript extends oldState's.
func continues(oldState, newState *RunState) bool {
	if len(newState.Messages) < len(oldState.Messages) {
		return false
	}
	if len(oldState.Messages) == 0 {
		return true
	}
	return newState.Messages[0].ID == oldState.Messages[0].ID
}

func diffVariables(old *RunState, new *RunState) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Variables {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Variables {
			oldVal, exists := old.Variables[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.Variables {
			if _, exists := new.Variables[k]; !exists {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *RunDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		!d.Reset &&
		len(d.Variables) == 0 &&
		len(d.Messages) == 0 &&
		len(d.Log) == 0
}
