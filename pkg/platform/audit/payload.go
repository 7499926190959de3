package audit

import (
	"encoding/json"
	"time"
)

// payload is the JSON document published for each event.
type payload struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Action      string `json:"action"`
	Timestamp   string `json:"timestamp"`
	ActorID     string `json:"actor_id,omitempty"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	FromStatus  string `json:"from_status,omitempty"`
	ToStatus    string `json:"to_status,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Diff        string `json:"diff,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// MarshalPayload renders the broker payload for event.
func MarshalPayload(e Event) ([]byte, error) {
	p := payload{
		ID:          e.ID.String(),
		Category:    string(e.Category()),
		Action:      string(e.Action),
		Timestamp:   e.Timestamp.UTC().Format(time.RFC3339Nano),
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		FromStatus:  e.FromStatus,
		ToStatus:    e.ToStatus,
		Reason:      e.Reason,
		Diff:        e.Diff,
		RequestID:   e.RequestID,
	}
	if !e.ActorID.IsNil() {
		p.ActorID = e.ActorID.String()
	}
	return json.Marshal(p)
}
