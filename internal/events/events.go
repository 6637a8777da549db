package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TypePing           = "ping"
	TypeJobUpserted    = "job.upserted"
	TypeJobsDeleted    = "jobs.deleted"
	TypeScrapeStarted  = "scrape.started"
	TypeScrapeFinished = "scrape.finished"
	TypeConfigUpdated  = "config.updated"
	TypeProfileUpdated = "profile.updated"
)

// SchemaVersion is bumped when an event's data shape changes.
const SchemaVersion = 1

// Event is the envelope every SSE message carries.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func New(reqID, typ string, data any) Event {
	e := Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Version:   SchemaVersion,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	return e
}

// Encode returns the JSON form sent on the wire.
func (e Event) Encode() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// MakeEvent builds and encodes an event in one step.
func MakeEvent(reqID, typ string, data any) string {
	return New(reqID, typ, data).Encode()
}

// idOf pulls the envelope id back out of an encoded event.
func idOf(payload string) string {
	var head struct {
		ID string `json:"id"`
	}
	if json.Unmarshal([]byte(payload), &head) != nil {
		return ""
	}
	return head.ID
}
