package datatypes

import (
	"time"

	"github.com/google/uuid"
)

// Session holds one conversation and its cached explanation state. The
// fingerprint is internal cache bookkeeping and is never serialized.
type Session struct {
	ID              string    `json:"session_id"`
	Messages        []Message `json:"messages"`
	CreatedAt       time.Time `json:"created_at"`
	LastExplanation string    `json:"last_inference"`
	LastFingerprint string    `json:"-"`
}

// NewSession returns an empty session. A fresh uuid is assigned when id is
// empty.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.New().String()
	}
	return &Session{
		ID:        id,
		Messages:  []Message{},
		CreatedAt: time.Now().UTC(),
	}
}
