package domain

import (
	"encoding/json"
	"time"
)

// SendboxEntry is one append-only audit record of a send attempt. Raw
// holds the redacted outbound payload (signing material stripped,
// requester IP attached). Entries are never mutated or deleted;
// retrieval is newest-first by ID.
type SendboxEntry struct {
	ID        int64           `json:"id"`
	Address   string          `json:"address"`
	Raw       json.RawMessage `json:"raw"`
	CreatedAt time.Time       `json:"created_at"`
}
