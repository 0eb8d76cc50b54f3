package snapshot

import "time"

// Envelope is the document written to every snapshot slot.
type Envelope struct {
	Data     any      `json:"data"`
	Metadata Metadata `json:"metadata"`
}

type Metadata struct {
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// Expired reports whether the envelope is stale at now.
// Nothing in this module enforces expiry; consumers do.
func (e *Envelope) Expired(now time.Time) bool {
	return !now.Before(e.Metadata.ExpiresAt)
}
