package sessions

import "time"

// Session is a browser session; it only exists in storage once a flash
// message has been queued for it.
type Session struct {
	ID        string              `json:"id"`
	Flashes   map[string][]string `json:"flashes,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
