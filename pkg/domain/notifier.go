package domain

// EmailNotifier subscribes a mailbox to events from a set of origins.
type EmailNotifier struct {
	ID      int64    `json:"id,omitempty"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Origins []string `json:"origins,omitempty"` // event-origin codes
	Active  bool     `json:"active"`
}
