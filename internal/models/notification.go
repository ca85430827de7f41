package models

import "time"

// Notification statuses. sent, failed and "token not exists" are terminal;
// pending and error records are picked up again by the dispatch loop.
const (
	NotificationStatusPending = "pending"
	NotificationStatusSent    = "sent"
	NotificationStatusError   = "error"
	NotificationStatusFailed  = "failed"
	NotificationStatusNoToken = "token not exists"
)

type Notification struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"-"`
	NextAttemptAt time.Time  `json:"-"`
	SendAt        *time.Time `json:"send_at,omitempty"` // stamped when the record goes terminal
	CreatedAt     time.Time  `json:"created_at"`
}

// IsTerminal reports whether a notification status excludes the record from
// future dispatch scans.
func (n *Notification) IsTerminal() bool {
	switch n.Status {
	case NotificationStatusSent, NotificationStatusFailed, NotificationStatusNoToken:
		return true
	}
	return false
}
