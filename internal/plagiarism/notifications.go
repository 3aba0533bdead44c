package plagiarism

import (
	"sync"
	"time"
)

type NotificationLevel string

const (
	NotificationError NotificationLevel = "error"
	NotificationInfo  NotificationLevel = "info"
)

// Notification is a one-shot message for the viewer.
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
	At      time.Time         `json:"at"`
}

type Notifier interface {
	Notify(n Notification)
}

// Inbox buffers notifications until the view drains them. Each notification
// is delivered at most once.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

// NewInbox creates an inbox holding at most limit undelivered notifications;
// the oldest are dropped first. A non-positive limit means unbounded.
func NewInbox(limit int) *Inbox {
	return &Inbox{limit: limit}
}

func (i *Inbox) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.items = append(i.items, n)
	if i.limit > 0 && len(i.items) > i.limit {
		i.items = i.items[len(i.items)-i.limit:]
	}
}

// Drain returns and clears pending notifications.
func (i *Inbox) Drain() []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()

	out := i.items
	i.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}
