package client

import (
	"sync"
	"time"
)

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// notificationLifetime is how long a notification stays visible.
const notificationLifetime = 5 * time.Second

// Notification is one transient, auto-dismissing message.
type Notification struct {
	Message string
	Level   string
}

// Notifier holds the currently visible notifications. Each one is
// dropped automatically after its lifetime expires.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	active map[uint64]Notification
	order  []uint64
	after  func(time.Duration, func())
}

func NewNotifier() *Notifier {
	return &Notifier{
		active: make(map[uint64]Notification),
		after:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Notify shows a message at the given level.
func (n *Notifier) Notify(message, level string) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.active[id] = Notification{Message: message, Level: level}
	n.order = append(n.order, id)
	n.mu.Unlock()

	n.after(notificationLifetime, func() {
		n.mu.Lock()
		delete(n.active, id)
		n.mu.Unlock()
	})
}

// Active returns the visible notifications in display order.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Notification, 0, len(n.active))
	for _, id := range n.order {
		if note, ok := n.active[id]; ok {
			out = append(out, note)
		}
	}
	return out
}
