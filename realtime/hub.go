package realtime

import (
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	TablePhotos   = "photos"
	TableVotes    = "votes"
	TableSettings = "app_settings"

	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event tells subscribers that rows of Table changed, so whatever they derived from it is stale
type Event struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

// Notifier is implemented by Hub. Services depend on this only.
type Notifier interface {
	Notify(table, action, id string)
}

// Nop discards all notifications
type Nop struct{}

func (Nop) Notify(table, action, id string) {}

// SendFunc returns false if the subscriber is gone and should be dropped
type SendFunc func(Event) bool

type Hub struct {
	subscribers cmap.ConcurrentMap[string, SendFunc]
}

func NewHub() *Hub {
	return &Hub{
		subscribers: cmap.New[SendFunc](),
	}
}

// Subscribe registers send for every future event until cancel is called.
// send is called from the notifying goroutine and must not block.
func (h *Hub) Subscribe(send SendFunc) (cancel func()) {
	id := uuid.NewString()
	h.subscribers.Set(id, send)
	return func() {
		h.subscribers.Remove(id)
	}
}

// SubscribeChan delivers events on a buffered channel. Events are dropped while the buffer is full:
// they only mean "refetch", and the next one has the same effect. The channel is never closed.
func (h *Hub) SubscribeChan(buffer int) (<-chan Event, func()) {
	events := make(chan Event, buffer)
	cancel := h.Subscribe(func(ev Event) bool {
		select {
		case events <- ev:
		default:
		}
		return true
	})
	return events, cancel
}

func (h *Hub) Notify(table, action, id string) {
	ev := Event{Table: table, Action: action, ID: id}
	for item := range h.subscribers.IterBuffered() {
		if !item.Val(ev) {
			h.subscribers.Remove(item.Key)
		}
	}
}

// Count returns the number of active subscribers
func (h *Hub) Count() int {
	return h.subscribers.Count()
}
