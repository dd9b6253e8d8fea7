package realtime

import (
	"context"
	"log/slog"
	"sync"
)

var _ Publisher = (*Hub)(nil)

// Hub is the in-process feed. Publish delivers to every matching local
// subscriber and, when a remote publisher is attached, fans the event out
// to other instances as well.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	remote Publisher
}

type subscription struct {
	table    string
	branchID string // empty matches every branch
	ch       chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*subscription)}
}

// AttachRemote adds a fan-out publisher (e.g. Redis pub/sub). Call before
// serving; not synchronised against concurrent Publish.
func (h *Hub) AttachRemote(p Publisher) {
	h.remote = p
}

// Subscribe registers for changes on table, optionally filtered to one
// branch. The returned cancel func is idempotent and must be called on view
// teardown; after it returns the channel is closed and no more events are
// delivered.
func (h *Hub) Subscribe(table, branchID string, buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	sub := &subscription{table: table, branchID: branchID, ch: make(chan Event, buffer)}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers event locally and to the remote fan-out if attached.
// Local delivery never blocks: a subscriber that has fallen behind loses
// the event and catches up on its next re-read.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.deliver(event)

	if h.remote != nil {
		if err := h.remote.Publish(ctx, event); err != nil {
			slog.ErrorContext(ctx, "realtime remote publish failed", "table", event.Table, "error", err)
			return err
		}
	}
	return nil
}

// Deliver pushes an event to local subscribers only. The Redis bridge uses
// it for inbound events so they are not echoed back out.
func (h *Hub) Deliver(event Event) {
	h.deliver(event)
}

func (h *Hub) deliver(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.table != event.Table {
			continue
		}
		if sub.branchID != "" && sub.branchID != event.BranchID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}
