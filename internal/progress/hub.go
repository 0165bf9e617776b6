package progress

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Listener receives events. Listeners run on the publishing goroutine and
// must not call Publish.
type Listener func(Event)

// Publisher is the side of the hub the scan pipeline depends on.
type Publisher interface {
	Publish(Event)
}

type subscription struct {
	id       uint64
	listener Listener
}

// Hub fans events out to its listeners. Deliveries are serialized, so each
// listener sees events in publication order and never concurrently.
type Hub struct {
	logger *zap.Logger

	deliver sync.Mutex

	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger}
}

// Subscribe registers l and returns a function that removes it again.
func (h *Hub) Subscribe(l Listener) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription{id: id, listener: l})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for i, s := range h.subs {
				if s.id == id {
					h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers e to every listener in subscription order. A panicking
// listener is logged and does not affect the others.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	subs := make([]subscription, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	h.deliver.Lock()
	defer h.deliver.Unlock()
	for _, s := range subs {
		h.call(s.listener, e)
	}
}

func (h *Hub) call(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("progress listener panicked",
				zap.String("scan_id", e.ScanID), zap.Any("panic", r))
		}
	}()
	l(e)
}

// Stream returns a channel with the events of scanID, or of every scan when
// scanID is empty. Events are queued without bound so a slow reader never
// blocks publishers. The channel is closed once the scan's finished event
// has been delivered or ctx is done.
func (h *Hub) Stream(ctx context.Context, scanID string) <-chan Event {
	out := make(chan Event)
	q := &queue{signal: make(chan struct{}, 1)}
	unsubscribe := h.Subscribe(func(e Event) {
		if scanID == "" || e.ScanID == scanID {
			q.push(e)
		}
	})

	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			e, ok := q.pop()
			if !ok {
				select {
				case <-ctx.Done():
					return
				case <-q.signal:
					continue
				}
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
			if scanID != "" && e.Kind == KindFinished {
				return
			}
		}
	}()
	return out
}

type queue struct {
	mu     sync.Mutex
	items  []Event
	signal chan struct{}
}

func (q *queue) push(e Event) {
	q.mu.Lock()
	q.items = append(q.items, e)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *queue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Event{}, false
	}
	e := q.items[0]
	q.items[0] = Event{}
	q.items = q.items[1:]
	return e, true
}
