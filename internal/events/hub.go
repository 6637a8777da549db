package events

import "sync"

const (
	subscriberBuffer = 16
	defaultBacklog   = 64
)

// Hub fans encoded events out to subscribers. It keeps the last few events
// so a client reconnecting with Last-Event-ID can catch up.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan string]struct{}
	backlog []record
	keep    int
	closed  bool
	dropped int
}

type record struct {
	id      string
	payload string
}

func NewHub() *Hub { return NewHubWithBacklog(defaultBacklog) }

func NewHubWithBacklog(n int) *Hub {
	if n < 0 {
		n = 0
	}
	return &Hub{subs: make(map[chan string]struct{}), keep: n}
}

// Subscribe registers a new subscriber. When lastID is still in the backlog
// the events published after it are returned for replay. An unknown or
// empty lastID replays nothing. After Close the channel comes back closed.
func (h *Hub) Subscribe(lastID string) (chan string, []string) {
	ch := make(chan string, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, nil
	}
	h.subs[ch] = struct{}{}

	if lastID == "" {
		return ch, nil
	}
	for i, r := range h.backlog {
		if r.id != lastID {
			continue
		}
		replay := make([]string, 0, len(h.backlog)-i-1)
		for _, rest := range h.backlog[i+1:] {
			replay = append(replay, rest.payload)
		}
		return ch, replay
	}
	return ch, nil
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; !ok {
		return
	}
	delete(h.subs, ch)
	close(ch)
}

// Publish never blocks. A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(evt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	if h.keep > 0 {
		h.backlog = append(h.backlog, record{id: idOf(evt), payload: evt})
		if over := len(h.backlog) - h.keep; over > 0 {
			h.backlog = append(h.backlog[:0], h.backlog[over:]...)
		}
	}

	for ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.dropped++
		}
	}
}

// Close disconnects every subscriber. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = map[chan string]struct{}{}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
