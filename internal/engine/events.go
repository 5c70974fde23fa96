package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event kinds.
const (
	KindWelcome        = "welcome"
	KindBuild          = "build"
	KindBuildFailed    = "build_failed"
	KindResearch       = "research"
	KindResearchFailed = "research_failed"
	KindPhase          = "phase"
	KindUpgrade        = "upgrade"
	KindUpgradeFailed  = "upgrade_failed"
	KindReposition     = "reposition"
	KindResources      = "resources"
)

// Event is a notable occurrence in the game. Message is the status line
// shown to the player.
type Event struct {
	Tick    uint64         `json:"tick"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
	Time    time.Time      `json:"time"`
}

// Failed reports whether the event records a rejected action.
func (e Event) Failed() bool {
	switch e.Kind {
	case KindBuildFailed, KindResearchFailed, KindUpgradeFailed:
		return true
	}
	return false
}

// Hub fans events out to subscribers and keeps a ring of recent events.
// Sends never block: a subscriber whose buffer is full misses the event.
type Hub struct {
	mu        sync.Mutex
	subs      map[chan Event]struct{}
	observers []func(Event)
	recent    []Event
	limit     int
	dropped   atomic.Uint64
}

// NewHub creates a hub remembering the last limit events.
func NewHub(limit int) *Hub {
	if limit <= 0 {
		limit = 200
	}
	return &Hub{
		subs:  make(map[chan Event]struct{}),
		limit: limit,
	}
}

// Subscribe returns a channel receiving every future event and a function
// that unsubscribes and closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Observe registers a function called synchronously for every event.
// Observers must be fast and must not publish.
func (h *Hub) Observe(fn func(Event)) {
	h.mu.Lock()
	h.observers = append(h.observers, fn)
	h.mu.Unlock()
}

// Publish records an event and delivers it to every subscriber.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	if e.Kind != KindResources {
		h.recent = append(h.recent, e)
		if len(h.recent) > h.limit {
			h.recent = h.recent[len(h.recent)-h.limit:]
		}
	}
	for ch := range h.subs {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
	observers := h.observers
	h.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}
}

// Recent returns up to n of the latest events, oldest first.
// Periodic resource samples are not kept.
func (h *Hub) Recent(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.recent) {
		n = len(h.recent)
	}
	return append([]Event(nil), h.recent[len(h.recent)-n:]...)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
