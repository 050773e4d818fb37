// Package annotations provides a low-overhead event-tracing system for
// the matcher: term/edge begin-complete events and the reasons a branch
// got pruned.
package annotations

import (
	"sync"
	"time"
)

// Event name constants, slash-hierarchical.
const (
	MatchInvoked   = "match/invoked"
	MatchComplete  = "match/completed"
	TermBegin      = "term/begin"
	TermComplete   = "term/complete"
	EdgeBegin      = "edge/begin"
	EdgeCandidates = "edge/candidates"
	EdgeComplete   = "edge/complete"
	PruneStale     = "prune/stale-entity"
	PruneMissing   = "prune/missing-component"
	PruneMismatch  = "prune/term-mismatch"
	PruneConflict  = "prune/cycle-conflict"
	TupleEmitted   = "match/tuple.emitted"
)

// Event is a single traced occurrence during a matcher Execute call.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]interface{}
}

// Handler processes events as they occur.
type Handler func(event Event)

// Collector accumulates events during one Execute call. Safe for
// concurrent Add; Events returns a snapshot copy.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
	mu      sync.Mutex
}

// NewCollector returns a collector that calls handler for every event, and
// also keeps its own copy for later inspection. With a nil handler the
// collector is disabled and records nothing.
func NewCollector(handler Handler) *Collector {
	return &Collector{enabled: handler != nil, handler: handler, events: make([]Event, 0, 32)}
}

// Add records event and forwards it to the handler outside the lock.
func (c *Collector) Add(event Event) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records a start/end pair as one event.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.enabled {
		return
	}
	end := time.Now()
	c.Add(Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}

// Events returns a copy of every event recorded so far.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
