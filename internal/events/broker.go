// Package events fans pipeline progress out to subscribers such as the
// terminal spinner and the web UI's event stream.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is a progress update for one session run.
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	Done    bool      `json:"done,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// Publisher accepts progress events.
type Publisher interface {
	Publish(evt Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

// Publish calls f.
func (f PublisherFunc) Publish(evt Event) { f(evt) }

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})

// subscriberBuffer is how many events a subscriber may fall behind before
// newer events are dropped for it.
const subscriberBuffer = 16

// Broker delivers every published event to each attached channel without
// blocking the publisher.
type Broker struct {
	mu      sync.RWMutex
	subs    map[chan Event]string // channel -> run filter, "" for all runs
	dropped atomic.Uint64
}

// NewBroker returns a broker with no subscribers.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]string)}
}

// Subscribe attaches a channel that sees events from every run.
func (b *Broker) Subscribe() chan Event {
	return b.SubscribeRun("")
}

// SubscribeRun attaches a channel that only sees events for runID. An empty
// runID matches every run.
func (b *Broker) SubscribeRun(runID string) chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = runID
	b.mu.Unlock()
	return ch
}

// Unsubscribe detaches ch and closes it. Repeated calls are no-ops.
func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; !ok {
		return
	}
	delete(b.subs, ch)
	close(ch)
}

// Publish stamps evt with the current time when unset and offers it to
// every matching subscriber. A full subscriber misses the event.
func (b *Broker) Publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, runID := range b.subs {
		if runID != "" && runID != evt.RunID {
			continue
		}
		select {
		case ch <- evt:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribers is the number of attached channels.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped is the number of deliveries skipped because a subscriber was full.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}
