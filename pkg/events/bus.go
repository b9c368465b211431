package events

import (
	"sync"

	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/metrics"
)

// Bus delivers events to subscribed channels without blocking the emitter.
type Bus struct {
	subscribers   []chan<- Event
	subscribersMu sync.RWMutex
	logger        *logging.Logger
}

// Ensure Bus implements Sink.
var _ Sink = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	return &Bus{
		subscribers: make([]chan<- Event, 0),
		logger:      logger,
	}
}

// Subscribe adds a subscriber channel.
func (b *Bus) Subscribe(ch chan<- Event) {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()
	b.subscribers = append(b.subscribers, ch)
}

// Unsubscribe removes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan<- Event) {
	b.subscribersMu.Lock()
	defer b.subscribersMu.Unlock()

	for i, subscriber := range b.subscribers {
		if subscriber == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			break
		}
	}
}

// Emit sends e to every subscriber whose channel has room.
func (b *Bus) Emit(e Event) {
	metrics.RecordEvent(string(e.Kind))

	b.subscribersMu.RLock()
	defer b.subscribersMu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.logger.Warn("Subscriber channel full, dropping event", "kind", e.Kind)
		}
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Last returns the most recent event.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// LogSink writes every event to a logger.
type LogSink struct {
	Logger *logging.Logger
}

// Emit logs e at info level.
func (s LogSink) Emit(e Event) {
	s.Logger.Info("Event emitted",
		"kind", e.Kind,
		"symbol_a", e.SymbolA,
		"symbol_b", e.SymbolB,
		"aggregator", e.Aggregator,
		"factory", e.Factory,
		"oracle", e.Oracle)
}
