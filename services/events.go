package services

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"autovalor/metrics"
	"autovalor/models"
	"autovalor/utils"
)

// EventKind classifies a partial failure seen during a run.
type EventKind string

const (
	EventSourceUnavailable EventKind = "source_unavailable"
	EventItemFailed        EventKind = "item_failed"
	EventFieldDefaulted    EventKind = "field_defaulted"
	EventRateUnavailable   EventKind = "rate_unavailable"
)

// Event is one observability record. Item is -1 when it does not refer to
// a single item.
type Event struct {
	Kind   EventKind
	Source models.Source
	Item   int
	Err    error
}

// Observer receives partial failures. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Observe(Event) {}

// LogObserver forwards events to a logger from a background goroutine.
// Events that do not fit in the buffer are dropped and counted.
type LogObserver struct {
	logger  *utils.Logger
	events  chan Event
	done    chan struct{}
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewLogObserver starts the forwarding goroutine. Call Close to drain it.
func NewLogObserver(logger *utils.Logger, buffer int) *LogObserver {
	if buffer < 1 {
		buffer = 256
	}
	o := &LogObserver{
		logger: logger,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

func (o *LogObserver) Observe(e Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.drop()
		return
	}

	select {
	case o.events <- e:
	default:
		o.drop()
	}
}

// Dropped reports how many events were discarded.
func (o *LogObserver) Dropped() int64 { return o.dropped.Load() }

// Close stops accepting events and waits until the buffered ones are logged.
func (o *LogObserver) Close() {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.events)
	}
	o.mu.Unlock()
	<-o.done
}

func (o *LogObserver) drop() {
	o.dropped.Add(1)
	metrics.EventsDroppedTotal.Inc()
}

func (o *LogObserver) run() {
	defer close(o.done)
	for e := range o.events {
		level := zerolog.WarnLevel
		if e.Kind == EventFieldDefaulted {
			level = zerolog.DebugLevel
		}

		fields := []any{"kind", string(e.Kind)}
		if e.Source != "" {
			fields = append(fields, "source", string(e.Source))
		}
		if e.Item >= 0 {
			fields = append(fields, "item", e.Item)
		}
		if e.Err != nil {
			fields = append(fields, "error", e.Err)
		}
		o.logger.Event(level, "[engine] partial failure", fields...)
	}
}
