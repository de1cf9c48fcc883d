package sync

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"crmsync/internal/sink"
)

// Sender is where flushed batches go.
type Sender interface {
	Send(ctx context.Context, events []sink.Event) error
}

// EventQueue buffers outbound events and releases them in bounded batches.
// A single worker goroutine owns the staging buffer; when it grows past the
// threshold, exactly threshold-many events are handed off and the remainder
// stays staged. A separate flusher delivers batches to the sink in order.
// Flushes are fire-and-forget: errors are logged, never retried.
type EventQueue struct {
	sink      Sender
	threshold int
	logger    *zap.Logger

	events  chan sink.Event
	drain   chan chan struct{}
	flushCh chan []sink.Event
	stop    chan struct{}
	wg      sync.WaitGroup // batches handed off but not yet sent

	length  atomic.Int64
	flushes atomic.Uint64
	flushed atomic.Uint64
}

func NewEventQueue(s Sender, threshold int, logger *zap.Logger) *EventQueue {
	if threshold <= 0 {
		threshold = 2000
	}
	q := &EventQueue{
		sink:      s,
		threshold: threshold,
		logger:    logger,
		events:    make(chan sink.Event, 256),
		drain:     make(chan chan struct{}),
		flushCh:   make(chan []sink.Event, 16),
		stop:      make(chan struct{}),
	}
	go q.run()
	go q.flushLoop()
	return q
}

// Push enqueues one event. It never fails; the only cost is memory.
func (q *EventQueue) Push(ev sink.Event) {
	q.length.Add(1)
	q.events <- ev
}

// Len reports events accepted but not yet delivered to the sink.
func (q *EventQueue) Len() int {
	return int(q.length.Load())
}

// Drain waits until every pending push is staged, flushes whatever remains
// below the threshold, and waits for handed-off batches to be sent. Safe to
// call once per account; repeated calls just flush nothing.
func (q *EventQueue) Drain(ctx context.Context) bool {
	done := make(chan struct{})
	select {
	case q.drain <- done:
	case <-ctx.Done():
		return false
	}
	select {
	case <-done:
	case <-ctx.Done():
		return false
	}
	q.wg.Wait()
	return true
}

// Close stops both goroutines. Staged events are dropped, so Drain first.
func (q *EventQueue) Close() {
	close(q.stop)
}

// Stats reports flush counters for end-of-drain logging.
func (q *EventQueue) Stats() (flushes, events uint64) {
	return q.flushes.Load(), q.flushed.Load()
}

func (q *EventQueue) run() {
	var staging []sink.Event
	for {
		select {
		case ev := <-q.events:
			staging = q.stage(staging, ev)
		case done := <-q.drain:
			staging = q.drainNow(staging)
			close(done)
		case <-q.stop:
			return
		}
	}
}

func (q *EventQueue) stage(staging []sink.Event, ev sink.Event) []sink.Event {
	staging = append(staging, ev)
	if len(staging) <= q.threshold {
		return staging
	}
	batch := staging[:q.threshold]
	rest := make([]sink.Event, len(staging)-q.threshold)
	copy(rest, staging[q.threshold:])
	q.handOff(batch)
	return rest
}

func (q *EventQueue) drainNow(staging []sink.Event) []sink.Event {
	for {
		select {
		case ev := <-q.events:
			staging = q.stage(staging, ev)
		default:
			if len(staging) > 0 {
				q.handOff(staging)
			}
			return nil
		}
	}
}

func (q *EventQueue) handOff(batch []sink.Event) {
	q.wg.Add(1)
	select {
	case q.flushCh <- batch:
	case <-q.stop:
		q.wg.Done()
	}
}

func (q *EventQueue) flushLoop() {
	for {
		select {
		case batch := <-q.flushCh:
			if err := q.sink.Send(context.Background(), batch); err != nil && q.logger != nil {
				q.logger.Warn("event flush failed", zap.Int("events", len(batch)), zap.Error(err))
			}
			q.length.Add(int64(-len(batch)))
			q.flushes.Add(1)
			q.flushed.Add(uint64(len(batch)))
			q.wg.Done()
		case <-q.stop:
			return
		}
	}
}
