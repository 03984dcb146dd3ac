package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dd0wney/trellis/pkg/metrics"
)

// ErrBusClosed is returned by Subscribe after Shutdown.
var ErrBusClosed = errors.New("feed: bus closed")

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 100

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full loses the event, so consumers that need
// every event must drain promptly.
type Bus struct {
	subscribers map[*Subscription]bool
	mu          sync.RWMutex
	seq         atomic.Uint64
	buffer      int
	reg         *metrics.Registry

	shutdown   chan struct{}
	shutdownMu sync.Mutex
	isShutdown bool
}

// Subscription is one consumer's view of the bus.
type Subscription struct {
	channel   chan Event
	bus       *Bus
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates a bus. Buffer sizes below one fall back to DefaultBuffer.
// The registry may be nil; metrics are then skipped.
func NewBus(buffer int, reg *metrics.Registry) *Bus {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subscribers: make(map[*Subscription]bool),
		buffer:      buffer,
		reg:         reg,
		shutdown:    make(chan struct{}),
	}
}

// Subscribe registers a consumer. The subscription ends when ctx is
// cancelled, Unsubscribe is called, or the bus shuts down; its channel is
// closed in every case.
func (b *Bus) Subscribe(ctx context.Context) (*Subscription, error) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return nil, ErrBusClosed
	}
	b.shutdownMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		channel: make(chan Event, b.buffer),
		bus:     b,
		cancel:  cancel,
	}

	b.mu.Lock()
	b.subscribers[sub] = true
	count := len(b.subscribers)
	b.mu.Unlock()

	if b.reg != nil {
		b.reg.SetFeedSubscribers(count)
	}

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
			sub.cancel()
		}
	}()

	return sub, nil
}

// Publish assigns the event its sequence number and sends it to every
// subscriber. Sends are non-blocking and hold the read lock; channels are
// closed only under the write lock or after removal from the map, so a
// send never races a close.
func (b *Bus) Publish(ev Event) {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.shutdownMu.Unlock()

	ev.Seq = b.seq.Add(1)
	if b.reg != nil {
		b.reg.RecordFeedEvent(ev.Op)
	}

	b.mu.RLock()
	for sub := range b.subscribers {
		select {
		case sub.channel <- ev:
		default:
			if b.reg != nil {
				b.reg.RecordFeedDrop()
			}
		}
	}
	b.mu.RUnlock()
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Seq returns the sequence number of the most recently published event.
func (b *Bus) Seq() uint64 {
	return b.seq.Load()
}

// Shutdown closes every subscription and rejects further use.
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	b.shutdownMu.Unlock()

	close(b.shutdown)

	b.mu.Lock()
	for sub := range b.subscribers {
		sub.close()
		delete(b.subscribers, sub)
	}
	b.mu.Unlock()

	if b.reg != nil {
		b.reg.SetFeedSubscribers(0)
	}
}

// Events returns the subscription's receive channel. It is closed when the
// subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription and closes its channel.
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	delete(s.bus.subscribers, s)
	count := len(s.bus.subscribers)
	s.bus.mu.Unlock()

	if s.bus.reg != nil {
		s.bus.reg.SetFeedSubscribers(count)
	}

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
