package services

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const defaultSubscriberBuffer = 16

// Broadcaster fans job views out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan JobView]struct{}
	buffer int
	closed bool
	log    *zap.Logger

	dropped atomic.Int64
}

func NewBroadcaster(buffer int, log *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		subs:   make(map[chan JobView]struct{}),
		buffer: buffer,
		log:    log.Named("events"),
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan JobView, func()) {
	ch := make(chan JobView, b.buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
		})
	}
}

func (b *Broadcaster) Publish(v JobView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- v:
		default:
			n := b.dropped.Add(1)
			b.log.Warn("subscriber too slow, event dropped",
				zap.String("job_id", v.JobID),
				zap.Int64("dropped_total", n),
			)
		}
	}
}

// Close closes every subscriber channel. Later subscribers get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		close(ch)
	}
	b.subs = map[chan JobView]struct{}{}
}

func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
