package observers

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Change is a committed state change delivered to subscribers
type Change[S, E comparable] struct {
	Event    E
	From     S
	To       S
	UserInfo any
}

// Publisher pushes committed state changes to subscribers over channels.
//
// Delivery never blocks the machine: when a subscriber's buffer is full the
// change is dropped for that subscriber and counted.
type Publisher[S, E comparable] struct {
	buffer      int
	mutex       sync.RWMutex
	subscribers map[string]chan Change[S, E]
	dropped     atomic.Int64
	closed      bool
}

// NewPublisher creates a publisher whose subscriptions hold up to buffer pending changes
func NewPublisher[S, E comparable](buffer int) *Publisher[S, E] {
	if buffer < 0 {
		buffer = 0
	}
	return &Publisher[S, E]{
		buffer:      buffer,
		subscribers: make(map[string]chan Change[S, E]),
	}
}

// Subscribe registers a new subscriber. The returned cancel func closes the channel.
func (p *Publisher[S, E]) Subscribe() (<-chan Change[S, E], func()) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	ch := make(chan Change[S, E], p.buffer)
	if p.closed {
		close(ch)
		return ch, func() {}
	}

	id := uuid.NewString()
	p.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() { p.unsubscribe(id) })
	}
	return ch, cancel
}

func (p *Publisher[S, E]) unsubscribe(id string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if ch, exists := p.subscribers[id]; exists {
		delete(p.subscribers, id)
		close(ch)
	}
}

// OnTransition publishes a committed change to every subscriber
func (p *Publisher[S, E]) OnTransition(from, to S, event E, userInfo any) {
	change := Change[S, E]{Event: event, From: from, To: to, UserInfo: userInfo}

	p.mutex.RLock()
	defer p.mutex.RUnlock()

	for _, ch := range p.subscribers {
		select {
		case ch <- change:
		default:
			p.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of active subscriptions
func (p *Publisher[S, E]) Subscribers() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return len(p.subscribers)
}

// Dropped returns how many deliveries were dropped because a subscriber was full
func (p *Publisher[S, E]) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes every subscription. Later subscriptions receive a closed channel.
func (p *Publisher[S, E]) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subscribers {
		delete(p.subscribers, id)
		close(ch)
	}
}
