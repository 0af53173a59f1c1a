package orchestrator

import (
	"sync"

	"delivery-orchestrator/internal/domain"
)

type messageKind int

const (
	msgRestaurantResponse messageKind = iota + 1
	msgDeliveryResponse
	msgCancelRequested
)

// message is an observed store change addressed to a running order task.
type message struct {
	kind       messageKind
	restaurant *domain.RestaurantRequest
	delivery   *domain.DeliveryRequest
}

// mailbox is an unbounded queue; push never blocks the router.
type mailbox struct {
	mu     sync.Mutex
	queue  []message
	signal chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{signal: make(chan struct{}, 1)}
}

func (m *mailbox) push(msg message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// pop removes the oldest queued message.
func (m *mailbox) pop() (message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return message{}, false
	}
	msg := m.queue[0]
	m.queue = m.queue[1:]
	return msg, true
}

// take returns every queued message.
func (m *mailbox) take() []message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}

// registry maps order ids to the mailbox of their running task.
type registry struct {
	mu    sync.Mutex
	tasks map[string]*mailbox
}

func newRegistry() *registry {
	return &registry{tasks: make(map[string]*mailbox)}
}

// register returns a new mailbox, or false when a task already runs for the order.
func (r *registry) register(orderID string) (*mailbox, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[orderID]; ok {
		return nil, false
	}
	mb := newMailbox()
	r.tasks[orderID] = mb
	return mb, true
}

// deliver pushes msg to the running task of orderID and reports whether one exists.
func (r *registry) deliver(orderID string, msg message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	mb, ok := r.tasks[orderID]
	if ok {
		mb.push(msg)
	}
	return ok
}

// unregister removes the task and returns the messages it did not consume.
func (r *registry) unregister(orderID string) []message {
	r.mu.Lock()
	defer r.mu.Unlock()
	mb, ok := r.tasks[orderID]
	if !ok {
		return nil
	}
	delete(r.tasks, orderID)
	return mb.take()
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
