// Package notifier fans scan events out to live listeners.
package notifier

import "sync"

// Event announces that a document was scanned and stored.
type Event struct {
	DocumentID string
	Source     string
}

// Notifier broadcasts events to all subscribed listeners. Each listener
// buffers one event; a slow listener misses intermediate events and
// should re-read the store when it wakes.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to all listeners without blocking.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
