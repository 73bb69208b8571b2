package auth

import (
	"context"
	"sync"
)

// Notifier fan-outs session changes to all active subscribers.
type Notifier struct {
	mu   sync.RWMutex
	subs map[int]chan Change
	next int
}

// NewNotifier initialises an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Change)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// changes. The channel is closed when the provided context ends.
func (n *Notifier) Subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, id)
		close(ch)
		n.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the change to all subscribers.
func (n *Notifier) Publish(chg Change) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- chg:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}
