package core

import (
	"context"
	"sync"

	"relpchain/storage/eventlog"
)

const subscriberBuffer = 64

type subscribers struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan eventlog.Record
}

// Subscribe registers for journal records appended after the call. The
// channel is closed when ctx ends, when cancel is called, or when the
// subscriber falls more than a buffer behind; callers resume from the last
// sequence they saw through Events.
func (n *Node) Subscribe(ctx context.Context) (<-chan eventlog.Record, func()) {
	updates := make(chan eventlog.Record, subscriberBuffer)

	n.stream.mu.Lock()
	if n.stream.subs == nil {
		n.stream.subs = make(map[uint64]chan eventlog.Record)
	}
	id := n.stream.nextID
	n.stream.nextID++
	n.stream.subs[id] = updates
	n.stream.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			n.stream.mu.Lock()
			if sub, ok := n.stream.subs[id]; ok {
				delete(n.stream.subs, id)
				close(sub)
			}
			n.stream.mu.Unlock()
		})
	}
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-done:
			}
		}()
	}
	return updates, cancel
}

func (n *Node) publish(records []eventlog.Record) {
	if len(records) == 0 {
		return
	}
	n.stream.mu.Lock()
	defer n.stream.mu.Unlock()
	for id, ch := range n.stream.subs {
		if !deliver(ch, records) {
			delete(n.stream.subs, id)
			close(ch)
		}
	}
}

func deliver(ch chan eventlog.Record, records []eventlog.Record) bool {
	for _, rec := range records {
		select {
		case ch <- rec:
		default:
			return false
		}
	}
	return true
}
