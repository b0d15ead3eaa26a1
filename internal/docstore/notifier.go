package docstore

import "sync"

// subscriber is one registered listener. The once guard makes shutdown safe
// from both the subscriber's cancel func and the store's Close.
type subscriber struct {
	ch   chan Snapshot
	once sync.Once
}

func (s *subscriber) shutdown() {
	s.once.Do(func() { close(s.ch) })
}

// Notifier fans document snapshots out to subscribers. The in-process and
// SQL backends share it because neither has a native change feed.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[int]*subscriber
	next int
}

// NewNotifier returns an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[int]*subscriber)}
}

func subKey(collection, id string) string {
	return collection + "/" + id
}

// Subscribe registers a listener for one document and delivers the initial
// snapshot immediately. The returned cancel func is idempotent.
func (n *Notifier) Subscribe(collection, id string, initial Snapshot) (<-chan Snapshot, func()) {
	sub := &subscriber{ch: make(chan Snapshot, 16)}
	sub.ch <- initial

	n.mu.Lock()
	key := subKey(collection, id)
	if n.subs[key] == nil {
		n.subs[key] = make(map[int]*subscriber)
	}
	token := n.next
	n.next++
	n.subs[key][token] = sub
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if m := n.subs[key]; m != nil {
			delete(m, token)
			if len(m) == 0 {
				delete(n.subs, key)
			}
		}
		sub.shutdown()
		n.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers a snapshot to every subscriber of the document. A slow
// subscriber loses the oldest snapshot, never the newest: the consumer only
// needs the latest server state to reconcile against.
func (n *Notifier) Publish(snap Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs[subKey(snap.Collection, snap.ID)] {
		for {
			select {
			case sub.ch <- snap:
			default:
				select {
				case <-sub.ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// CloseAll drops every subscriber. Called on store close.
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for key, m := range n.subs {
		for token, sub := range m {
			delete(m, token)
			sub.shutdown()
		}
		delete(n.subs, key)
	}
}
