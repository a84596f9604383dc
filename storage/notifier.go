package storage

import "context"

// notifier fans key updates out to in-process observers. It has no lock of
// its own: every method must be called with the owning engine's mutex held,
// which keeps delivery order identical to write order.
type notifier struct {
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	ch chan Update
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[string]map[*subscriber]struct{})}
}

// subscribe registers an observer for key and queues current as its first
// update.
func (n *notifier) subscribe(key string, current Update) *subscriber {
	sub := &subscriber{ch: make(chan Update, 1)}
	sub.ch <- current

	set, ok := n.subs[key]
	if !ok {
		set = make(map[*subscriber]struct{})
		n.subs[key] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (n *notifier) unsubscribe(key string, sub *subscriber) {
	set, ok := n.subs[key]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(n.subs, key)
	}
	close(sub.ch)
}

func (n *notifier) publish(key string, u Update) {
	for sub := range n.subs[key] {
		sub.offer(u)
	}
}

// closeAll terminates every subscription.
func (n *notifier) closeAll() {
	for key, set := range n.subs {
		for sub := range set {
			close(sub.ch)
		}
		delete(n.subs, key)
	}
}

// offer never blocks: a pending update the observer has not consumed yet is
// replaced by the newer one. Each update is a full value so only the latest
// matters.
func (s *subscriber) offer(u Update) {
	select {
	case s.ch <- u:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- u
}

// watch unsubscribes once ctx is done or the engine closes. lock/unlock
// guard the notifier.
func watch(ctx context.Context, done <-chan struct{}, n *notifier, key string, sub *subscriber, lock, unlock func()) {
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		lock()
		n.unsubscribe(key, sub)
		unlock()
	}()
}
