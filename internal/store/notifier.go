package store

import (
	"context"
	"sync"
)

// Notifier wraps a KV and fans out in-process change notifications after
// successful writes. This mirrors the single-page app's same-tab update
// events: views re-read the blob when told it changed. There is no
// cross-process signal; a second process detects conflicts through the
// revision check instead.
type Notifier struct {
	KV

	mu   sync.Mutex
	next int
	subs map[string]map[int]chan string
}

func NewNotifier(kv KV) *Notifier {
	return &Notifier{KV: kv, subs: map[string]map[int]chan string{}}
}

// Subscribe registers interest in a key. The returned channel receives
// the key after each successful Put; cancel drops the subscription.
// Notifications are best-effort: a subscriber that is not draining its
// channel misses beats rather than blocking writers.
func (n *Notifier) Subscribe(key string) (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan string, 4)
	id := n.next
	n.next++
	if n.subs[key] == nil {
		n.subs[key] = map[int]chan string{}
	}
	n.subs[key][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if subs, ok := n.subs[key]; ok {
			delete(subs, id)
		}
	}
	return ch, cancel
}

func (n *Notifier) Put(ctx context.Context, key string, data []byte, expectRev int64) (int64, error) {
	rev, err := n.KV.Put(ctx, key, data, expectRev)
	if err != nil {
		return rev, err
	}
	n.mu.Lock()
	for _, ch := range n.subs[key] {
		select {
		case ch <- key:
		default:
		}
	}
	n.mu.Unlock()
	return rev, nil
}
