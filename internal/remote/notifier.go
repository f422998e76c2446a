package remote

import "sync"

// authNotifier is the subscriber registry behind OnAuthStateChange, shared
// by the HTTP client and the in-memory mock.
type authNotifier struct {
	subs   map[int64]func(AuthEvent, *User)
	mu     sync.Mutex
	nextID int64
}

func (n *authNotifier) subscribe(fn func(AuthEvent, *User)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int64]func(AuthEvent, *User))
	}
	n.nextID++
	id := n.nextID
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *authNotifier) emit(event AuthEvent, user *User) {
	n.mu.Lock()
	fns := make([]func(AuthEvent, *User), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(event, user)
	}
}
