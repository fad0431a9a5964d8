package turn

import (
	"context"
	"sync"
)

// lane admits one turn at a time for a thread.
type lane struct {
	sem  chan struct{}
	refs int
}

// lanes hands out per-thread lanes and forgets them once nobody waits.
type lanes struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

func newLanes() *lanes {
	return &lanes{lanes: make(map[string]*lane)}
}

// acquire blocks until the lane for key is free or ctx is done.
func (l *lanes) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ln, ok := l.lanes[key]
	if !ok {
		ln = &lane{sem: make(chan struct{}, 1)}
		l.lanes[key] = ln
	}
	ln.refs++
	l.mu.Unlock()

	select {
	case ln.sem <- struct{}{}:
	case <-ctx.Done():
		l.leave(key, ln)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-ln.sem
			l.leave(key, ln)
		})
	}, nil
}

func (l *lanes) leave(key string, ln *lane) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ln.refs--
	if ln.refs == 0 {
		delete(l.lanes, key)
	}
}

// size reports how many lanes are tracked.
func (l *lanes) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lanes)
}
