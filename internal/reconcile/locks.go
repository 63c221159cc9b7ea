package reconcile

import "sync"

// GroupLocks - не более одной синхронизации на группу. Второй вызов
// не ждет в очереди, а сразу получает отказ.
type GroupLocks struct {
	mu       sync.Mutex
	inflight map[int64]struct{}
}

func NewGroupLocks() *GroupLocks {
	return &GroupLocks{inflight: make(map[int64]struct{})}
}

func (l *GroupLocks) TryAcquire(groupID int64) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.inflight[groupID]; busy {
		return nil, false
	}
	l.inflight[groupID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.inflight, groupID)
			l.mu.Unlock()
		})
	}, true
}

func (l *GroupLocks) InFlight(groupID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.inflight[groupID]
	return busy
}
