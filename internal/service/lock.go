package service

import (
	"sync"

	"github.com/google/uuid"
)

// storyLocks serializes mutating operations per story within this process.
// Cross-process safety is provided by the repository's optimistic version
// check; the in-process lock keeps local mutations from ever racing to the
// same starting version.
type storyLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newStoryLocks() *storyLocks {
	return &storyLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// lock acquires the mutex for the given story and returns its unlock func.
func (l *storyLocks) lock(storyID uuid.UUID) func() {
	l.mu.Lock()
	m, ok := l.locks[storyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[storyID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
