package utils

import (
	"sync"
)

// WorkerPool runs jobs on a bounded number of goroutines and collects
// their errors.
type WorkerPool struct {
	semaphore chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	errs      []error
}

// NewWorkerPool creates a WorkerPool running at most maxWorkers jobs at once.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{semaphore: make(chan struct{}, maxWorkers)}
}

// Submit enqueues a job for execution in the pool. It blocks while the pool
// is full.
func (wp *WorkerPool) Submit(job func() error) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := job(); err != nil {
			wp.mu.Lock()
			wp.errs = append(wp.errs, err)
			wp.mu.Unlock()
		}
	}()
}

// Wait blocks until all submitted jobs have completed and returns the errors
// they reported, in completion order.
func (wp *WorkerPool) Wait() []error {
	wp.wg.Wait()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	errs := wp.errs
	wp.errs = nil
	return errs
}

// KeySet is a thread-safe set of string keys (listing ids, review ids).
type KeySet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	return &KeySet{seen: make(map[string]struct{})}
}

// Add returns true if the key was newly added, false if already present.
func (s *KeySet) Add(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Size returns the number of unique keys tracked.
func (s *KeySet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
