package saga

import (
	"sync"
	"time"

	"github.com/creatorjobs/creatorjobs-api/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// IdempotencyStore remembers the outcome of a finished transaction per
// idempotency key, so retries of the same submit attempt replay the stored
// outcome instead of publishing twice.
type IdempotencyStore interface {
	Get(key string) (*models.PublishResponse, bool)
	Put(key string, resp *models.PublishResponse)
}

// MemoryIdempotency keeps outcomes in process memory with a TTL. Keys are
// per submit attempt, so a short window covering double-clicks and client
// retries is all that is needed.
type MemoryIdempotency struct {
	cache *gocache.Cache
}

// NewMemoryIdempotency creates a store holding outcomes for ttl.
func NewMemoryIdempotency(ttl time.Duration) *MemoryIdempotency {
	return &MemoryIdempotency{
		cache: gocache.New(ttl, 10*time.Minute),
	}
}

func (s *MemoryIdempotency) Get(key string) (*models.PublishResponse, bool) {
	if v, found := s.cache.Get(key); found {
		return v.(*models.PublishResponse), true
	}
	return nil, false
}

func (s *MemoryIdempotency) Put(key string, resp *models.PublishResponse) {
	s.cache.SetDefault(key, resp)
}

// KeyLocks provides mutual exclusion per idempotency key. Two requests with
// the same key never run the transaction concurrently; the second waits and
// then replays the stored outcome.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLocks creates an empty lock table.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*keyLock)}
}

// Acquire blocks until the key's lock is held and returns the release func.
func (k *KeyLocks) Acquire(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
