package syncmgr

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultTombstoneCapacity is the number of deleted ids remembered per manager.
const DefaultTombstoneCapacity = 1024

// tombstones помнит версию удаленных записей, чтобы запоздавшие
// обновления не воскрешали их. При переполнении вытесняются самые старые.
type tombstones struct {
	cache *lru.Cache[string, int64] // map[id]version at delete
	mu    sync.Mutex                // mu делает record атомарным чтением-записью
}

func newTombstones(capacity int) *tombstones {
	if capacity <= 0 {
		capacity = DefaultTombstoneCapacity
	}
	// lru.New возвращает ошибку только для capacity <= 0
	cache, _ := lru.New[string, int64](capacity)
	return &tombstones{cache: cache}
}

// record stores the version at delete, keeping the highest one seen.
func (t *tombstones) record(id string, version int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.cache.Peek(id); ok {
		version = max(prev, version)
	}
	t.cache.Add(id, version)
}

func (t *tombstones) get(id string) (int64, bool) {
	return t.cache.Peek(id)
}

func (t *tombstones) clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Remove(id)
}

func (t *tombstones) len() int {
	return t.cache.Len()
}
