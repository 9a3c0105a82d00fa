// Package bloom provides a Bloom-filter doorkeeper that keeps one-off inputs
// out of the decision cache.
package bloom

import (
	"sync"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

// doorkeeper admits a key into the cache only once the filter has seen it
// before. After capacity distinct insertions the filter is cleared, so the
// false-positive rate stays near the sized target.
type doorkeeper struct {
	mu       sync.Mutex
	bf       *bitsbloom.BloomFilter
	capacity uint64
	added    uint64
}

// New returns a Doorkeeper sized for capacity keys at false-positive rate fpRate.
func New(capacity uint64, fpRate float64) classifier.Doorkeeper {
	if capacity == 0 {
		capacity = 1
	}
	m, k := size(capacity, fpRate)
	return &doorkeeper{bf: bitsbloom.New(uint(m), uint(k)), capacity: capacity}
}

// Admit records key and reports whether it was (probably) already present.
func (d *doorkeeper) Admit(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	seen := d.bf.TestAndAddString(key)
	if seen {
		return true
	}
	d.added++
	if d.added >= d.capacity {
		d.bf.ClearAll()
		d.added = 0
	}
	return false
}

// Reset forgets every key.
func (d *doorkeeper) Reset() {
	d.mu.Lock()
	d.bf.ClearAll()
	d.added = 0
	d.mu.Unlock()
}

var _ classifier.Doorkeeper = (*doorkeeper)(nil)
