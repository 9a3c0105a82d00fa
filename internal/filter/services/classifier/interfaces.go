package classifier

import (
	"context"
	"time"

	"github.com/haukened/s1-filter/internal/filter/domain"
)

// RuleSource is the external feed the engine reads its two rule lists from.
// Implementations may be files, snapshots or fixed in-memory feeds.
type RuleSource interface {
	Load(ctx context.Context) (domain.RuleFeed, error)
}

// DecisionCache caches decisions by normalized-text key with basic metrics.
type DecisionCache interface {
	Get(key string) (domain.Decision, bool)
	Put(key string, d domain.Decision)
	Len() int
	Purge()
	Stats() (hits, misses, evictions uint64)
}

// Doorkeeper gates cache admission. Admit records a sighting of key and
// reports whether the key had (probably) been seen before.
type Doorkeeper interface {
	Admit(key string) bool
	Reset()
}

// Metrics receives classification and rule-loading observations.
type Metrics interface {
	ObserveDecision(d domain.Decision, elapsed time.Duration)
	ObserveCacheLookup(hit bool)
	SetActiveRules(list domain.List, n int)
	AddRuleLoadFailures(list domain.List, n int)
}
