package classifier

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haukened/s1-filter/internal/filter/common/clock"
	"github.com/haukened/s1-filter/internal/filter/common/log"
	"github.com/haukened/s1-filter/internal/filter/common/textnorm"
	"github.com/haukened/s1-filter/internal/filter/domain"
)

// Service fronts the current Engine with a decision cache, cache admission,
// metrics and rule reloads. Its decisions are always identical to calling
// Classify on the engine that is current at the time of the call.
type Service struct {
	source     RuleSource
	cache      DecisionCache
	doorkeeper Doorkeeper
	metrics    Metrics
	logger     log.Logger
	clock      clock.Clock

	current    atomic.Pointer[generation]
	reloadMu   sync.Mutex
	lastReload atomic.Int64 // unix nanos
}

// generation pairs an engine with the counter that namespaces its cache keys,
// so decisions computed by a replaced engine are never served again.
type generation struct {
	engine *Engine
	id     uint64
}

// ServiceOptions wires a Service. Source is required; every other field is
// optional and disabled when nil (Clock and Logger fall back to defaults).
type ServiceOptions struct {
	Source     RuleSource
	Cache      DecisionCache
	Doorkeeper Doorkeeper
	Metrics    Metrics
	Logger     log.Logger
	Clock      clock.Clock
}

// ServiceStats is a point-in-time view of the service.
type ServiceStats struct {
	Whitelist   int
	Blacklist   int
	Generation  uint64
	CacheLen    int
	CacheHits   uint64
	CacheMisses uint64
	Evictions   uint64
	LastReload  time.Time
}

// NewService builds the initial engine from opts.Source and returns the
// service with that build's report. Like Build, it never fails.
func NewService(ctx context.Context, opts ServiceOptions) (*Service, BuildReport) {
	s := &Service{
		source:     opts.Source,
		cache:      opts.Cache,
		doorkeeper: opts.Doorkeeper,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		clock:      opts.Clock,
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	report := s.Reload(ctx)
	return s, report
}

// Classify returns the first-stage decision for text.
func (s *Service) Classify(text string) domain.Decision {
	start := s.clock.Now()
	if text == "" {
		d := domain.EmptyInputDecision()
		s.observe(d, start)
		return d
	}

	gen := s.current.Load()
	normalized := textnorm.Normalize(text)
	key := cacheKey(gen.id, normalized)

	if s.cache != nil {
		if d, ok := s.cache.Get(key); ok {
			s.observeCache(true)
			s.observe(d, start)
			return d
		}
		s.observeCache(false)
	}

	d := gen.engine.Evaluate(normalized)

	if s.cache != nil && s.admit(key) {
		s.cache.Put(key, d)
	}
	s.observe(d, start)
	return d
}

// Reload rebuilds the engine from the source and swaps it in atomically. The
// previous engine is left untouched; in-flight calls finish against it.
// Reloads are serialized.
func (s *Service) Reload(ctx context.Context) BuildReport {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	engine, report := Build(ctx, s.source, s.logger)

	var next uint64
	if prev := s.current.Load(); prev != nil {
		next = prev.id + 1
	}
	s.current.Store(&generation{engine: engine, id: next})

	if s.cache != nil {
		s.cache.Purge()
	}
	if s.doorkeeper != nil {
		s.doorkeeper.Reset()
	}
	if s.metrics != nil {
		s.metrics.SetActiveRules(domain.ListWhitelist, report.Whitelist)
		s.metrics.SetActiveRules(domain.ListBlacklist, report.Blacklist)
		s.metrics.AddRuleLoadFailures(domain.ListWhitelist, report.DroppedIn(domain.ListWhitelist))
		s.metrics.AddRuleLoadFailures(domain.ListBlacklist, report.DroppedIn(domain.ListBlacklist))
	}
	s.lastReload.Store(s.clock.Now().UnixNano())

	s.logger.Info(map[string]any{
		"generation": next,
		"whitelist":  report.Whitelist,
		"blacklist":  report.Blacklist,
		"degraded":   report.Degraded(),
	}, "Rule set loaded")
	return report
}

// Engine returns the engine currently serving classifications.
func (s *Service) Engine() *Engine {
	return s.current.Load().engine
}

// Stats returns a snapshot of rule counts and cache counters.
func (s *Service) Stats() ServiceStats {
	gen := s.current.Load()
	st := ServiceStats{
		Whitelist:  gen.engine.rules.Len(domain.ListWhitelist),
		Blacklist:  gen.engine.rules.Len(domain.ListBlacklist),
		Generation: gen.id,
		LastReload: time.Unix(0, s.lastReload.Load()),
	}
	if s.cache != nil {
		st.CacheLen = s.cache.Len()
		st.CacheHits, st.CacheMisses, st.Evictions = s.cache.Stats()
	}
	return st
}

func (s *Service) admit(key string) bool {
	if s.doorkeeper == nil {
		return true
	}
	return s.doorkeeper.Admit(key)
}

func (s *Service) observe(d domain.Decision, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDecision(d, s.clock.Now().Sub(start))
}

func (s *Service) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCacheLookup(hit)
	}
}

func cacheKey(gen uint64, normalized string) string {
	return strconv.FormatUint(gen, 36) + "\x00" + normalized
}
