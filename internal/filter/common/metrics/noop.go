package metrics

import (
	"time"

	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

var (
	_ classifier.Metrics = (*Recorder)(nil)
	_ classifier.Metrics = Noop{}
)

// Noop discards every observation.
type Noop struct{}

func (Noop) ObserveDecision(domain.Decision, time.Duration) {}
func (Noop) ObserveCacheLookup(bool)                        {}
func (Noop) SetActiveRules(domain.List, int)                {}
func (Noop) AddRuleLoadFailures(domain.List, int)           {}
