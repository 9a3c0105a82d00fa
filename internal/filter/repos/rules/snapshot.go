package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haukened/s1-filter/internal/filter/common/clock"
	"github.com/haukened/s1-filter/internal/filter/common/log"
	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

// SnapshotSource wraps a primary source with a last-known-good store.
// A successful primary read is persisted; a failed one is answered from the
// stored snapshot while still reporting the primary error.
type SnapshotSource struct {
	primary classifier.RuleSource
	store   SnapshotStore
	clock   clock.Clock
	logger  log.Logger
}

// NewSnapshotSource wraps primary with store.
func NewSnapshotSource(primary classifier.RuleSource, store SnapshotStore, clk clock.Clock, logger log.Logger) *SnapshotSource {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &SnapshotSource{primary: primary, store: store, clock: clk, logger: logger}
}

// Load reads the primary source, falling back to the snapshot on failure.
// When the fallback is used the returned feed is the snapshot and the error
// is the primary failure, annotated with the snapshot version.
func (s *SnapshotSource) Load(ctx context.Context) (domain.RuleFeed, error) {
	feed, err := s.primary.Load(ctx)
	if err == nil {
		if saveErr := s.store.Save(feed, s.clock.Now()); saveErr != nil {
			s.logger.Warn(map[string]any{"error": saveErr.Error()}, "Failed to persist rule snapshot")
		}
		return feed, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.RuleFeed{}, err
	}

	snap, meta, snapErr := s.store.Load()
	if snapErr != nil {
		s.logger.Warn(map[string]any{
			"error":          err.Error(),
			"snapshot_error": snapErr.Error(),
		}, "Rule source failed and no snapshot is available")
		return domain.RuleFeed{}, err
	}

	s.logger.Warn(map[string]any{
		"error":            err.Error(),
		"snapshot_version": meta.Version,
		"snapshot_updated": meta.Updated.Format(time.RFC3339),
		"snapshot_rules":   meta.Rules,
	}, "Rule source failed, serving last-known-good snapshot")
	return snap, fmt.Errorf("%w (serving snapshot v%d)", err, meta.Version)
}

var _ classifier.RuleSource = (*SnapshotSource)(nil)
