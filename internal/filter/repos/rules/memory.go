package rules

import (
	"context"

	"github.com/haukened/s1-filter/internal/filter/domain"
	"github.com/haukened/s1-filter/internal/filter/services/classifier"
)

// MemorySource serves a fixed feed. Useful for tests and embedding.
type MemorySource struct {
	feed domain.RuleFeed
}

// NewMemorySource returns a MemorySource holding a copy of feed.
func NewMemorySource(feed domain.RuleFeed) *MemorySource {
	return &MemorySource{feed: copyFeed(feed)}
}

// Load returns a copy of the stored feed.
func (s *MemorySource) Load(ctx context.Context) (domain.RuleFeed, error) {
	if err := ctx.Err(); err != nil {
		return domain.RuleFeed{}, err
	}
	return copyFeed(s.feed), nil
}

func copyFeed(f domain.RuleFeed) domain.RuleFeed {
	return domain.RuleFeed{
		Whitelist: append([]domain.RuleSpec(nil), f.Whitelist...),
		Blacklist: append([]domain.RuleSpec(nil), f.Blacklist...),
	}
}

var _ classifier.RuleSource = (*MemorySource)(nil)
