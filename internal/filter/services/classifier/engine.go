// Package classifier holds the first-stage rule engine and the service that
// fronts it with caching, metrics and rule reloads.
package classifier

import (
	"context"
	"fmt"

	"github.com/haukened/s1-filter/internal/filter/common/log"
	"github.com/haukened/s1-filter/internal/filter/common/textnorm"
	"github.com/haukened/s1-filter/internal/filter/domain"
)

// Engine evaluates text against an immutable RuleSet:
// empty check → whitelist scan → blacklist scan → zero-trust default.
// An Engine is safe for concurrent use without locking.
type Engine struct {
	rules domain.RuleSet
}

// Build reads both rule lists from src and compiles them. It never fails: an
// unreachable source or a bad pattern only shrinks the active rule set, and
// every such condition is logged and returned in the BuildReport.
func Build(ctx context.Context, src RuleSource, logger log.Logger) (*Engine, BuildReport) {
	if logger == nil {
		logger = log.GetLogger()
	}
	var (
		feed   domain.RuleFeed
		srcErr error
	)
	if src == nil {
		srcErr = fmt.Errorf("no rule source configured")
	} else {
		feed, srcErr = src.Load(ctx)
	}
	if srcErr != nil {
		logger.Warn(map[string]any{"error": srcErr.Error()}, "Rule source unavailable, continuing with partial rule set")
	}

	e, report := New(feed, logger)
	report.SourceErr = srcErr
	return e, report
}

// New compiles feed into an Engine, keeping source order within each list and
// dropping records whose pattern is missing or does not compile.
func New(feed domain.RuleFeed, logger log.Logger) (*Engine, BuildReport) {
	if logger == nil {
		logger = log.GetLogger()
	}
	var report BuildReport

	whitelist := compileList(domain.ListWhitelist, feed.Whitelist, logger, &report)
	blacklist := compileList(domain.ListBlacklist, feed.Blacklist, logger, &report)

	report.Whitelist = len(whitelist)
	report.Blacklist = len(blacklist)

	logger.Info(map[string]any{
		"whitelist": report.Whitelist,
		"blacklist": report.Blacklist,
		"dropped":   len(report.Dropped),
	}, "Rule engine built")

	return &Engine{rules: domain.NewRuleSet(whitelist, blacklist)}, report
}

func compileList(list domain.List, specs []domain.RuleSpec, logger log.Logger, report *BuildReport) []domain.Rule {
	out := make([]domain.Rule, 0, len(specs))
	for i, spec := range specs {
		rule, err := domain.CompileRule(list, spec)
		if err != nil {
			d := domain.Diagnostic{List: list, Index: i, RuleID: spec.ID, Pattern: spec.Pattern, Err: err}
			report.Dropped = append(report.Dropped, d)
			logger.Warn(map[string]any{
				"list":    list.String(),
				"index":   i,
				"rule_id": d.RuleID,
				"pattern": spec.Pattern,
				"error":   err.Error(),
			}, "Failed to compile rule, skipping")
			continue
		}
		out = append(out, rule)
	}
	return out
}

// Classify returns the first-stage decision for text. It never fails.
func (e *Engine) Classify(text string) domain.Decision {
	if text == "" {
		return domain.EmptyInputDecision()
	}
	return e.Evaluate(textnorm.Normalize(text))
}

// Evaluate runs the rule scans against text that is already normalized.
// It skips the empty-input check; callers that start from raw input use Classify.
func (e *Engine) Evaluate(normalized string) domain.Decision {
	if r, ok := e.rules.FirstWhitelistMatch(normalized); ok {
		return r.Decision()
	}
	if r, ok := e.rules.FirstBlacklistMatch(normalized); ok {
		return r.Decision()
	}
	return domain.DefaultDecision()
}

// Rules returns the engine's active rule set.
func (e *Engine) Rules() domain.RuleSet { return e.rules }
