package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grafana/regexp"
)

// List identifies which of the two rule lists a rule belongs to.
type List uint8

const (
	// ListWhitelist rules force ALLOW when they match.
	ListWhitelist List = iota
	// ListBlacklist rules force BLOCK or ESCALATE depending on their action.
	ListBlacklist
)

// String returns a stable string representation of the list.
func (l List) String() string {
	switch l {
	case ListWhitelist:
		return "whitelist"
	case ListBlacklist:
		return "blacklist"
	default:
		return fmt.Sprintf("List(%d)", l)
	}
}

// ParseList converts "whitelist" or "blacklist" (case-insensitive) into a List.
func ParseList(s string) (List, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "whitelist":
		return ListWhitelist, nil
	case "blacklist":
		return ListBlacklist, nil
	default:
		return 0, fmt.Errorf("unsupported List: %q", s)
	}
}

// Defaults applied to rule records that omit a field.
const (
	DefaultWhitelistMessage = "Whitelist matched"
	DefaultBlacklistMessage = "No message"
	DefaultAction           = "escalate"
)

// ErrMissingPattern is returned when a rule record carries no pattern.
var ErrMissingPattern = errors.New("rule pattern must not be empty")

// RuleSpec is one rule record exactly as a rule source delivered it.
// Empty fields mean "absent" and take the documented defaults at compile time.
type RuleSpec struct {
	ID      string `json:"id,omitempty"`
	Pattern string `json:"pattern"`
	Message string `json:"message,omitempty"`
	Action  string `json:"action,omitempty"` // blacklist only
}

// RuleFeed is the raw content of a rule source: two ordered lists of records.
type RuleFeed struct {
	Whitelist []RuleSpec `json:"whitelist"`
	Blacklist []RuleSpec `json:"blacklist"`
}

// Len returns the total number of records in the feed.
func (f RuleFeed) Len() int { return len(f.Whitelist) + len(f.Blacklist) }

// Rule is a compiled matching directive.
//
// Notes:
// - Pattern keeps the source text; the compiled form is private and immutable.
// - Action is only meaningful for blacklist rules.
// - A Rule is safe for concurrent use.
type Rule struct {
	ID      string
	Pattern string
	Message string
	Action  Action
	List    List

	re *regexp.Regexp
}

// CompileRule applies defaults to spec and compiles its pattern for list.
func CompileRule(list List, spec RuleSpec) (Rule, error) {
	if list != ListWhitelist && list != ListBlacklist {
		return Rule{}, fmt.Errorf("unsupported List: %d", list)
	}
	if spec.Pattern == "" {
		return Rule{}, ErrMissingPattern
	}
	re, err := regexp.Compile(spec.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("compile pattern %q: %w", spec.Pattern, err)
	}

	r := Rule{
		ID:      spec.ID,
		Pattern: spec.Pattern,
		Message: spec.Message,
		List:    list,
		re:      re,
	}
	if r.ID == "" {
		r.ID = RuleIDNone
	}
	if r.Message == "" {
		if list == ListWhitelist {
			r.Message = DefaultWhitelistMessage
		} else {
			r.Message = DefaultBlacklistMessage
		}
	}
	if list == ListBlacklist {
		action := spec.Action
		if action == "" {
			action = DefaultAction
		}
		r.Action = ParseAction(action)
	}
	return r, nil
}

// Matches reports whether the pattern occurs anywhere in text.
// A Rule that was not built by CompileRule never matches.
func (r Rule) Matches(text string) bool {
	return r.re != nil && r.re.MatchString(text)
}

// Outcome returns the decision outcome this rule produces on a match.
func (r Rule) Outcome() Outcome {
	if r.List == ListWhitelist {
		return OutcomeAllow
	}
	return r.Action.Outcome()
}

// Decision materializes the decision for a match on this rule.
func (r Rule) Decision() Decision {
	return Decision{Outcome: r.Outcome(), RuleID: r.ID, Message: r.Message}
}
