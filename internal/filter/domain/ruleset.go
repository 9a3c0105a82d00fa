package domain

import "fmt"

// RuleSet holds the two ordered rule lists. Position encodes priority: earlier
// rules are checked first and win. A RuleSet is immutable once built and safe
// for concurrent use.
type RuleSet struct {
	whitelist []Rule
	blacklist []Rule
}

// NewRuleSet builds a RuleSet from compiled rules, preserving order. The
// slices are copied so later changes by the caller are not observed.
func NewRuleSet(whitelist, blacklist []Rule) RuleSet {
	return RuleSet{
		whitelist: append([]Rule(nil), whitelist...),
		blacklist: append([]Rule(nil), blacklist...),
	}
}

// Whitelist returns a copy of the active whitelist rules in priority order.
func (s RuleSet) Whitelist() []Rule { return append([]Rule(nil), s.whitelist...) }

// Blacklist returns a copy of the active blacklist rules in priority order.
func (s RuleSet) Blacklist() []Rule { return append([]Rule(nil), s.blacklist...) }

// Len returns the number of active rules in list.
func (s RuleSet) Len(list List) int {
	switch list {
	case ListWhitelist:
		return len(s.whitelist)
	case ListBlacklist:
		return len(s.blacklist)
	default:
		return 0
	}
}

// IsEmpty reports whether neither list holds an active rule.
func (s RuleSet) IsEmpty() bool { return len(s.whitelist) == 0 && len(s.blacklist) == 0 }

// FirstWhitelistMatch returns the earliest whitelist rule matching text.
func (s RuleSet) FirstWhitelistMatch(text string) (Rule, bool) {
	return firstMatch(s.whitelist, text)
}

// FirstBlacklistMatch returns the earliest blacklist rule matching text.
func (s RuleSet) FirstBlacklistMatch(text string) (Rule, bool) {
	return firstMatch(s.blacklist, text)
}

func firstMatch(rules []Rule, text string) (Rule, bool) {
	for i := range rules {
		if rules[i].Matches(text) {
			return rules[i], true
		}
	}
	return Rule{}, false
}

// Diagnostic describes a rule record that was excluded from the active set.
type Diagnostic struct {
	List    List
	Index   int // position of the record within its list in the source
	RuleID  string
	Pattern string
	Err     error
}

func (d Diagnostic) Error() string {
	id := d.RuleID
	if id == "" {
		id = RuleIDNone
	}
	return fmt.Sprintf("%s rule %s (#%d) dropped: %v", d.List, id, d.Index, d.Err)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (d Diagnostic) Unwrap() error { return d.Err }
