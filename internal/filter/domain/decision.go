package domain

import (
	"fmt"
	"strings"
)

// Outcome is the tagged result of a first-stage classification.
type Outcome uint8

const (
	// OutcomeEscalate sends the input to the costlier second stage. It is the
	// zero value: an Outcome that was never set is never an allow.
	OutcomeEscalate Outcome = iota
	// OutcomeAllow passes the input through without second-stage review.
	OutcomeAllow
	// OutcomeBlock rejects the input outright.
	OutcomeBlock
)

// String returns the upper-case wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "ALLOW"
	case OutcomeBlock:
		return "BLOCK"
	case OutcomeEscalate:
		return "ESCALATE"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// ParseOutcome converts "allow", "block" or "escalate" (case-insensitive) into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ALLOW":
		return OutcomeAllow, nil
	case "BLOCK":
		return OutcomeBlock, nil
	case "ESCALATE":
		return OutcomeEscalate, nil
	default:
		return 0, fmt.Errorf("unsupported Outcome: %q", s)
	}
}

const (
	// RuleIDNone is reported when no rule was consulted or a rule has no id.
	RuleIDNone = "N/A"
	// RuleIDDefault is reported by the zero-trust fallback.
	RuleIDDefault = "N/A_DEFAULT"

	// MessageEmptyInput accompanies the allow decision for empty input.
	MessageEmptyInput = "Empty input"
	// MessageDefault accompanies the zero-trust fallback.
	MessageDefault = "Default escalate (Zero-Trust)"
)

// Decision is the outcome of classifying one input text, paired with the
// rule that produced it. Pure value type, created fresh per classification.
type Decision struct {
	Outcome Outcome
	RuleID  string
	Message string
}

// IsAllowed is a convenience accessor.
func (d Decision) IsAllowed() bool { return d.Outcome == OutcomeAllow }

// IsBlocked is a convenience accessor.
func (d Decision) IsBlocked() bool { return d.Outcome == OutcomeBlock }

// IsEscalated is a convenience accessor.
func (d Decision) IsEscalated() bool { return d.Outcome == OutcomeEscalate }

// EmptyInputDecision is returned for the empty string before any rule is evaluated.
func EmptyInputDecision() Decision {
	return Decision{Outcome: OutcomeAllow, RuleID: RuleIDNone, Message: MessageEmptyInput}
}

// DefaultDecision is the zero-trust fallback for input that matched no rule.
func DefaultDecision() Decision {
	return Decision{Outcome: OutcomeEscalate, RuleID: RuleIDDefault, Message: MessageDefault}
}
