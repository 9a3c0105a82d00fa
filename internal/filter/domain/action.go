package domain

import (
	"fmt"
	"strings"
)

// Action is what a matching blacklist rule does with the input.
//
// block    - reject outright
// escalate - forward to the second-stage evaluator (also covers "review")
type Action uint8

const (
	// ActionEscalate forwards the input to the second stage. It is the zero value
	// so that a rule without an explicit action escalates.
	ActionEscalate Action = iota
	// ActionBlock rejects the input without further evaluation.
	ActionBlock
)

// String returns a stable string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionEscalate:
		return "escalate"
	case ActionBlock:
		return "block"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// ParseAction converts a configured action string into an Action.
// Only "block" (case-insensitive) blocks; every other value, including
// "escalate", "review" and the empty string, escalates.
func ParseAction(s string) Action {
	if strings.EqualFold(s, "block") {
		return ActionBlock
	}
	return ActionEscalate
}

// Outcome returns the decision outcome produced when a rule with this action matches.
func (a Action) Outcome() Outcome {
	if a == ActionBlock {
		return OutcomeBlock
	}
	return OutcomeEscalate
}
