package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Operation names a workflow action that moves an application between
// statuses.
type Operation string

const (
	OpSubmit          Operation = "submit"
	OpBeginReview     Operation = "begin_review"
	OpReturn          Operation = "return"
	OpValidate        Operation = "validate"
	OpSendToPresident Operation = "send_to_president"
	OpPresidentDecide Operation = "president_decide"
	OpDeliberate      Operation = "deliberate"
)

// Rule describes one permitted transition: the operation, the statuses
// it may start from, and where it lands.
type Rule struct {
	Op              Operation
	From            []ApplicationStatus
	To              ApplicationStatus
	RequiresComment bool
}

// The transition table is the single source of truth for the lifecycle.
// President and deliberation forks are resolved by the service before
// the rule lookup.
var rules = []Rule{
	{Op: OpSubmit, From: []ApplicationStatus{StatusDraft, StatusReturned}, To: StatusSubmitted},
	{Op: OpBeginReview, From: []ApplicationStatus{StatusSubmitted}, To: StatusInReview},
	{Op: OpReturn, From: []ApplicationStatus{StatusInReview, StatusTechValidated}, To: StatusReturned, RequiresComment: true},
	{Op: OpValidate, From: []ApplicationStatus{StatusInReview, StatusReturned}, To: StatusTechValidated},
	{Op: OpSendToPresident, From: []ApplicationStatus{StatusTechValidated}, To: StatusReadyForPresident},
}

// RuleFor returns the transition rule for op, or false when the
// operation is not table-driven.
func RuleFor(op Operation) (Rule, bool) {
	for _, rule := range rules {
		if rule.Op == op {
			return rule, true
		}
	}
	return Rule{}, false
}

// Allowed reports whether the rule permits starting from the status.
func (r Rule) Allowed(from ApplicationStatus) bool {
	for _, status := range r.From {
		if status == from {
			return true
		}
	}
	return false
}

// SubmitWindow lists statuses from which an entity may submit.
func SubmitWindow() []ApplicationStatus {
	return []ApplicationStatus{StatusDraft, StatusReturned}
}

// Editable reports whether the entity may still change the application
// or its documents.
func Editable(status ApplicationStatus) bool {
	switch status {
	case StatusDraft, StatusSubmitted, StatusInReview, StatusReturned:
		return true
	default:
		return false
	}
}

// Returnable reports whether a document rejection may force the
// application back to the entity.
func Returnable(status ApplicationStatus) bool {
	switch status {
	case StatusReturned, StatusAwaitingExpense, StatusClosed:
		return false
	default:
		return true
	}
}

var ErrInvalidState = errors.New("invalid_state")

// InvalidStateError carries the status the caller found and the
// statuses the operation needs.
type InvalidStateError struct {
	Op       Operation
	Current  ApplicationStatus
	Required []ApplicationStatus
}

func (e *InvalidStateError) Error() string {
	required := make([]string, 0, len(e.Required))
	for _, status := range e.Required {
		required = append(required, string(status))
	}
	return fmt.Sprintf("operation %s not allowed from %s (requires %s)",
		e.Op, e.Current, strings.Join(required, ", "))
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// NewInvalidState builds the error for an operation attempted outside
// its window.
func NewInvalidState(op Operation, current ApplicationStatus, required ...ApplicationStatus) error {
	return &InvalidStateError{Op: op, Current: current, Required: required}
}

// ValidStatus reports whether the value is a known lifecycle status.
func ValidStatus(value ApplicationStatus) bool {
	switch value {
	case StatusDraft, StatusSubmitted, StatusInReview, StatusReturned,
		StatusTechValidated, StatusReadyForPresident, StatusSentToMeeting,
		StatusDeliberated, StatusAwaitingExpense, StatusClosed:
		return true
	default:
		return false
	}
}
