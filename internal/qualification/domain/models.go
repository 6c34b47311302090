package domain

import (
	"context"
	"errors"
	"time"
)

// Decision is the evaluator's verdict for one inbound order event.
type Decision int

const (
	// DecisionIgnore means the event can never affect state (guest order).
	DecisionIgnore Decision = iota
	// DecisionNoAction means the customer's state is already correct.
	DecisionNoAction
	// DecisionRequalify grants VIP membership and stamps today's date.
	DecisionRequalify
	// DecisionDemote removes VIP membership and deletes the date record.
	DecisionDemote
)

func (d Decision) String() string {
	switch d {
	case DecisionIgnore:
		return "ignore"
	case DecisionNoAction:
		return "no_action"
	case DecisionRequalify:
		return "requalify"
	case DecisionDemote:
		return "demote"
	default:
		return "unknown"
	}
}

// Outcome summarizes one event's journey through the pipeline for callers
// and metrics.
type Outcome string

const (
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeNoAction  Outcome = "no_action"
	OutcomeQualified Outcome = "qualified"
	OutcomeDemoted   Outcome = "demoted"
)

// ReconcileResult reports which of the two independent directory writes
// landed. Partial results are expected and repaired by the next sweep.
type ReconcileResult struct {
	DateWritten  bool
	GroupWritten bool
	Verified     bool
}

// PopupStatus is the payload behind the just-qualified storefront check.
type PopupStatus struct {
	JustQualified bool   `json:"justQualified"`
	IsVIP         bool   `json:"isVIP"`
	DaysLeft      int    `json:"daysLeft,omitempty"`
	QualifiedDate string `json:"qualifiedDate,omitempty"`
}

// Service processes inbound order events end to end.
type Service interface {
	ProcessOrderEvent(ctx context.Context, scope string, orderID, createdAt int64) (Outcome, error)
	PopupStatus(ctx context.Context, customerID int64, now time.Time) (PopupStatus, error)
}

var (
	ErrInvalidEvent = errors.New("invalid_event")
)

// DateLayout is the calendar-date format of the qualification attribute.
const DateLayout = "2006-01-02"
