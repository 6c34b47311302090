package qualification

import (
	"strings"
	"time"

	"github.com/smallbiznis/loyara/internal/config"
	"github.com/smallbiznis/loyara/internal/qualification/domain"
)

// EvaluateInput is the full state the evaluator needs: the order under
// consideration and the customer's current directory state.
type EvaluateInput struct {
	CustomerID    int64
	TotalQuantity int
	IsVIP         bool
	QualifiedDate string // ISO date, empty when no record exists
	Now           time.Time
	Policy        config.Policy
}

// Evaluate is the qualification state machine. Pure: no I/O, no clock reads.
//
// Guest orders are inert. A VIP customer is demoted once the discount window
// lapses (a missing or unparseable date counts as already expired), or
// immediately after any order under the single-use policy. A non-VIP
// customer qualifies when the order's total quantity meets the threshold,
// inclusive.
func Evaluate(in EvaluateInput) domain.Decision {
	if in.CustomerID == 0 {
		return domain.DecisionIgnore
	}

	if in.IsVIP {
		days, ok := daysSince(in.Now, in.QualifiedDate)
		if !ok || days > in.Policy.DiscountDays {
			return domain.DecisionDemote
		}
		if in.Policy.SingleUse {
			return domain.DecisionDemote
		}
		return domain.DecisionNoAction
	}

	if in.TotalQuantity >= in.Policy.MinQuantity {
		return domain.DecisionRequalify
	}
	return domain.DecisionNoAction
}

// daysSince returns whole days elapsed since the recorded calendar date.
// ok is false when no usable date exists, which callers treat as expired.
func daysSince(now time.Time, date string) (int, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false
	}
	qualified, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return 0, false
	}
	return int(now.Sub(qualified).Hours() / 24), true
}

// DaysLeft reports the remaining days in the discount window, floored at zero.
func DaysLeft(now time.Time, date string, policy config.Policy) int {
	days, ok := daysSince(now, date)
	if !ok {
		return 0
	}
	left := policy.DiscountDays - days
	if left < 0 {
		return 0
	}
	return left
}
