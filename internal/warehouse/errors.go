package warehouse

import (
	"errors"
	"fmt"
)

// ErrInfeasible is matched by every *InfeasibleError.
var ErrInfeasible = errors.New("infeasible wave")

// Reason classifies why a candidate wave was rejected.
type Reason string

const (
	ReasonEmptySelection Reason = "empty_selection"
	ReasonBounds         Reason = "bounds"
	ReasonUnmetDemand    Reason = "unmet_demand"
	ReasonUnknownID      Reason = "unknown_id"
)

// InfeasibleError describes the first violated wave invariant.
type InfeasibleError struct {
	Reason Reason
	Detail string
}

func (e *InfeasibleError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %s", ErrInfeasible, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", ErrInfeasible, e.Reason, e.Detail)
}

func (e *InfeasibleError) Is(target error) bool {
	return target == ErrInfeasible
}

func infeasible(reason Reason, format string, args ...any) *InfeasibleError {
	return &InfeasibleError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err, or "" when err is not an *InfeasibleError.
func ReasonOf(err error) Reason {
	var ie *InfeasibleError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}
