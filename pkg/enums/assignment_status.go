package enums

import "fmt"

// AssignmentStatus tracks the lifecycle of a lead assignment. Accepted and
// expired are terminal for the assignment; only one assigned row may exist
// per lead at a time.
type AssignmentStatus string

const (
	AssignmentStatusAssigned AssignmentStatus = "assigned"
	AssignmentStatusAccepted AssignmentStatus = "accepted"
	AssignmentStatusExpired  AssignmentStatus = "expired"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusAssigned,
	AssignmentStatusAccepted,
	AssignmentStatusExpired,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsTerminal reports whether the status ends the assignment's lifecycle.
func (a AssignmentStatus) IsTerminal() bool {
	return a == AssignmentStatusAccepted || a == AssignmentStatusExpired
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
