package enums

import "fmt"

// NotificationKind selects the message template dispatched to an agent.
type NotificationKind string

const (
	NotificationKindLeadAssigned  NotificationKind = "lead_assigned"
	NotificationKindLeadSLAMissed NotificationKind = "lead_sla_missed"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindLeadAssigned,
	NotificationKindLeadSLAMissed,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
