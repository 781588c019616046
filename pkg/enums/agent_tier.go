package enums

import "fmt"

// AgentTier orders the escalation classes an agent can belong to.
type AgentTier string

const (
	AgentTierExternal AgentTier = "external"
	AgentTierInternal AgentTier = "internal"
	AgentTierOnCall   AgentTier = "on_call"
)

var validAgentTiers = []AgentTier{
	AgentTierExternal,
	AgentTierInternal,
	AgentTierOnCall,
}

// String implements fmt.Stringer.
func (a AgentTier) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AgentTier.
func (a AgentTier) IsValid() bool {
	for _, candidate := range validAgentTiers {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAgentTier converts raw input into an AgentTier.
func ParseAgentTier(value string) (AgentTier, error) {
	for _, candidate := range validAgentTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid agent tier %q", value)
}
