package routing

import (
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// ResolveTier decides which agent tier should handle the next assignment
// attempt for a lead, given its full assignment history. Attempts are
// counted by the tier recorded on each assignment at creation time, so a
// later change to an agent's tier never rewrites history.
//
// External is only ever used while the lead has no internal attempts; once
// an internal agent has been tried the lead never goes back to external.
// When both escalation budgets are spent the lead lands on the on-call
// tier, which has no budget.
func ResolveTier(history []models.Assignment, policy TierPolicy) enums.AgentTier {
	var external, internal int
	for _, attempt := range history {
		switch attempt.Tier {
		case enums.AgentTierExternal:
			external++
		case enums.AgentTierInternal:
			internal++
		}
	}
	if external < policy.LimitExternal && internal == 0 {
		return enums.AgentTierExternal
	}
	if internal < policy.LimitInternal {
		return enums.AgentTierInternal
	}
	return enums.AgentTierOnCall
}

// NextTier returns the tier the router should fall through to when the
// resolved tier has no eligible candidate. Escalation only moves forward.
func NextTier(tier enums.AgentTier) (enums.AgentTier, bool) {
	switch tier {
	case enums.AgentTierExternal:
		return enums.AgentTierInternal, true
	case enums.AgentTierInternal:
		return enums.AgentTierOnCall, true
	default:
		return tier, false
	}
}
