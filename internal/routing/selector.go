package routing

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// LeadContext is the slice of lead/property data a candidate filter may
// consult when deciding eligibility.
type LeadContext struct {
	LeadID        uuid.UUID
	PropertyState string
	PropertyCity  string
}

// CandidateFilter reports whether an agent may receive the lead. Filters
// run after the static checks (active, correct tier, not excluded).
type CandidateFilter func(agent models.Agent, lead LeadContext) bool

// ServiceAreaFilter keeps agents whose service area matches the property
// location. On-call agents are the safety net and cover every region.
func ServiceAreaFilter(agent models.Agent, lead LeadContext) bool {
	if agent.Tier == enums.AgentTierOnCall {
		return true
	}
	if lead.PropertyState == "" && lead.PropertyCity == "" {
		return true
	}
	return strings.EqualFold(agent.ServiceState, lead.PropertyState) &&
		strings.EqualFold(agent.ServiceCity, lead.PropertyCity)
}

// Selector picks the next agent from a tier pool. Fairness is
// least-recently-assigned first; never-assigned agents sort before
// everyone else, and exact ties break on agent id so concurrent pods
// reach the same answer.
type Selector struct {
	filter CandidateFilter
}

// NewSelector builds a selector. A nil filter falls back to
// ServiceAreaFilter.
func NewSelector(filter CandidateFilter) *Selector {
	if filter == nil {
		filter = ServiceAreaFilter
	}
	return &Selector{filter: filter}
}

// Pick returns the chosen agent, or false when no candidate survives the
// exclusion set and filter.
func (s *Selector) Pick(pool []models.Agent, excluded map[uuid.UUID]struct{}, lead LeadContext) (*models.Agent, bool) {
	candidates := make([]models.Agent, 0, len(pool))
	for _, agent := range pool {
		if !agent.Active {
			continue
		}
		if _, skip := excluded[agent.ID]; skip {
			continue
		}
		if !s.filter(agent, lead) {
			continue
		}
		candidates = append(candidates, agent)
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		switch {
		case a.LastAssignedAt == nil && b.LastAssignedAt != nil:
			return true
		case a.LastAssignedAt != nil && b.LastAssignedAt == nil:
			return false
		case a.LastAssignedAt != nil && b.LastAssignedAt != nil &&
			!a.LastAssignedAt.Equal(*b.LastAssignedAt):
			return a.LastAssignedAt.Before(*b.LastAssignedAt)
		default:
			return a.ID.String() < b.ID.String()
		}
	})
	chosen := candidates[0]
	return &chosen, true
}
