package routing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

func agentAt(id string, tier enums.AgentTier, lastAssigned *time.Time) models.Agent {
	return models.Agent{
		ID:             uuid.MustParse(id),
		Tier:           tier,
		Active:         true,
		ServiceState:   "SP",
		ServiceCity:    "Campinas",
		LastAssignedAt: lastAssigned,
	}
}

var leadInCampinas = LeadContext{PropertyState: "SP", PropertyCity: "Campinas"}

func TestSelectorPicksLeastRecentlyAssigned(t *testing.T) {
	older := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	pool := []models.Agent{
		agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, &newer),
		agentAt("6ba7b811-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, &older),
	}

	picked, ok := NewSelector(nil).Pick(pool, nil, leadInCampinas)
	require.True(t, ok)
	assert.Equal(t, pool[1].ID, picked.ID)
}

func TestSelectorPrefersNeverAssigned(t *testing.T) {
	assigned := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pool := []models.Agent{
		agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, &assigned),
		agentAt("6ba7b811-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, nil),
	}

	picked, ok := NewSelector(nil).Pick(pool, nil, leadInCampinas)
	require.True(t, ok)
	assert.Equal(t, pool[1].ID, picked.ID)
}

func TestSelectorTieBreaksOnAgentID(t *testing.T) {
	same := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	pool := []models.Agent{
		agentAt("6ba7b812-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, &same),
		agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, &same),
	}

	picked, ok := NewSelector(nil).Pick(pool, nil, leadInCampinas)
	require.True(t, ok)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", picked.ID.String())
}

func TestSelectorSkipsExcludedAndInactive(t *testing.T) {
	pool := []models.Agent{
		agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, nil),
		agentAt("6ba7b811-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, nil),
	}
	pool[1].Active = false
	excluded := map[uuid.UUID]struct{}{pool[0].ID: {}}

	_, ok := NewSelector(nil).Pick(pool, excluded, leadInCampinas)
	assert.False(t, ok)
}

func TestServiceAreaFilterMatchesCaseInsensitive(t *testing.T) {
	agent := agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, nil)
	agent.ServiceState = "sp"
	agent.ServiceCity = "CAMPINAS"

	assert.True(t, ServiceAreaFilter(agent, leadInCampinas))
	assert.False(t, ServiceAreaFilter(agent, LeadContext{PropertyState: "RJ", PropertyCity: "Niteroi"}))
}

func TestServiceAreaFilterIgnoresGeographyForOnCall(t *testing.T) {
	agent := agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierOnCall, nil)
	agent.ServiceState = "MG"
	agent.ServiceCity = "Uberaba"

	assert.True(t, ServiceAreaFilter(agent, leadInCampinas))
}

func TestSelectorCustomFilter(t *testing.T) {
	pool := []models.Agent{
		agentAt("6ba7b810-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, nil),
		agentAt("6ba7b811-9dad-11d1-80b4-00c04fd430c8", enums.AgentTierExternal, nil),
	}
	onlySecond := func(agent models.Agent, _ LeadContext) bool {
		return agent.ID == pool[1].ID
	}

	picked, ok := NewSelector(onlySecond).Pick(pool, nil, leadInCampinas)
	require.True(t, ok)
	assert.Equal(t, pool[1].ID, picked.ID)
}
