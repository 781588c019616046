package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
)

type fakeRepo struct {
	leads       map[uuid.UUID]*models.Lead
	properties  map[uuid.UUID]*models.Property
	agents      map[uuid.UUID]*models.Agent
	assignments []models.Assignment
	touched     map[uuid.UUID]time.Time
	createErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:      map[uuid.UUID]*models.Lead{},
		properties: map[uuid.UUID]*models.Property{},
		agents:     map[uuid.UUID]*models.Agent{},
		touched:    map[uuid.UUID]time.Time{},
	}
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepo) FindLead(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return lead, nil
}

func (f *fakeRepo) FindProperty(_ context.Context, id uuid.UUID) (*models.Property, error) {
	property, ok := f.properties[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return property, nil
}

func (f *fakeRepo) FindAgent(_ context.Context, id uuid.UUID) (*models.Agent, error) {
	agent, ok := f.agents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return agent, nil
}

func (f *fakeRepo) FindActiveAgentsByTier(_ context.Context, tier enums.AgentTier) ([]models.Agent, error) {
	var pool []models.Agent
	for _, agent := range f.agents {
		if agent.Tier == tier && agent.Active {
			pool = append(pool, *agent)
		}
	}
	return pool, nil
}

func (f *fakeRepo) FindAssignment(_ context.Context, id uuid.UUID) (*models.Assignment, error) {
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			return &f.assignments[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindAssignmentHistory(_ context.Context, leadID uuid.UUID) ([]models.Assignment, error) {
	var history []models.Assignment
	for _, assignment := range f.assignments {
		if assignment.LeadID == leadID {
			history = append(history, assignment)
		}
	}
	return history, nil
}

func (f *fakeRepo) CreateAssignment(_ context.Context, assignment *models.Assignment) error {
	if f.createErr != nil {
		return f.createErr
	}
	if assignment.ID == uuid.Nil {
		assignment.ID = uuid.New()
	}
	f.assignments = append(f.assignments, *assignment)
	return nil
}

func (f *fakeRepo) TouchAgentLastAssigned(_ context.Context, agentID uuid.UUID, at time.Time) error {
	f.touched[agentID] = at
	if agent, ok := f.agents[agentID]; ok {
		agent.LastAssignedAt = &at
	}
	return nil
}

func (f *fakeRepo) ClaimExpiredAssignments(_ context.Context, cutoff time.Time, limit int) ([]models.Assignment, error) {
	var claimed []models.Assignment
	for _, assignment := range f.assignments {
		if assignment.Status == enums.AssignmentStatusAssigned && assignment.ExpiresAt.Before(cutoff) {
			claimed = append(claimed, assignment)
			if len(claimed) == limit {
				break
			}
		}
	}
	return claimed, nil
}

func (f *fakeRepo) MarkAssignmentExpired(_ context.Context, assignment *models.Assignment, expiredAt time.Time) (bool, error) {
	for i := range f.assignments {
		if f.assignments[i].ID == assignment.ID && f.assignments[i].Status == enums.AssignmentStatusAssigned {
			f.assignments[i].Status = enums.AssignmentStatusExpired
			outcome := f.assignments[i].Outcome
			if outcome == nil {
				outcome = &models.AssignmentOutcome{}
			}
			outcome.ExpiredAt = &expiredAt
			f.assignments[i].Outcome = outcome
			assignment.Status = enums.AssignmentStatusExpired
			assignment.Outcome = outcome
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) MarkAssignmentAccepted(_ context.Context, id uuid.UUID, acceptedAt time.Time) (bool, error) {
	for i := range f.assignments {
		if f.assignments[i].ID == id &&
			f.assignments[i].Status == enums.AssignmentStatusAssigned &&
			f.assignments[i].ExpiresAt.After(acceptedAt) {
			f.assignments[i].Status = enums.AssignmentStatusAccepted
			f.assignments[i].AcceptedAt = &acceptedAt
			return true, nil
		}
	}
	return false, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type dispatched struct {
	agentID uuid.UUID
	kind    enums.NotificationKind
	payload map[string]any
}

type fakeNotifier struct {
	sent []dispatched
	err  error
}

func (f *fakeNotifier) Dispatch(_ context.Context, agentID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error {
	f.sent = append(f.sent, dispatched{agentID: agentID, kind: kind, payload: payload})
	return f.err
}

func seedLead(repo *fakeRepo) *models.Lead {
	property := &models.Property{ID: uuid.New(), Code: "AP0001", State: "SP", City: "Campinas", Active: true}
	lead := &models.Lead{ID: uuid.New(), BuyerID: uuid.New(), PropertyID: property.ID}
	repo.properties[property.ID] = property
	repo.leads[lead.ID] = lead
	return lead
}

func seedAgent(repo *fakeRepo, tier enums.AgentTier) *models.Agent {
	agent := &models.Agent{
		ID:           uuid.New(),
		Tier:         tier,
		Active:       true,
		ServiceState: "SP",
		ServiceCity:  "Campinas",
	}
	repo.agents[agent.ID] = agent
	return agent
}

func newTestRouter(t *testing.T, repo *fakeRepo, notifier *fakeNotifier) *Router {
	t.Helper()
	router, err := NewRouter(RouterParams{
		Logger:      logger.New(logger.Options{ServiceName: "routing-test"}),
		DB:          fakeTxRunner{},
		Repo:        repo,
		RepoFactory: func(*gorm.DB) Repository { return repo },
		Selector:    NewSelector(nil),
		Notifier:    notifier,
		Policy:      TierPolicy{LimitExternal: 3, LimitInternal: 3, SLA: 5 * time.Minute},
	})
	require.NoError(t, err)
	router.now = func() time.Time {
		return time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	}
	return router
}

func TestRouteAssignsExternalAgentToFreshLead(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	lead := seedLead(repo)
	agent := seedAgent(repo, enums.AgentTierExternal)
	router := newTestRouter(t, repo, notifier)

	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{Reason: "initial_assignment"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Assignment)

	assert.Equal(t, enums.AgentTierExternal, result.Tier)
	assert.Equal(t, agent.ID, result.Assignment.AgentID)
	assert.Equal(t, enums.AssignmentStatusAssigned, result.Assignment.Status)
	assert.Equal(t, result.Assignment.AssignedAt.Add(5*time.Minute), result.Assignment.ExpiresAt)
	assert.Equal(t, 1, result.Assignment.Outcome.Attempt)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, agent.ID, notifier.sent[0].agentID)
	assert.Equal(t, enums.NotificationKindLeadAssigned, notifier.sent[0].kind)

	if _, ok := repo.touched[agent.ID]; !ok {
		t.Fatal("expected agent last_assigned_at to be touched")
	}
}

func TestRouteIsNoOpWhenLeadAlreadyAssigned(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	lead := seedLead(repo)
	agent := seedAgent(repo, enums.AgentTierExternal)
	repo.assignments = append(repo.assignments, models.Assignment{
		ID:      uuid.New(),
		LeadID:  lead.ID,
		AgentID: agent.ID,
		Tier:    enums.AgentTierExternal,
		Status:  enums.AssignmentStatusAssigned,
	})
	router := newTestRouter(t, repo, notifier)

	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, ReasonAlreadyAssigned, result.Reason)
	assert.Len(t, repo.assignments, 1)
	assert.Empty(t, notifier.sent)
}

func TestRouteNeverRepeatsAnAgent(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	lead := seedLead(repo)
	burned := seedAgent(repo, enums.AgentTierExternal)
	fresh := seedAgent(repo, enums.AgentTierExternal)
	repo.assignments = append(repo.assignments, models.Assignment{
		ID:      uuid.New(),
		LeadID:  lead.ID,
		AgentID: burned.ID,
		Tier:    enums.AgentTierExternal,
		Status:  enums.AssignmentStatusExpired,
	})
	router := newTestRouter(t, repo, notifier)

	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, fresh.ID, result.Assignment.AgentID)
	assert.Equal(t, 2, result.Assignment.Outcome.Attempt)
}

func TestRouteFallsThroughEmptyTiers(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	lead := seedLead(repo)
	onCall := seedAgent(repo, enums.AgentTierOnCall)
	router := newTestRouter(t, repo, notifier)

	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, enums.AgentTierOnCall, result.Tier)
	assert.Equal(t, onCall.ID, result.Assignment.AgentID)
}

func TestRouteReportsFailureWhenAllTiersExhausted(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	lead := seedLead(repo)
	inactive := seedAgent(repo, enums.AgentTierOnCall)
	inactive.Active = false
	router := newTestRouter(t, repo, notifier)

	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ReasonNoCandidate, result.Reason)
	assert.Equal(t, enums.AgentTierOnCall, result.Tier)
	assert.Empty(t, repo.assignments)
	assert.Empty(t, notifier.sent)
}

func TestRouteHonorsForcedTier(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	lead := seedLead(repo)
	seedAgent(repo, enums.AgentTierExternal)
	internal := seedAgent(repo, enums.AgentTierInternal)
	router := newTestRouter(t, repo, notifier)

	forced := enums.AgentTierInternal
	previous := uuid.New()
	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{
		ForceTier:       &forced,
		Reason:          "sla_expired_reassignment",
		PreviousAgentID: &previous,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, internal.ID, result.Assignment.AgentID)
	assert.Equal(t, enums.AgentTierInternal.String(), result.Assignment.Outcome.ForcedTier)
	assert.Equal(t, &previous, result.Assignment.Outcome.PreviousAgentID)
}

func TestRouteSurvivesNotifierFailure(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{err: errors.New("pubsub down")}
	lead := seedLead(repo)
	seedAgent(repo, enums.AgentTierExternal)
	router := newTestRouter(t, repo, notifier)

	result, err := router.Route(context.Background(), lead.ID, nil, RouteOptions{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, repo.assignments, 1)
}
