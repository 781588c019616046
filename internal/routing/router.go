package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	apperrors "github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/errors"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
)

// ReasonNoCandidate is the failure reason when every tier, including
// on-call, came up empty.
const ReasonNoCandidate = "no eligible agent in terminal tier"

// ReasonAlreadyAssigned is the no-op reason when the lead already holds
// an active assignment.
const ReasonAlreadyAssigned = "lead already has an active assignment"

// RouteOptions tune a single routing attempt.
type RouteOptions struct {
	// ForceTier bypasses tier resolution; used by the escalation worker,
	// which resolves the tier itself after expiring an assignment.
	ForceTier *enums.AgentTier
	// Reason is stored on the assignment outcome for auditing.
	Reason string
	// PreviousAgentID links a reassignment back to the agent who missed
	// the SLA.
	PreviousAgentID *uuid.UUID
}

// RouteResult reports what a routing attempt did. Success with a nil
// Assignment means the call was a no-op because an active assignment
// already existed.
type RouteResult struct {
	Success    bool
	Reason     string
	Tier       enums.AgentTier
	Assignment *models.Assignment
	Agent      *models.Agent
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifyDispatcher interface {
	Dispatch(ctx context.Context, agentID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error
}

type repoFactory func(tx *gorm.DB) Repository

// RouterParams configure the router.
type RouterParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repo        Repository
	RepoFactory repoFactory
	Selector    *Selector
	Notifier    notifyDispatcher
	Policy      TierPolicy
}

// Router owns the full assignment decision for a lead: resolve the tier,
// pick a candidate, persist the assignment, notify the winner.
type Router struct {
	logg        *logger.Logger
	db          txRunner
	repo        Repository
	repoFactory repoFactory
	selector    *Selector
	notifier    notifyDispatcher
	policy      TierPolicy
	now         func() time.Time
}

// NewRouter builds a router.
func NewRouter(params RouterParams) (*Router, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	selector := params.Selector
	if selector == nil {
		selector = NewSelector(nil)
	}
	factory := params.RepoFactory
	if factory == nil {
		factory = NewRepository
	}
	return &Router{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repo,
		repoFactory: factory,
		selector:    selector,
		notifier:    params.Notifier,
		policy:      params.Policy,
		now:         time.Now,
	}, nil
}

// Route attempts to assign the lead to an agent. The caller's exclusion
// set is merged with the lead's full assignment history so no agent ever
// receives the same lead twice. When the resolved tier has no eligible
// candidate the router falls through to the next tier; only an empty
// on-call pool is a routing failure, reported in the result rather than
// as an error.
func (r *Router) Route(ctx context.Context, leadID uuid.UUID, excluded []uuid.UUID, opts RouteOptions) (RouteResult, error) {
	ctx = r.logg.WithLeadID(ctx, leadID.String())

	lead, err := r.repo.FindLead(ctx, leadID)
	if err != nil {
		if IsNotFound(err) {
			return RouteResult{}, apperrors.New(apperrors.CodeNotFound, "lead not found")
		}
		return RouteResult{}, fmt.Errorf("load lead: %w", err)
	}
	property, err := r.repo.FindProperty(ctx, lead.PropertyID)
	if err != nil {
		return RouteResult{}, fmt.Errorf("load property: %w", err)
	}

	history, err := r.repo.FindAssignmentHistory(ctx, leadID)
	if err != nil {
		return RouteResult{}, fmt.Errorf("load assignment history: %w", err)
	}
	for i := range history {
		if history[i].Status == enums.AssignmentStatusAssigned {
			r.logg.Info(ctx, "routing skipped, lead already has an active assignment")
			return RouteResult{
				Success:    true,
				Reason:     ReasonAlreadyAssigned,
				Tier:       history[i].Tier,
				Assignment: &history[i],
			}, nil
		}
	}

	exclusions := make(map[uuid.UUID]struct{}, len(excluded)+len(history))
	for _, id := range excluded {
		exclusions[id] = struct{}{}
	}
	for _, attempt := range history {
		exclusions[attempt.AgentID] = struct{}{}
	}

	tier := ResolveTier(history, r.policy)
	if opts.ForceTier != nil {
		tier = *opts.ForceTier
	}

	leadCtx := LeadContext{
		LeadID:        leadID,
		PropertyState: property.State,
		PropertyCity:  property.City,
	}
	agent, tier, err := r.pickAcrossTiers(ctx, tier, exclusions, leadCtx)
	if err != nil {
		return RouteResult{}, err
	}
	if agent == nil {
		r.logg.Warn(r.logg.WithField(ctx, "tier", tier.String()), "no eligible agent for lead")
		return RouteResult{Success: false, Reason: ReasonNoCandidate, Tier: tier}, nil
	}

	now := r.now().UTC()
	assignment := &models.Assignment{
		LeadID:     leadID,
		AgentID:    agent.ID,
		Tier:       tier,
		Status:     enums.AssignmentStatusAssigned,
		AssignedAt: now,
		ExpiresAt:  now.Add(r.policy.SLA),
		Outcome: &models.AssignmentOutcome{
			Reason:          opts.Reason,
			Attempt:         len(history) + 1,
			PreviousAgentID: opts.PreviousAgentID,
		},
	}
	if opts.ForceTier != nil {
		assignment.Outcome.ForcedTier = opts.ForceTier.String()
	}

	err = r.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := r.repoFactory(tx)
		if err := txRepo.CreateAssignment(ctx, assignment); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		return txRepo.TouchAgentLastAssigned(ctx, agent.ID, now)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "uq_assignments_one_active_per_lead") {
			return RouteResult{}, apperrors.Wrap(apperrors.CodeConflict, err, "lead was assigned concurrently")
		}
		if db.IsUniqueViolation(err, "uq_assignments_lead_agent") {
			return RouteResult{}, apperrors.Wrap(apperrors.CodeConflict, err, "agent already appears in lead history")
		}
		return RouteResult{}, err
	}

	ctx = r.logg.WithFields(ctx, map[string]any{
		"agent_id":      agent.ID.String(),
		"assignment_id": assignment.ID.String(),
		"tier":          tier.String(),
	})
	r.logg.Info(ctx, "lead assigned")

	r.notifyAssigned(ctx, agent.ID, assignment, property)

	return RouteResult{Success: true, Tier: tier, Assignment: assignment, Agent: agent}, nil
}

// pickAcrossTiers walks forward from the starting tier until a candidate
// is found or the terminal tier is exhausted.
func (r *Router) pickAcrossTiers(ctx context.Context, tier enums.AgentTier, exclusions map[uuid.UUID]struct{}, leadCtx LeadContext) (*models.Agent, enums.AgentTier, error) {
	for {
		pool, err := r.repo.FindActiveAgentsByTier(ctx, tier)
		if err != nil {
			return nil, tier, fmt.Errorf("load %s agent pool: %w", tier, err)
		}
		if agent, ok := r.selector.Pick(pool, exclusions, leadCtx); ok {
			return agent, tier, nil
		}
		next, ok := NextTier(tier)
		if !ok {
			return nil, tier, nil
		}
		tier = next
	}
}

// Notification delivery is best effort; the assignment is already
// committed and must not be rolled back over a publish failure.
func (r *Router) notifyAssigned(ctx context.Context, agentID uuid.UUID, assignment *models.Assignment, property *models.Property) {
	payload := map[string]any{
		"assignmentId": assignment.ID.String(),
		"leadId":       assignment.LeadID.String(),
		"propertyId":   property.ID.String(),
		"propertyCode": property.Code,
		"tier":         assignment.Tier.String(),
		"expiresAt":    assignment.ExpiresAt.Format(time.RFC3339),
	}
	if err := r.notifier.Dispatch(ctx, agentID, enums.NotificationKindLeadAssigned, payload); err != nil {
		r.logg.Error(ctx, "failed to notify assigned agent", err)
	}
}
