package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/cron"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/routing"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/metrics"
)

const defaultBatchSize = 100

// BatchSummary reports what one escalation cycle did.
type BatchSummary struct {
	Processed      int `json:"processed"`
	Reassigned     int `json:"reassigned"`
	RoutedToOnCall int `json:"routedToOnCall"`
	Unrouted       int `json:"unrouted"`
	Errors         int `json:"errors"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type leadRouter interface {
	Route(ctx context.Context, leadID uuid.UUID, excluded []uuid.UUID, opts routing.RouteOptions) (routing.RouteResult, error)
}

type historyReader interface {
	FindAssignmentHistory(ctx context.Context, leadID uuid.UUID) ([]models.Assignment, error)
}

type claimRepo interface {
	ClaimExpiredAssignments(ctx context.Context, cutoff time.Time, limit int) ([]models.Assignment, error)
	MarkAssignmentExpired(ctx context.Context, assignment *models.Assignment, expiredAt time.Time) (bool, error)
}

type claimRepoFactory func(tx *gorm.DB) claimRepo

func defaultClaimRepo(tx *gorm.DB) claimRepo {
	return routing.NewRepository(tx)
}

type notifyDispatcher interface {
	Dispatch(ctx context.Context, agentID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error
}

type reputationPenalizer interface {
	PenalizeSLA(ctx context.Context, agentID uuid.UUID, leadID uuid.UUID) error
}

// JobParams configure the SLA escalation job.
type JobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Router      leadRouter
	History     historyReader
	RepoFactory claimRepoFactory
	Notifier    notifyDispatcher
	Reputation  reputationPenalizer
	Policy      routing.TierPolicy
	Metrics     *metrics.EscalationMetrics
	BatchSize   int
}

// NewJob builds the job that expires overdue assignments and re-routes
// their leads up the tier ladder.
func NewJob(params JobParams) (cron.Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Router == nil {
		return nil, fmt.Errorf("router required")
	}
	if params.History == nil {
		return nil, fmt.Errorf("history reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Reputation == nil {
		return nil, fmt.Errorf("reputation client required")
	}
	factory := params.RepoFactory
	if factory == nil {
		factory = defaultClaimRepo
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &escalationJob{
		logg:        params.Logger,
		db:          params.DB,
		router:      params.Router,
		history:     params.History,
		repoFactory: factory,
		notifier:    params.Notifier,
		reputation:  params.Reputation,
		policy:      params.Policy,
		metrics:     params.Metrics,
		batchSize:   batchSize,
		now:         time.Now,
	}, nil
}

type escalationJob struct {
	logg        *logger.Logger
	db          txRunner
	router      leadRouter
	history     historyReader
	repoFactory claimRepoFactory
	notifier    notifyDispatcher
	reputation  reputationPenalizer
	policy      routing.TierPolicy
	metrics     *metrics.EscalationMetrics
	batchSize   int
	now         func() time.Time
}

func (j *escalationJob) Name() string { return "lead-escalation" }

// Run claims overdue assignments one at a time and escalates each lead.
// A failure on one item never blocks the rest of the batch; the combined
// error surfaces so the cycle is recorded as failed.
func (j *escalationJob) Run(ctx context.Context) error {
	summary := BatchSummary{}
	var errs []error

	for summary.Processed < j.batchSize {
		expired, claimed, err := j.claimNext(ctx)
		if err != nil {
			summary.Errors++
			errs = append(errs, fmt.Errorf("claim expired assignment: %w", err))
			break
		}
		if !claimed {
			break
		}
		summary.Processed++
		if err := j.escalate(ctx, expired, &summary); err != nil {
			summary.Errors++
			errs = append(errs, fmt.Errorf("escalate lead %s: %w", expired.LeadID, err))
		}
	}

	j.record(summary)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"processed":         summary.Processed,
		"reassigned":        summary.Reassigned,
		"routed_to_on_call": summary.RoutedToOnCall,
		"unrouted":          summary.Unrouted,
		"errors":            summary.Errors,
	})
	j.logg.Info(logCtx, "escalation cycle complete")
	return multierr.Combine(errs...)
}

// claimNext locks and expires a single overdue assignment in its own
// short transaction. Committing before the slower notify/penalty/re-route
// work releases the row lock quickly, and SKIP LOCKED keeps concurrent
// workers off each other's rows.
func (j *escalationJob) claimNext(ctx context.Context) (*models.Assignment, bool, error) {
	var expired *models.Assignment
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		batch, err := repo.ClaimExpiredAssignments(ctx, j.now().UTC(), 1)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		assignment := batch[0]
		won, err := repo.MarkAssignmentExpired(ctx, &assignment, j.now().UTC())
		if err != nil {
			return err
		}
		if won {
			expired = &assignment
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return expired, expired != nil, nil
}

func (j *escalationJob) escalate(ctx context.Context, expired *models.Assignment, summary *BatchSummary) error {
	ctx = j.logg.WithFields(ctx, map[string]any{
		"lead_id":       expired.LeadID.String(),
		"assignment_id": expired.ID.String(),
		"missed_by":     expired.AgentID.String(),
	})

	// The expiry is already committed; everything from here on is about
	// the next assignment, not this one.
	j.notifyMissed(ctx, expired)
	if err := j.reputation.PenalizeSLA(ctx, expired.AgentID, expired.LeadID); err != nil {
		j.logg.Error(ctx, "failed to record reputation penalty", err)
	}

	history, err := j.history.FindAssignmentHistory(ctx, expired.LeadID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	tier := routing.ResolveTier(history, j.policy)

	result, err := j.router.Route(ctx, expired.LeadID, nil, routing.RouteOptions{
		ForceTier:       &tier,
		Reason:          "sla_expired_reassignment",
		PreviousAgentID: &expired.AgentID,
	})
	if err != nil {
		return fmt.Errorf("re-route: %w", err)
	}
	if !result.Success {
		summary.Unrouted++
		j.logg.Warn(j.logg.WithField(ctx, "tier", result.Tier.String()), "lead left unrouted after escalation")
		return nil
	}
	if result.Assignment != nil {
		summary.Reassigned++
		if result.Tier == enums.AgentTierOnCall {
			summary.RoutedToOnCall++
		}
	}
	return nil
}

func (j *escalationJob) notifyMissed(ctx context.Context, expired *models.Assignment) {
	payload := map[string]any{
		"assignmentId": expired.ID.String(),
		"leadId":       expired.LeadID.String(),
		"tier":         expired.Tier.String(),
		"expiredAt":    j.now().UTC().Format(time.RFC3339),
	}
	if expired.Outcome != nil && expired.Outcome.ExpiredAt != nil {
		payload["expiredAt"] = expired.Outcome.ExpiredAt.Format(time.RFC3339)
	}
	if err := j.notifier.Dispatch(ctx, expired.AgentID, enums.NotificationKindLeadSLAMissed, payload); err != nil {
		j.logg.Error(ctx, "failed to notify agent about missed sla", err)
	}
}

func (j *escalationJob) record(summary BatchSummary) {
	if j.metrics == nil {
		return
	}
	j.metrics.AddProcessed(summary.Processed)
	j.metrics.AddReassigned(summary.Reassigned)
	j.metrics.AddRoutedToOnCall(summary.RoutedToOnCall)
	j.metrics.AddErrors(summary.Errors)
}
