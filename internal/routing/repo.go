package routing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
)

// Repository exposes the persistence operations the router and the
// escalation worker need.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindLead(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	FindAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error)
	FindActiveAgentsByTier(ctx context.Context, tier enums.AgentTier) ([]models.Agent, error)
	FindAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	FindAssignmentHistory(ctx context.Context, leadID uuid.UUID) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, assignment *models.Assignment) error
	TouchAgentLastAssigned(ctx context.Context, agentID uuid.UUID, at time.Time) error
	ClaimExpiredAssignments(ctx context.Context, cutoff time.Time, limit int) ([]models.Assignment, error)
	MarkAssignmentExpired(ctx context.Context, assignment *models.Assignment, expiredAt time.Time) (bool, error)
	MarkAssignmentAccepted(ctx context.Context, id uuid.UUID, acceptedAt time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a routing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *repository) FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

func (r *repository) FindAgent(ctx context.Context, id uuid.UUID) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *repository) FindActiveAgentsByTier(ctx context.Context, tier enums.AgentTier) ([]models.Agent, error) {
	var agents []models.Agent
	err := r.db.WithContext(ctx).
		Where("tier = ? AND active = ?", tier, true).
		Find(&agents).Error
	if err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *repository) FindAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindAssignmentHistory returns every assignment ever made for the lead,
// oldest first with id as a stable tie-break.
func (r *repository) FindAssignmentHistory(ctx context.Context, leadID uuid.UUID) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("assigned_at ASC, id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) CreateAssignment(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) TouchAgentLastAssigned(ctx context.Context, agentID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Agent{}).
		Where("id = ?", agentID).
		Update("last_assigned_at", at).Error
}

// ClaimExpiredAssignments locks a batch of overdue assignments for this
// transaction. SKIP LOCKED lets concurrent workers claim disjoint rows
// instead of serializing on the same batch. Callers must run this inside
// a transaction.
func (r *repository) ClaimExpiredAssignments(ctx context.Context, cutoff time.Time, limit int) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("status = ? AND expires_at < ?", enums.AssignmentStatusAssigned, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

// MarkAssignmentExpired flips an assignment to expired and stamps the
// expiry time into its outcome payload. The status guard makes the update
// a no-op when another worker got there first; the bool reports whether
// this call won.
func (r *repository) MarkAssignmentExpired(ctx context.Context, assignment *models.Assignment, expiredAt time.Time) (bool, error) {
	outcome := assignment.Outcome
	if outcome == nil {
		outcome = &models.AssignmentOutcome{}
	}
	outcome.ExpiredAt = &expiredAt
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ?", assignment.ID, enums.AssignmentStatusAssigned).
		Updates(map[string]any{
			"status":  enums.AssignmentStatusExpired,
			"outcome": outcome,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 1 {
		assignment.Status = enums.AssignmentStatusExpired
		assignment.Outcome = outcome
		return true, nil
	}
	return false, nil
}

// MarkAssignmentAccepted flips an assignment to accepted while it is
// still inside its response window.
func (r *repository) MarkAssignmentAccepted(ctx context.Context, id uuid.UUID, acceptedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("id = ? AND status = ? AND expires_at > ?", id, enums.AssignmentStatusAssigned, acceptedAt).
		Updates(map[string]any{
			"status":      enums.AssignmentStatusAccepted,
			"accepted_at": acceptedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// IsNotFound reports whether the error is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
