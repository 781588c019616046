package leads

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/pagination"
)

// Repository exposes lead persistence plus the buyer/property lookups the
// intake path validates against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	FindByBuyerAndProperty(ctx context.Context, buyerID, propertyID uuid.UUID) (*models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, leadID uuid.UUID, updates map[string]any) error
	FindBuyer(ctx context.Context, id uuid.UUID) (*models.Buyer, error)
	FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListUnrouted(ctx context.Context, query UnroutedQuery) ([]models.Lead, *pagination.Cursor, error)
}

// UnroutedQuery configures the unrouted leads listing.
type UnroutedQuery struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a leads repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *repository) FindByBuyerAndProperty(ctx context.Context, buyerID, propertyID uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND property_id = ?", buyerID, propertyID).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *repository) Create(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *repository) Update(ctx context.Context, leadID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("id = ?", leadID).
		Updates(updates).Error
}

func (r *repository) FindBuyer(ctx context.Context, id uuid.UUID) (*models.Buyer, error) {
	var buyer models.Buyer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&buyer).Error; err != nil {
		return nil, err
	}
	return &buyer, nil
}

func (r *repository) FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&property).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// ListUnrouted returns leads with no live assignment: every attempt has
// expired, or routing never found a candidate in the first place.
func (r *repository) ListUnrouted(ctx context.Context, query UnroutedQuery) ([]models.Lead, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(query.Limit)
	normalized := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("NOT EXISTS (SELECT 1 FROM assignments WHERE assignments.lead_id = leads.id AND assignments.status IN ?)",
			[]enums.AssignmentStatus{enums.AssignmentStatusAssigned, enums.AssignmentStatusAccepted})
	if query.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var leads []models.Lead
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&leads).Error; err != nil {
		return nil, nil, err
	}

	if len(leads) > normalized {
		next := leads[normalized]
		leads = leads[:normalized]
		return leads, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return leads, nil, nil
}
