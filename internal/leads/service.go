package leads

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/internal/routing"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	pkgerrors "github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/errors"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/pagination"
)

// Service defines lead intake, acceptance and admin listing operations.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*RegisterResult, error)
	Accept(ctx context.Context, assignmentID, agentID uuid.UUID) (*models.Assignment, error)
	ListUnrouted(ctx context.Context, params ListUnroutedParams) (*ListUnroutedResult, error)
}

// RegisterParams is the validated intake payload.
type RegisterParams struct {
	BuyerID           uuid.UUID
	PropertyID        uuid.UUID
	ContactPreference enums.ContactPreference
	Message           *string
}

// RegisterResult reports whether the interest created a new lead and, if
// so, how routing went. Routing is nil for repeat registrations.
type RegisterResult struct {
	Lead    *models.Lead
	Created bool
	Routing *routing.RouteResult
}

// ListUnroutedParams configures the unrouted leads page.
type ListUnroutedParams struct {
	Limit  int
	Cursor string
}

// ListUnroutedResult wraps unrouted leads and the next-page cursor.
type ListUnroutedResult struct {
	Items  []models.Lead `json:"items"`
	Cursor string        `json:"cursor"`
}

type leadRouter interface {
	Route(ctx context.Context, leadID uuid.UUID, excluded []uuid.UUID, opts routing.RouteOptions) (routing.RouteResult, error)
}

type assignmentStore interface {
	FindAssignment(ctx context.Context, id uuid.UUID) (*models.Assignment, error)
	MarkAssignmentAccepted(ctx context.Context, id uuid.UUID, acceptedAt time.Time) (bool, error)
}

// ServiceParams configure the leads service.
type ServiceParams struct {
	Logger      *logger.Logger
	Repo        Repository
	Assignments assignmentStore
	Router      leadRouter
}

type service struct {
	logg        *logger.Logger
	repo        Repository
	assignments assignmentStore
	router      leadRouter
	now         func() time.Time
}

// NewService wires leads dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "leads repository required")
	}
	if params.Assignments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignment store required")
	}
	if params.Router == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "router required")
	}
	return &service{
		logg:        params.Logger,
		repo:        params.Repo,
		assignments: params.Assignments,
		router:      params.Router,
		now:         time.Now,
	}, nil
}

// Register records a buyer's interest in a property. Intake is
// idempotent on (buyer, property): a repeat registration refreshes the
// message and contact preference in place and never re-routes.
func (s *service) Register(ctx context.Context, params RegisterParams) (*RegisterResult, error) {
	if params.BuyerID == uuid.Nil || params.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and property id required")
	}
	preference := params.ContactPreference
	if preference == "" {
		preference = enums.ContactPreferenceEither
	}
	if !preference.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown contact preference")
	}

	if _, err := s.repo.FindBuyer(ctx, params.BuyerID); err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load buyer")
	}
	property, err := s.repo.FindProperty(ctx, params.PropertyID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load property")
	}
	if !property.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "property is no longer listed")
	}

	existing, err := s.repo.FindByBuyerAndProperty(ctx, params.BuyerID, params.PropertyID)
	if err != nil && !isNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up lead")
	}
	if existing != nil {
		return s.refresh(ctx, existing, preference, params.Message)
	}

	lead := &models.Lead{
		ID:                uuid.New(),
		BuyerID:           params.BuyerID,
		PropertyID:        params.PropertyID,
		ContactPreference: preference,
		Message:           params.Message,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		if db.IsUniqueViolation(err, "idx_leads_buyer_property") {
			// Lost an intake race; fall back to the update path.
			existing, findErr := s.repo.FindByBuyerAndProperty(ctx, params.BuyerID, params.PropertyID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reload raced lead")
			}
			return s.refresh(ctx, existing, preference, params.Message)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create lead")
	}

	ctx = s.logg.WithLeadID(ctx, lead.ID.String())
	s.logg.Info(ctx, "lead registered")

	// Routing failure leaves the lead unrouted for the admin queue; the
	// registration itself has already succeeded.
	result, err := s.router.Route(ctx, lead.ID, nil, routing.RouteOptions{Reason: "initial_assignment"})
	if err != nil {
		s.logg.Error(ctx, "initial routing failed", err)
		return &RegisterResult{Lead: lead, Created: true}, nil
	}
	return &RegisterResult{Lead: lead, Created: true, Routing: &result}, nil
}

func (s *service) refresh(ctx context.Context, lead *models.Lead, preference enums.ContactPreference, message *string) (*RegisterResult, error) {
	updates := map[string]any{
		"contact_preference": preference,
		"updated_at":         s.now().UTC(),
	}
	if message != nil {
		updates["message"] = message
	}
	if err := s.repo.Update(ctx, lead.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update lead")
	}
	lead.ContactPreference = preference
	if message != nil {
		lead.Message = message
	}
	s.logg.Info(s.logg.WithLeadID(ctx, lead.ID.String()), "repeat interest refreshed existing lead")
	return &RegisterResult{Lead: lead, Created: false}, nil
}

// Accept marks an assignment accepted by its agent while the response
// window is still open.
func (s *service) Accept(ctx context.Context, assignmentID, agentID uuid.UUID) (*models.Assignment, error) {
	if assignmentID == uuid.Nil || agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id and agent id required")
	}
	assignment, err := s.assignments.FindAssignment(ctx, assignmentID)
	if err != nil {
		if isNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load assignment")
	}
	if assignment.AgentID != agentID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment belongs to another agent")
	}
	if assignment.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment is no longer open")
	}

	now := s.now().UTC()
	accepted, err := s.assignments.MarkAssignmentAccepted(ctx, assignmentID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "accept assignment")
	}
	if !accepted {
		// The guard lost to the escalation worker or the window elapsed
		// between the read and the update.
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "response window has elapsed")
	}

	assignment.Status = enums.AssignmentStatusAccepted
	assignment.AcceptedAt = &now
	ctx = s.logg.WithAssignmentID(ctx, assignmentID.String())
	s.logg.Info(s.logg.WithAgentID(ctx, agentID.String()), "assignment accepted")
	return assignment, nil
}

func (s *service) ListUnrouted(ctx context.Context, params ListUnroutedParams) (*ListUnroutedResult, error) {
	query := UnroutedQuery{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	items, next, err := s.repo.ListUnrouted(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list unrouted leads")
	}
	result := &ListUnroutedResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func isNotFound(err error) bool {
	return routing.IsNotFound(err)
}
