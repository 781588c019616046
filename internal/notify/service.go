package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/db/models"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/enums"
	pkgerrors "github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/errors"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/logger"
	"github.com/alexandreseverogh/NetImobiliaria-sub010/pkg/pagination"
)

const publishTimeout = 15 * time.Second

// Dispatcher delivers a notification to an agent. Implementations are
// best effort; callers must not roll back domain writes on dispatch
// failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, agentID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error
}

// Service persists an in-app notification row and fans the event out to
// Pub/Sub, where the email/SMS bridge consumes it.
type Service interface {
	Dispatcher
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, agentID, notificationID uuid.UUID) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type gcpPublisher struct {
	inner *gcppubsub.Publisher
}

func (g *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.inner.Publish(ctx, msg)
}

// NewGCPPublisher adapts a Pub/Sub publisher handle to the internal
// publisher interface. A nil handle yields a nil publisher, which the
// service treats as publish-disabled.
func NewGCPPublisher(p *gcppubsub.Publisher) Publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{inner: p}
}

// Publisher is the exported alias main packages use when wiring.
type Publisher = publisher

// ServiceParams configure the notification service.
type ServiceParams struct {
	Logger    *logger.Logger
	Repo      Repository
	Publisher Publisher
}

type service struct {
	logg      *logger.Logger
	repo      Repository
	publisher publisher
	now       func() time.Time
}

// NewService wires notification dependencies. Publisher may be nil when
// the deployment has no Pub/Sub topic; rows are still written.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification repository required")
	}
	return &service{
		logg:      params.Logger,
		repo:      params.Repo,
		publisher: params.Publisher,
		now:       time.Now,
	}, nil
}

// eventEnvelope is the wire shape consumed by the outbound bridge.
type eventEnvelope struct {
	NotificationID string         `json:"notificationId"`
	AgentID        string         `json:"agentId"`
	Kind           string         `json:"kind"`
	Payload        map[string]any `json:"payload"`
	OccurredAt     time.Time      `json:"occurredAt"`
}

func (s *service) Dispatch(ctx context.Context, agentID uuid.UUID, kind enums.NotificationKind, payload map[string]any) error {
	if agentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	if !kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification kind")
	}

	notification := &models.AgentNotification{
		ID:      uuid.New(),
		AgentID: agentID,
		Kind:    kind,
		Payload: payload,
	}
	var errs []error
	if err := s.repo.Create(ctx, notification); err != nil {
		errs = append(errs, fmt.Errorf("persist notification: %w", err))
	}
	if err := s.publish(ctx, notification); err != nil {
		errs = append(errs, fmt.Errorf("publish notification: %w", err))
	}
	return multierr.Combine(errs...)
}

func (s *service) publish(ctx context.Context, notification *models.AgentNotification) error {
	if s.publisher == nil {
		return nil
	}
	envelope := eventEnvelope{
		NotificationID: notification.ID.String(),
		AgentID:        notification.AgentID.String(),
		Kind:           notification.Kind.String(),
		Payload:        notification.Payload,
		OccurredAt:     s.now().UTC(),
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"kind":     notification.Kind.String(),
			"agent_id": notification.AgentID.String(),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := s.publisher.Publish(publishCtx, msg)
	if result == nil {
		return fmt.Errorf("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return err
	}
	return nil
}

// ListParams configures pagination for an agent's notifications.
type ListParams struct {
	AgentID    uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.AgentNotification `json:"items"`
	Cursor string                     `json:"cursor"`
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.AgentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent id required")
	}
	query := ListQuery{
		AgentID:    params.AgentID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	items, next, err := s.repo.ListByAgent(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	result := &ListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, agentID, notificationID uuid.UUID) error {
	if agentID == uuid.Nil || notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "agent id and notification id required")
	}
	updated, err := s.repo.MarkRead(ctx, agentID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}
