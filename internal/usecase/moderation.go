package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/observability"
)

// ModerationUsecase drives the pending -> approved / rejected state machine.
// Approved and rejected are terminal; a second transition is a conflict.
type ModerationUsecase struct {
	repo      PinRepository
	authz     Authorizer
	publisher EventPublisher
	now       func() time.Time
}

func NewModerationUsecase(repo PinRepository, authz Authorizer, publisher EventPublisher) *ModerationUsecase {
	return &ModerationUsecase{
		repo:      repo,
		authz:     authz,
		publisher: publisher,
		now:       time.Now,
	}
}

func (uc *ModerationUsecase) Approve(ctx context.Context, requester domain.Requester, id string) (domain.PinRecord, error) {
	return uc.transition(ctx, requester, id, domain.ActionApprove, domain.StatusApproved)
}

func (uc *ModerationUsecase) Reject(ctx context.Context, requester domain.Requester, id string) (domain.PinRecord, error) {
	return uc.transition(ctx, requester, id, domain.ActionReject, domain.StatusRejected)
}

func (uc *ModerationUsecase) ListPending(ctx context.Context, requester domain.Requester) ([]domain.PinRecord, error) {
	ctx, span := tracer.Start(ctx, "Moderation.Usecase.ListPending")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = uc.authorize(ctx, requester, domain.ActionListPending); err != nil {
		return nil, err
	}

	pins, err := uc.repo.FindByStatus(ctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	return filterStatus(pins, domain.StatusPending), nil
}

// Get returns a pin in any state. Only moderators may look at pins that are
// not yet public, so the capability check runs before the lookup.
func (uc *ModerationUsecase) Get(ctx context.Context, requester domain.Requester, id string) (domain.PinRecord, error) {
	ctx, span := tracer.Start(ctx, "Moderation.Usecase.Get")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = uc.authorize(ctx, requester, domain.ActionGet); err != nil {
		return domain.PinRecord{}, err
	}
	if !biomap.IsPinID(id) {
		err = domain.NotFoundError{Resource: "pin"}
		return domain.PinRecord{}, err
	}
	pin, err := uc.repo.FindByID(ctx, id)
	return pin, err
}

func (uc *ModerationUsecase) transition(ctx context.Context, requester domain.Requester, id, action string, to domain.Status) (domain.PinRecord, error) {
	ctx, span := tracer.Start(ctx, "Moderation.Usecase.Transition")
	span.SetAttributes(
		attribute.String("pin.id", id),
		attribute.String("pin.status.target", string(to)),
	)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = uc.authorize(ctx, requester, action); err != nil {
		return domain.PinRecord{}, err
	}
	if !biomap.IsPinID(id) {
		err = domain.NotFoundError{Resource: "pin"}
		return domain.PinRecord{}, err
	}

	current, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return domain.PinRecord{}, err
	}

	if !domain.CanTransition(current.Status, to) {
		observability.ModerationConflictsTotal.Inc()
		err = domain.ConflictError{ID: id, Current: current.Status, Target: to}
		return domain.PinRecord{}, err
	}

	updated, err := uc.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			observability.ModerationConflictsTotal.Inc()
		}
		return domain.PinRecord{}, err
	}
	observability.ModerationTransitionsTotal.WithLabelValues(string(to)).Inc()

	slog.InfoContext(
		ctx, "pin moderated",
		slog.String("id", id),
		slog.String("status", string(to)),
		slog.String("moderator", requester.ID),
		slog.String("module", "moderation"),
	)

	event := domain.EventPinApproved
	if to == domain.StatusRejected {
		event = domain.EventPinRejected
	}
	publish(ctx, uc.publisher, event, updated, uc.now().UTC())

	return updated, nil
}

func (uc *ModerationUsecase) authorize(ctx context.Context, requester domain.Requester, action string) error {
	err := uc.authz.Authorize(ctx, requester, action)
	if err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			observability.ForbiddenTotal.WithLabelValues(action).Inc()
			return err
		}
		// An authorizer that cannot decide must not let the request through.
		return domain.ForbiddenError{Action: action}
	}
	return nil
}

func filterStatus(pins []domain.PinRecord, status domain.Status) []domain.PinRecord {
	out := make([]domain.PinRecord, 0, len(pins))
	for _, p := range pins {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}
