package usecase

import (
	"context"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/geo"
)

// PinRepository is the Pin Record Store.
type PinRepository interface {
	Save(ctx context.Context, pin domain.PinRecord) (domain.PinRecord, error)
	FindByID(ctx context.Context, id string) (domain.PinRecord, error)
	FindByStatus(ctx context.Context, status domain.Status) ([]domain.PinRecord, error)
	// UpdateStatus moves id from one status to another in a single write.
	// It fails with domain.ConflictError when the stored status is not from.
	UpdateStatus(ctx context.Context, id string, from, to domain.Status) (domain.PinRecord, error)
}

// CircleGenerator produces the ring drawn around a pin.
type CircleGenerator interface {
	Circle(ctx context.Context, center domain.Point, radiusKm float64, segments int) ([]geo.Coordinate, error)
}

// Authorizer decides whether a requester may perform an action.
// It returns domain.ForbiddenError when the answer is no.
type Authorizer interface {
	Authorize(ctx context.Context, requester domain.Requester, action string) error
}

// EventPublisher fans moderation events out to realtime subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event biomap.Event) error
}

type pureCircle struct{}

func (pureCircle) Circle(_ context.Context, center domain.Point, radiusKm float64, segments int) ([]geo.Coordinate, error) {
	return geo.Circle(center, radiusKm, segments)
}

// PureCircle calls geo.Circle without caching.
var PureCircle CircleGenerator = pureCircle{}
