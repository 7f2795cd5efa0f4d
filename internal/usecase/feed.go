package usecase

import (
	"context"
	"fmt"
	"math"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/geo"
	"github.com/totegamma/biomap/internal/observability"
)

const (
	MaxPreviewRadiusKm = 1000.0
	MaxPreviewSegments = 360
)

// FeedUsecase serves what anonymous visitors may see: approved pins only.
type FeedUsecase struct {
	repo     PinRepository
	circles  CircleGenerator
	segments int
}

// NewFeedUsecase builds the public map feed. A nil circles falls back to
// PureCircle; segments <= 0 uses geo.DefaultSegmentCount.
func NewFeedUsecase(repo PinRepository, circles CircleGenerator, segments int) *FeedUsecase {
	if circles == nil {
		circles = PureCircle
	}
	if segments <= 0 {
		segments = geo.DefaultSegmentCount
	}
	return &FeedUsecase{
		repo:     repo,
		circles:  circles,
		segments: segments,
	}
}

func (uc *FeedUsecase) ListApproved(ctx context.Context) ([]domain.PinRecord, error) {
	ctx, span := tracer.Start(ctx, "Feed.Usecase.ListApproved")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	pins, err := uc.repo.FindByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	return filterStatus(pins, domain.StatusApproved), nil
}

// MapFeatures pairs every approved pin with its protective area.
func (uc *FeedUsecase) MapFeatures(ctx context.Context) ([]biomap.MapFeature, error) {
	pins, err := uc.ListApproved(ctx)
	if err != nil {
		return nil, err
	}

	features := make([]biomap.MapFeature, 0, len(pins))
	for _, pin := range pins {
		ring, err := uc.circles.Circle(ctx, pin.AreaCenter, pin.AreaRadiusKm, uc.segments)
		if err != nil {
			return nil, err
		}
		features = append(features, biomap.MapFeature{
			Pin:  pin.View(),
			Area: Ring(ring),
		})
	}
	return features, nil
}

// Preview draws an arbitrary circle for the submission form.
func (uc *FeedUsecase) Preview(ctx context.Context, center domain.Point, radiusKm float64, segments int) ([][2]float64, error) {
	if segments == 0 {
		segments = uc.segments
	}

	var fields []domain.FieldError
	if !center.Valid() {
		fields = append(fields, domain.FieldError{Field: "center", Reason: "lat must be in [-90, 90] and long in [-180, 180]"})
	}
	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 || radiusKm > MaxPreviewRadiusKm {
		fields = append(fields, domain.FieldError{Field: "radius", Reason: fmt.Sprintf("must be between 0 and %g km", MaxPreviewRadiusKm)})
	}
	if segments < geo.MinSegmentCount || segments > MaxPreviewSegments {
		fields = append(fields, domain.FieldError{Field: "segments", Reason: fmt.Sprintf("must be between %d and %d", geo.MinSegmentCount, MaxPreviewSegments)})
	}
	if len(fields) > 0 {
		return nil, domain.ValidationError{Fields: fields}
	}

	ring, err := uc.circles.Circle(ctx, center, radiusKm, segments)
	if err != nil {
		return nil, err
	}
	return Ring(ring), nil
}

func Ring(ring []geo.Coordinate) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i, c := range ring {
		out[i] = c
	}
	return out
}
