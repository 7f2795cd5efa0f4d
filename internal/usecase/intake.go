package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/observability"
)

var tracer = otel.Tracer("usecase")

type PinUsecase struct {
	repo          PinRepository
	publisher     EventPublisher
	defaultRadius float64
	now           func() time.Time
	newID         func() (string, error)
}

// NewPinUsecase builds the submission intake. publisher may be nil.
func NewPinUsecase(repo PinRepository, publisher EventPublisher, defaultRadiusKm float64) *PinUsecase {
	if defaultRadiusKm == 0 {
		defaultRadiusKm = domain.DefaultAreaRadiusKm
	}
	return &PinUsecase{
		repo:          repo,
		publisher:     publisher,
		defaultRadius: defaultRadiusKm,
		now:           time.Now,
		newID:         biomap.NewPinID,
	}
}

// Submit validates draft and stores it as a new pending pin. Identical drafts
// produce distinct pins.
func (uc *PinUsecase) Submit(ctx context.Context, draft domain.PinDraft) (domain.PinRecord, error) {
	ctx, span := tracer.Start(ctx, "Pin.Usecase.Submit")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	now := uc.now().UTC()
	pin, err := Validate(draft, uc.defaultRadius, now)
	if err != nil {
		return domain.PinRecord{}, err
	}

	pin.ID, err = uc.newID()
	if err != nil {
		return domain.PinRecord{}, fmt.Errorf("failed to allocate pin id: %w", err)
	}
	pin.Status = domain.StatusPending
	pin.CreatedAt = now
	pin.UpdatedAt = now

	saved, err := uc.repo.Save(ctx, pin)
	if err != nil {
		return domain.PinRecord{}, err
	}
	span.SetAttributes(attribute.String("pin.id", saved.ID))
	observability.PinsSubmittedTotal.Inc()

	slog.InfoContext(
		ctx, "pin submitted",
		slog.String("id", saved.ID),
		slog.String("submitter", saved.SubmitterID),
		slog.String("module", "intake"),
	)

	publish(ctx, uc.publisher, domain.EventPinSubmitted, saved, now)
	return saved, nil
}

// Validate checks every field of draft and returns the record it describes.
// All violations are reported together in a domain.ValidationError.
func Validate(draft domain.PinDraft, defaultRadiusKm float64, now time.Time) (domain.PinRecord, error) {
	var fields []domain.FieldError
	fail := func(field, reason string) {
		fields = append(fields, domain.FieldError{Field: field, Reason: reason})
		observability.ValidationFailuresTotal.WithLabelValues(field).Inc()
	}

	pin := domain.PinRecord{
		SubmitterID:           strings.TrimSpace(draft.SubmitterID),
		SpeciesCommonName:     strings.TrimSpace(draft.SpeciesCommonName),
		SpeciesScientificName: strings.TrimSpace(draft.SpeciesScientificName),
		Kingdom:               domain.Kingdom(strings.TrimSpace(draft.Kingdom)),
		ConservationStatus:    domain.ConservationStatus(strings.TrimSpace(draft.ConservationStatus)),
		Continent:             domain.Continent(strings.TrimSpace(draft.Continent)),
		ScientificDescription: strings.TrimSpace(draft.ScientificDescription),
		Discoverer:            strings.TrimSpace(draft.Discoverer),
		DiscoveryMethod:       strings.TrimSpace(draft.DiscoveryMethod),
		ImageURL:              strings.TrimSpace(draft.ImageURL),
	}
	if pin.SubmitterID == "" {
		pin.SubmitterID = domain.AnonymousSubmitter
	}

	// fields sent with the wrong type are reported where they would be checked
	malformed := make(map[string]string, len(draft.Malformed))
	for _, f := range draft.Malformed {
		malformed[f.Field] = f.Reason
	}
	wellFormed := func(field string) bool {
		reason, bad := malformed[field]
		if bad {
			fail(field, reason)
			delete(malformed, field)
		}
		return !bad
	}

	if wellFormed("speciesCommonName") && pin.SpeciesCommonName == "" {
		fail("speciesCommonName", "is required")
	}
	if wellFormed("speciesScientificName") && pin.SpeciesScientificName == "" {
		fail("speciesScientificName", "is required")
	}

	switch {
	case !wellFormed("type"):
	case pin.Kingdom == "":
		fail("type", "is required")
	case !pin.Kingdom.Valid():
		fail("type", fmt.Sprintf("must be one of %s", joinValues(domain.Kingdoms)))
	}

	switch {
	case !wellFormed("conservationStatus"):
	case pin.ConservationStatus == "":
		fail("conservationStatus", "is required")
	case !pin.ConservationStatus.Known():
		fail("conservationStatus", fmt.Sprintf("must be one of %s", joinValues(domain.ConservationStatuses)))
	}

	switch {
	case !wellFormed("continent"):
	case pin.Continent == "":
		fail("continent", "is required")
	case !pin.Continent.Valid():
		fail("continent", fmt.Sprintf("must be one of %s", joinValues(domain.Continents)))
	}

	if wellFormed("scientificDescription") {
		if n := utf8.RuneCountInString(pin.ScientificDescription); n < domain.MinDescriptionLength {
			fail("scientificDescription", fmt.Sprintf("must be at least %d characters, got %d", domain.MinDescriptionLength, n))
		}
	}

	switch {
	case !wellFormed("areaCenter"):
	case draft.AreaCenterLat == nil && draft.AreaCenterLong == nil &&
		malformed["areaCenter.lat"] == "" && malformed["areaCenter.long"] == "":
		fail("areaCenter", "is required")
	default:
		switch {
		case !wellFormed("areaCenter.lat"):
		case draft.AreaCenterLat == nil:
			fail("areaCenter.lat", "is required")
		case !inRange(*draft.AreaCenterLat, -90, 90):
			fail("areaCenter.lat", "must be between -90 and 90")
		default:
			pin.AreaCenter.Lat = *draft.AreaCenterLat
		}
		switch {
		case !wellFormed("areaCenter.long"):
		case draft.AreaCenterLong == nil:
			fail("areaCenter.long", "is required")
		case !inRange(*draft.AreaCenterLong, -180, 180):
			fail("areaCenter.long", "must be between -180 and 180")
		default:
			pin.AreaCenter.Long = *draft.AreaCenterLong
		}
	}

	pin.AreaRadiusKm = defaultRadiusKm
	if draft.AreaRadiusKm != nil {
		pin.AreaRadiusKm = *draft.AreaRadiusKm
	}
	if wellFormed("areaRadiusKm") && !inRange(pin.AreaRadiusKm, domain.MinAreaRadiusKm, domain.MaxAreaRadiusKm) {
		fail("areaRadiusKm", fmt.Sprintf("must be between %g and %g km", domain.MinAreaRadiusKm, domain.MaxAreaRadiusKm))
	}

	pin.DiscoveryYear = now.Year()
	if draft.DiscoveryYear != nil {
		pin.DiscoveryYear = *draft.DiscoveryYear
	}
	if wellFormed("discoveryYear") && draft.DiscoveryYear != nil &&
		(pin.DiscoveryYear < domain.MinDiscoveryYear || pin.DiscoveryYear > now.Year()) {
		fail("discoveryYear", fmt.Sprintf("must be between %d and %d", domain.MinDiscoveryYear, now.Year()))
	}

	if wellFormed("imageUrl") && pin.ImageURL != "" {
		u, err := url.Parse(pin.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail("imageUrl", "must be an absolute http(s) URL")
		}
	}

	// anything left, e.g. discoverer sent as a number
	for _, f := range draft.Malformed {
		wellFormed(f.Field)
	}

	if len(fields) > 0 {
		return domain.PinRecord{}, domain.ValidationError{Fields: fields}
	}
	return pin, nil
}

// inRange rejects NaN and infinities along with out-of-range values.
func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

func publish(ctx context.Context, publisher EventPublisher, eventType string, pin domain.PinRecord, at time.Time) {
	if publisher == nil {
		return
	}
	event := biomap.Event{
		Type:      eventType,
		Pin:       pin.View(),
		Timestamp: at,
	}
	err := publisher.Publish(ctx, domain.EventChannel(eventType), event)
	if err != nil {
		slog.WarnContext(
			ctx, "failed to publish event",
			slog.String("type", eventType),
			slog.String("id", pin.ID),
			slog.String("error", err.Error()),
			slog.String("module", "signal"),
		)
	}
}
