package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/infra/database/models"
	"github.com/totegamma/biomap/internal/observability"
)

type PinRepository struct {
	db *gorm.DB
}

func NewPinRepository(db *gorm.DB) *PinRepository {
	return &PinRepository{db: db}
}

func storeError(op string, err error) error {
	observability.StoreErrorsTotal.WithLabelValues(op).Inc()
	return domain.StoreUnavailableError{
		Op:  op,
		Err: errors.Wrap(err, "PinRepository."+op),
	}
}

func (r *PinRepository) Save(ctx context.Context, pin domain.PinRecord) (domain.PinRecord, error) {
	row := toModel(pin)
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		return domain.PinRecord{}, storeError("save", err)
	}
	return toDomain(row), nil
}

func (r *PinRepository) FindByID(ctx context.Context, id string) (domain.PinRecord, error) {
	var row models.Pin
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PinRecord{}, domain.NotFoundError{Resource: "pin"}
		}
		return domain.PinRecord{}, storeError("findById", err)
	}
	return toDomain(row), nil
}

func (r *PinRepository) FindByStatus(ctx context.Context, status domain.Status) ([]domain.PinRecord, error) {
	var rows []models.Pin
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("c_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("findByStatus", err)
	}

	pins := make([]domain.PinRecord, 0, len(rows))
	for _, row := range rows {
		pins = append(pins, toDomain(row))
	}
	return pins, nil
}

// UpdateStatus is a compare-and-set on the status column. When no row
// matches it reads once more to tell a missing pin from a stale one.
func (r *PinRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) (domain.PinRecord, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Pin{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]any{
			"status": string(to),
			"m_date": time.Now().UTC(),
		})
	if result.Error != nil {
		return domain.PinRecord{}, storeError("updateStatus", result.Error)
	}

	current, err := r.FindByID(ctx, id)
	if err != nil {
		return domain.PinRecord{}, err
	}
	if result.RowsAffected == 0 {
		return domain.PinRecord{}, domain.ConflictError{ID: id, Current: current.Status, Target: to}
	}
	return current, nil
}

func toModel(pin domain.PinRecord) models.Pin {
	return models.Pin{
		ID:                    pin.ID,
		SubmitterID:           pin.SubmitterID,
		SpeciesCommonName:     pin.SpeciesCommonName,
		SpeciesScientificName: pin.SpeciesScientificName,
		Kingdom:               string(pin.Kingdom),
		ConservationStatus:    string(pin.ConservationStatus),
		Continent:             string(pin.Continent),
		ScientificDescription: pin.ScientificDescription,
		AreaCenterLat:         pin.AreaCenter.Lat,
		AreaCenterLong:        pin.AreaCenter.Long,
		AreaRadiusKm:          pin.AreaRadiusKm,
		Status:                string(pin.Status),
		Discoverer:            pin.Discoverer,
		DiscoveryMethod:       pin.DiscoveryMethod,
		DiscoveryYear:         pin.DiscoveryYear,
		ImageURL:              pin.ImageURL,
		CDate:                 pin.CreatedAt,
		MDate:                 pin.UpdatedAt,
	}
}

func toDomain(row models.Pin) domain.PinRecord {
	return domain.PinRecord{
		ID:                    row.ID,
		SubmitterID:           row.SubmitterID,
		SpeciesCommonName:     row.SpeciesCommonName,
		SpeciesScientificName: row.SpeciesScientificName,
		Kingdom:               domain.Kingdom(row.Kingdom),
		ConservationStatus:    domain.ConservationStatus(row.ConservationStatus),
		Continent:             domain.Continent(row.Continent),
		ScientificDescription: row.ScientificDescription,
		AreaCenter:            domain.Point{Lat: row.AreaCenterLat, Long: row.AreaCenterLong},
		AreaRadiusKm:          row.AreaRadiusKm,
		Status:                domain.Status(row.Status),
		Discoverer:            row.Discoverer,
		DiscoveryMethod:       row.DiscoveryMethod,
		DiscoveryYear:         row.DiscoveryYear,
		ImageURL:              row.ImageURL,
		CreatedAt:             row.CDate.UTC(),
		UpdatedAt:             row.MDate.UTC(),
	}
}
