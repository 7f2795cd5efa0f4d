package usecase

import (
	"context"
	"sync"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
)

type mockPinRepo struct {
	mu      sync.Mutex
	pins    map[string]domain.PinRecord
	order   []string
	writes  int
	failErr error
}

func newMockPinRepo() *mockPinRepo {
	return &mockPinRepo{pins: map[string]domain.PinRecord{}}
}

func (m *mockPinRepo) Save(ctx context.Context, pin domain.PinRecord) (domain.PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return domain.PinRecord{}, m.failErr
	}
	m.writes++
	m.pins[pin.ID] = pin
	m.order = append(m.order, pin.ID)
	return pin, nil
}

func (m *mockPinRepo) FindByID(ctx context.Context, id string) (domain.PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return domain.PinRecord{}, m.failErr
	}
	pin, ok := m.pins[id]
	if !ok {
		return domain.PinRecord{}, domain.NotFoundError{Resource: "pin"}
	}
	return pin, nil
}

func (m *mockPinRepo) FindByStatus(ctx context.Context, status domain.Status) ([]domain.PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []domain.PinRecord
	for _, id := range m.order {
		if m.pins[id].Status == status {
			out = append(out, m.pins[id])
		}
	}
	return out, nil
}

func (m *mockPinRepo) UpdateStatus(ctx context.Context, id string, from, to domain.Status) (domain.PinRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return domain.PinRecord{}, m.failErr
	}
	pin, ok := m.pins[id]
	if !ok {
		return domain.PinRecord{}, domain.NotFoundError{Resource: "pin"}
	}
	if pin.Status != from {
		return domain.PinRecord{}, domain.ConflictError{ID: id, Current: pin.Status, Target: to}
	}
	m.writes++
	pin.Status = to
	m.pins[id] = pin
	return pin, nil
}

type adminOnly struct{}

func (adminOnly) Authorize(ctx context.Context, r domain.Requester, action string) error {
	if r.IsAdmin {
		return nil
	}
	return domain.ForbiddenError{Action: action}
}

type mockPublisher struct {
	events []biomap.Event
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, event biomap.Event) error {
	m.events = append(m.events, event)
	return nil
}

var (
	admin   = domain.Requester{ID: "admin-1", IsAdmin: true}
	visitor = domain.Requester{ID: "user-1"}
)

func f64(v float64) *float64 { return &v }

func frogDraft() domain.PinDraft {
	return domain.PinDraft{
		SubmitterID:           "user-1",
		SpeciesCommonName:     "Test Frog",
		SpeciesScientificName: "Testus frogus",
		Kingdom:               "Animal",
		ConservationStatus:    "Vulnerable",
		Continent:             "Asia",
		ScientificDescription: "A small green frog observed near a slow stream under dense canopy cover.",
		AreaCenterLat:         f64(10),
		AreaCenterLong:        f64(20),
		AreaRadiusKm:          f64(40),
	}
}
