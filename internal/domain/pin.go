package domain

import (
	"slices"
	"time"

	"github.com/totegamma/biomap"
)

// Status is the moderation state of a pin. It is the only gate on public visibility.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether the moderation state machine permits from -> to.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}

type Kingdom string

const (
	KingdomAnimal        Kingdom = "Animal"
	KingdomPlant         Kingdom = "Plant"
	KingdomFungi         Kingdom = "Fungi"
	KingdomMicroorganism Kingdom = "Microorganism"
)

var Kingdoms = []Kingdom{KingdomAnimal, KingdomPlant, KingdomFungi, KingdomMicroorganism}

func (k Kingdom) Valid() bool {
	return slices.Contains(Kingdoms, k)
}

type Continent string

const (
	ContinentAfrica       Continent = "Africa"
	ContinentAntarctica   Continent = "Antarctica"
	ContinentAsia         Continent = "Asia"
	ContinentEurope       Continent = "Europe"
	ContinentNorthAmerica Continent = "North America"
	ContinentOceania      Continent = "Oceania"
	ContinentSouthAmerica Continent = "South America"
)

var Continents = []Continent{
	ContinentAfrica,
	ContinentAntarctica,
	ContinentAsia,
	ContinentEurope,
	ContinentNorthAmerica,
	ContinentOceania,
	ContinentSouthAmerica,
}

func (c Continent) Valid() bool {
	return slices.Contains(Continents, c)
}

// ConservationStatus is stored as an open string. The known values are what
// the submission form offers.
type ConservationStatus string

const (
	ConservationNewlyDiscovered ConservationStatus = "Newly Discovered"
	ConservationEndangered      ConservationStatus = "Endangered"
	ConservationVulnerable      ConservationStatus = "Vulnerable"
	ConservationLeastConcern    ConservationStatus = "Least Concern"
)

var ConservationStatuses = []ConservationStatus{
	ConservationNewlyDiscovered,
	ConservationEndangered,
	ConservationVulnerable,
	ConservationLeastConcern,
}

func (c ConservationStatus) Known() bool {
	return slices.Contains(ConservationStatuses, c)
}

const (
	MinAreaRadiusKm     = 30.0
	MaxAreaRadiusKm     = 50.0
	DefaultAreaRadiusKm = 40.0

	MinDescriptionLength = 50
	MinDiscoveryYear     = 1700
)

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Long >= -180 && p.Long <= 180
}

// PinRecord is a single species sighting. Only the approximate area is kept;
// the exact observation point never reaches this type.
type PinRecord struct {
	ID                    string
	SubmitterID           string
	SpeciesCommonName     string
	SpeciesScientificName string
	Kingdom               Kingdom
	ConservationStatus    ConservationStatus
	Continent             Continent
	ScientificDescription string
	AreaCenter            Point
	AreaRadiusKm          float64
	Status                Status
	Discoverer            string
	DiscoveryMethod       string
	DiscoveryYear         int
	ImageURL              string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// PinDraft is a candidate record before the system assigns id, status and timestamps.
// Pointer fields distinguish "omitted" from zero.
type PinDraft struct {
	SubmitterID           string
	SpeciesCommonName     string
	SpeciesScientificName string
	Kingdom               string
	ConservationStatus    string
	Continent             string
	ScientificDescription string
	AreaCenterLat         *float64
	AreaCenterLong        *float64
	AreaRadiusKm          *float64
	Discoverer            string
	DiscoveryMethod       string
	DiscoveryYear         *int
	ImageURL              string

	// Malformed lists fields that were present but not of the expected type.
	Malformed []FieldError
}

// View renders the record in its wire form.
func (p PinRecord) View() biomap.Pin {
	return biomap.Pin{
		ID:                    p.ID,
		SubmitterID:           p.SubmitterID,
		SpeciesCommonName:     p.SpeciesCommonName,
		SpeciesScientificName: p.SpeciesScientificName,
		Type:                  string(p.Kingdom),
		ConservationStatus:    string(p.ConservationStatus),
		Continent:             string(p.Continent),
		ScientificDescription: p.ScientificDescription,
		AreaCenter:            biomap.Point{Lat: p.AreaCenter.Lat, Long: p.AreaCenter.Long},
		AreaRadiusKm:          p.AreaRadiusKm,
		Status:                string(p.Status),
		Discoverer:            p.Discoverer,
		DiscoveryMethod:       p.DiscoveryMethod,
		DiscoveryYear:         p.DiscoveryYear,
		ImageURL:              p.ImageURL,
		CreatedAt:             p.CreatedAt,
		UpdatedAt:             p.UpdatedAt,
	}
}

// DraftFromInput maps a submission body onto a draft for submitter.
func DraftFromInput(submitterID string, in biomap.PinInput) PinDraft {
	draft := PinDraft{
		SubmitterID:           submitterID,
		SpeciesCommonName:     in.SpeciesCommonName,
		SpeciesScientificName: in.SpeciesScientificName,
		Kingdom:               in.Type,
		ConservationStatus:    in.ConservationStatus,
		Continent:             in.Continent,
		ScientificDescription: in.ScientificDescription,
		AreaRadiusKm:          in.AreaRadiusKm,
		Discoverer:            in.Discoverer,
		DiscoveryMethod:       in.DiscoveryMethod,
		DiscoveryYear:         in.DiscoveryYear,
		ImageURL:              in.ImageURL,
	}
	if in.AreaCenter != nil {
		draft.AreaCenterLat = in.AreaCenter.Lat
		draft.AreaCenterLong = in.AreaCenter.Long
	}
	return draft
}
