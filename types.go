package biomap

import (
	"time"
)

type Point struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// PointInput keeps "missing" apart from zero.
type PointInput struct {
	Lat  *float64 `json:"lat"`
	Long *float64 `json:"long"`
}

// PinInput is the body of a submission. Pointer fields may be omitted.
type PinInput struct {
	SpeciesCommonName     string      `json:"speciesCommonName"`
	SpeciesScientificName string      `json:"speciesScientificName"`
	Type                  string      `json:"type"`
	ConservationStatus    string      `json:"conservationStatus"`
	Continent             string      `json:"continent"`
	ScientificDescription string      `json:"scientificDescription"`
	AreaCenter            *PointInput `json:"areaCenter,omitempty"`
	AreaRadiusKm          *float64    `json:"areaRadiusKm,omitempty"`
	Discoverer            string      `json:"discoverer,omitempty"`
	DiscoveryMethod       string      `json:"discoveryMethod,omitempty"`
	DiscoveryYear         *int        `json:"discoveryYear,omitempty"`
	ImageURL              string      `json:"imageUrl,omitempty"`
}

type Pin struct {
	ID                    string    `json:"id"`
	SubmitterID           string    `json:"submitterId"`
	SpeciesCommonName     string    `json:"speciesCommonName"`
	SpeciesScientificName string    `json:"speciesScientificName"`
	Type                  string    `json:"type"`
	ConservationStatus    string    `json:"conservationStatus"`
	Continent             string    `json:"continent"`
	ScientificDescription string    `json:"scientificDescription"`
	AreaCenter            Point     `json:"areaCenter"`
	AreaRadiusKm          float64   `json:"areaRadiusKm"`
	Status                string    `json:"status"`
	Discoverer            string    `json:"discoverer"`
	DiscoveryMethod       string    `json:"discoveryMethod"`
	DiscoveryYear         int       `json:"discoveryYear"`
	ImageURL              string    `json:"imageUrl"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// MapFeature is an approved pin together with the ring drawn around it.
type MapFeature struct {
	Pin  Pin          `json:"pin"`
	Area [][2]float64 `json:"area"`
}

type Event struct {
	Type      string    `json:"type"`
	Pin       Pin       `json:"pin"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type Endpoint struct {
	Template string    `json:"template"`
	Method   string    `json:"method"`
	Query    *[]string `json:"query,omitempty"`
	Admin    bool      `json:"admin,omitempty"`
}

type WellKnown struct {
	Version   string              `json:"version"`
	Domain    string              `json:"domain"`
	Endpoints map[string]Endpoint `json:"endpoints"`
}
