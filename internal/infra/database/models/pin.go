package models

import (
	"time"
)

type Pin struct {
	ID                    string    `json:"id" gorm:"primaryKey;type:text"`
	SubmitterID           string    `json:"submitterId" gorm:"type:text;not null;index"`
	SpeciesCommonName     string    `json:"speciesCommonName" gorm:"type:text;not null"`
	SpeciesScientificName string    `json:"speciesScientificName" gorm:"type:text;not null"`
	Kingdom               string    `json:"type" gorm:"type:text;not null"`
	ConservationStatus    string    `json:"conservationStatus" gorm:"type:text;not null"`
	Continent             string    `json:"continent" gorm:"type:text;not null"`
	ScientificDescription string    `json:"scientificDescription" gorm:"type:text;not null"`
	AreaCenterLat         float64   `json:"areaCenterLat" gorm:"not null;check:chk_pins_area_center_lat,area_center_lat >= -90 AND area_center_lat <= 90"`
	AreaCenterLong        float64   `json:"areaCenterLong" gorm:"not null;check:chk_pins_area_center_long,area_center_long >= -180 AND area_center_long <= 180"`
	AreaRadiusKm          float64   `json:"areaRadiusKm" gorm:"not null;default:40;check:chk_pins_area_radius_km,area_radius_km >= 30 AND area_radius_km <= 50"`
	Status                string    `json:"status" gorm:"type:text;not null;default:pending;index;check:chk_pins_status,status IN ('pending','approved','rejected')"`
	Discoverer            string    `json:"discoverer" gorm:"type:text;not null;default:''"`
	DiscoveryMethod       string    `json:"discoveryMethod" gorm:"type:text;not null;default:''"`
	DiscoveryYear         int       `json:"discoveryYear"`
	ImageURL              string    `json:"imageUrl" gorm:"type:text;not null;default:''"`
	CDate                 time.Time `json:"cdate" gorm:"->;<-:create;not null;index"`
	MDate                 time.Time `json:"mdate" gorm:"not null"`
}
