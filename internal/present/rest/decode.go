package rest

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
)

// decodePinInput reads a submission body field by field. A field holding the
// wrong JSON type is returned as a violation instead of failing the whole
// body, so it can be reported together with the remaining checks.
// Only a body that is not a JSON object is an error.
func decodePinInput(dec *json.Decoder) (biomap.PinInput, []domain.FieldError, error) {
	var input biomap.PinInput
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return input, nil, errors.Wrap(err, "decode pin body")
	}
	if raw == nil {
		return input, nil, errors.New("pin body is null")
	}

	var malformed []domain.FieldError
	field := func(fields map[string]json.RawMessage, key, name string, dst any, reason string) {
		value, ok := fields[key]
		if !ok || string(value) == "null" {
			return
		}
		if err := json.Unmarshal(value, dst); err != nil {
			malformed = append(malformed, domain.FieldError{Field: name, Reason: reason})
		}
	}
	str := func(key string, dst *string) {
		field(raw, key, key, dst, "must be a string")
	}

	str("speciesCommonName", &input.SpeciesCommonName)
	str("speciesScientificName", &input.SpeciesScientificName)
	str("type", &input.Type)
	str("conservationStatus", &input.ConservationStatus)
	str("continent", &input.Continent)
	str("scientificDescription", &input.ScientificDescription)
	str("discoverer", &input.Discoverer)
	str("discoveryMethod", &input.DiscoveryMethod)
	str("imageUrl", &input.ImageURL)
	field(raw, "areaRadiusKm", "areaRadiusKm", &input.AreaRadiusKm, "must be a number")
	field(raw, "discoveryYear", "discoveryYear", &input.DiscoveryYear, "must be an integer")

	if value, ok := raw["areaCenter"]; ok && string(value) != "null" {
		var center map[string]json.RawMessage
		if err := json.Unmarshal(value, &center); err != nil {
			malformed = append(malformed, domain.FieldError{Field: "areaCenter", Reason: "must be an object with lat and long"})
		} else {
			input.AreaCenter = &biomap.PointInput{}
			field(center, "lat", "areaCenter.lat", &input.AreaCenter.Lat, "must be a number")
			field(center, "long", "areaCenter.long", &input.AreaCenter.Long, "must be a number")
		}
	}

	return input, malformed, nil
}
