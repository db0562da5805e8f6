package geo

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/crisis-event-etl/internal/domain"
)

// Resolution confidence by tier. City geocoding composes bonuses on top of
// its base and is capped at 1.0.
const (
	confidenceProvidedPoint  = 1.0
	confidenceBBoxCentroid   = 0.8
	confidenceCityBase       = 0.75
	confidenceCityAdminBonus = 0.05
	confidenceCityPopBonus   = 0.05
	confidencePlaceName      = 0.72
	confidenceAdmin1         = 0.7
	confidenceCountry        = 0.6
)

// cityPopBonusThreshold is the population above which a matched city earns the
// large-city confidence bonus.
const cityPopBonusThreshold = 1_000_000

// Resolver implements domain.LocationResolver against a shared immutable
// Gazetteer. One Resolver serves arbitrarily many concurrent callers; Resolve
// holds no state between calls.
type Resolver struct {
	gaz *Gazetteer
}

// NewResolver creates a Resolver over a fully built gazetteer.
func NewResolver(gaz *Gazetteer) *Resolver {
	return &Resolver{gaz: gaz}
}

// Resolve runs the tiered resolution policy over one signal and stops at the
// first tier that matches:
//
//	1. provided_point:   usable coordinates in the signal itself
//	2. bbox_centroid:    midpoint of a valid bounding box
//	3. city_geocode:     structured country + city lookup
//	4. city_geocode:     city parsed out of a free-text place name
//	5. admin1_centroid:  administrative region centroid
//	6. country_centroid: country centroid
//	7. none:             nothing matched
//
// Malformed fields are treated as absent for their tier; nothing here returns
// an error. Country resolution happens once and is reused by tiers 3 through
// 6; without a resolvable country those tiers are skipped entirely.
func (r *Resolver) Resolve(sig domain.LocationSignal) domain.ResolvedLocation {
	if loc, ok := resolveProvidedPoint(sig); ok {
		return loc
	}
	if loc, ok := resolveBBox(sig); ok {
		return loc
	}

	country := r.resolveCountry(sig)
	if country == nil {
		return domain.Unresolved("no location signal matched")
	}

	if loc, ok := r.resolveCity(sig, country); ok {
		return loc
	}
	if loc, ok := r.resolvePlaceName(sig, country); ok {
		return loc
	}
	if loc, ok := r.resolveAdmin1(sig, country); ok {
		return loc
	}

	return domain.ResolvedLocation{
		Geo:        &domain.Geo{Lat: country.Lat, Lon: country.Lon},
		Method:     domain.MethodCountryCentroid,
		Confidence: confidenceCountry,
		Notes:      fmt.Sprintf("Country: %s", country.Name),
	}
}

// resolveCountry tries the explicit code first, then the free-text name.
func (r *Resolver) resolveCountry(sig domain.LocationSignal) *Country {
	if sig.CountryCode != "" {
		if c, ok := r.gaz.FindCountry(sig.CountryCode); ok {
			return c
		}
	}
	if sig.Country != "" {
		if c, ok := r.gaz.FindCountry(sig.Country); ok {
			return c
		}
	}
	return nil
}

func resolveProvidedPoint(sig domain.LocationSignal) (domain.ResolvedLocation, bool) {
	if sig.Lat == nil || sig.Lon == nil {
		return domain.ResolvedLocation{}, false
	}
	lat, lon := *sig.Lat, *sig.Lon
	if !ValidCoordinates(lat, lon) {
		return domain.ResolvedLocation{}, false
	}
	return domain.ResolvedLocation{
		Geo:        &domain.Geo{Lat: lat, Lon: lon},
		Method:     domain.MethodProvidedPoint,
		Confidence: confidenceProvidedPoint,
		Notes:      "Coordinates provided in source data",
	}, true
}

func resolveBBox(sig domain.LocationSignal) (domain.ResolvedLocation, bool) {
	lat, lon, ok := BBoxCentroid(sig.BBox)
	if !ok {
		return domain.ResolvedLocation{}, false
	}
	return domain.ResolvedLocation{
		Geo:        &domain.Geo{Lat: lat, Lon: lon},
		Method:     domain.MethodBBoxCentroid,
		Confidence: confidenceBBoxCentroid,
		Notes:      "Centroid of bounding box",
	}, true
}

func (r *Resolver) resolveCity(sig domain.LocationSignal, country *Country) (domain.ResolvedLocation, bool) {
	if sig.City == "" {
		return domain.ResolvedLocation{}, false
	}
	city, ok := r.gaz.FindCity(country.ISO2, sig.Admin1, sig.City)
	if !ok {
		return domain.ResolvedLocation{}, false
	}

	confidence := confidenceCityBase
	if sig.Admin1 != "" {
		confidence += confidenceCityAdminBonus
	}
	if city.Population > cityPopBonusThreshold {
		confidence += confidenceCityPopBonus
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	return domain.ResolvedLocation{
		Geo:        &domain.Geo{Lat: city.Lat, Lon: city.Lon},
		Method:     domain.MethodCityGeocode,
		Confidence: confidence,
		Notes:      fmt.Sprintf("City: %s, %s", city.Name, country.Name),
	}, true
}

// resolvePlaceName handles the "Springfield, Illinois" style combined string:
// most-specific-first, comma separated. The first part is tried as a city, the
// second as its admin region.
func (r *Resolver) resolvePlaceName(sig domain.LocationSignal, country *Country) (domain.ResolvedLocation, bool) {
	if sig.PlaceName == "" || !strings.Contains(sig.PlaceName, ",") {
		return domain.ResolvedLocation{}, false
	}
	parts := strings.Split(sig.PlaceName, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return domain.ResolvedLocation{}, false
	}

	city, ok := r.gaz.FindCity(country.ISO2, parts[1], parts[0])
	if !ok {
		return domain.ResolvedLocation{}, false
	}
	return domain.ResolvedLocation{
		Geo:        &domain.Geo{Lat: city.Lat, Lon: city.Lon},
		Method:     domain.MethodCityGeocode,
		Confidence: confidencePlaceName,
		Notes:      fmt.Sprintf("Parsed from place name: %s", city.Name),
	}, true
}

func (r *Resolver) resolveAdmin1(sig domain.LocationSignal, country *Country) (domain.ResolvedLocation, bool) {
	if sig.Admin1 == "" {
		return domain.ResolvedLocation{}, false
	}
	admin, ok := r.gaz.FindAdmin1(country.ISO2, sig.Admin1)
	if !ok {
		return domain.ResolvedLocation{}, false
	}
	return domain.ResolvedLocation{
		Geo:        &domain.Geo{Lat: admin.Lat, Lon: admin.Lon},
		Method:     domain.MethodAdmin1Centroid,
		Confidence: confidenceAdmin1,
		Notes:      fmt.Sprintf("Admin region: %s, %s", admin.Name, country.Name),
	}, true
}
