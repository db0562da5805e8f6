package domain

import (
	"context"
	"time"
)

// RawFeedRecord represents the flat JSON structure produced by the collector
// services. Every field is optional and untrusted: lat, lon, bbox, and
// severity values may arrive as JSON numbers or as strings depending on the
// feed.
type RawFeedRecord struct {
	ID          string `json:"id"`
	Source      string `json:"source"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    any    `json:"severity"`
	UpdatedAt   string `json:"updated_at"`

	Lat         any    `json:"lat"`
	Lon         any    `json:"lon"`
	BBox        []any  `json:"bbox"`
	CountryCode string `json:"country_code"`
	Country     string `json:"country"`
	Admin1      string `json:"admin1"`
	City        string `json:"city"`
	PlaceName   string `json:"place_name"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationSignal carries the partial location hints attached to one event.
// All fields are independently optional; absent coordinates are nil pointers
// rather than zero values because (0, 0) is a real point.
type LocationSignal struct {
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	BBox        []float64 `json:"bbox,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	Country     string    `json:"country,omitempty"`
	Admin1      string    `json:"admin1,omitempty"`
	City        string    `json:"city,omitempty"`
	PlaceName   string    `json:"place_name,omitempty"`
}

// Empty reports whether the signal carries no hints at all.
func (s LocationSignal) Empty() bool {
	return s.Lat == nil && s.Lon == nil && len(s.BBox) == 0 &&
		s.CountryCode == "" && s.Country == "" && s.Admin1 == "" &&
		s.City == "" && s.PlaceName == ""
}

// ResolveMethod identifies which resolution tier produced a location.
type ResolveMethod string

const (
	MethodProvidedPoint   ResolveMethod = "provided_point"
	MethodBBoxCentroid    ResolveMethod = "bbox_centroid"
	MethodCityGeocode     ResolveMethod = "city_geocode"
	MethodAdmin1Centroid  ResolveMethod = "admin1_centroid"
	MethodCountryCentroid ResolveMethod = "country_centroid"
	MethodNone            ResolveMethod = "none"
)

// ResolvedLocation is the resolver's verdict for one signal. Geo is nil
// exactly when Method is none, and Confidence is 0 exactly when Method is
// none. A ResolvedLocation is never mutated once produced; re-resolution
// means building a new LocationSignal.
type ResolvedLocation struct {
	Geo        *Geo          `json:"geo,omitempty"`
	Method     ResolveMethod `json:"method"`
	Confidence float64       `json:"confidence"`
	Notes      string        `json:"notes,omitempty"`
}

// Unresolved builds the terminal no-match location.
func Unresolved(notes string) ResolvedLocation {
	return ResolvedLocation{Method: MethodNone, Confidence: 0, Notes: notes}
}

// LocationResolver turns one location signal into a resolved location. The
// call is a bounded synchronous computation with no I/O and no error path;
// unresolvable input yields Method none.
type LocationResolver interface {
	Resolve(sig LocationSignal) ResolvedLocation
}

// CrisisEvent is the domain-rich representation after parsing and enrichment.
type CrisisEvent struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	EventType   string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Severity    float64   `json:"severity"`
	UpdatedAt   time.Time `json:"updated_at"`
	TimeBucket  time.Time `json:"time_bucket,omitempty"`

	Signal   LocationSignal   `json:"signal"`
	Location ResolvedLocation `json:"location"`

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}
