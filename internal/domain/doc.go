// Package domain models crisis event records and their location resolution
// contract.
//
// # Data Sources
//
// Events originate from independent collector services, one per upstream feed
// (NASA EONET natural-event API, ReliefWeb humanitarian reports, social media
// monitors). Each collector normalizes its feed into a flat JSON record and
// publishes it to the Kafka source topic. The record schema is a union: every
// field is optional, and a given feed populates only the subset it has.
//
// # Location Signals
//
// Feeds disagree wildly about how they describe "where":
//
//	EONET:     explicit point coordinates, sometimes a bounding box
//	           [minLon, minLat, maxLon, maxLat] for area events.
//	ReliefWeb: country names ("Democratic Republic of the Congo"), sometimes
//	           a country-level point, rarely anything finer.
//	Social:    free-text place names, most-specific-first and comma
//	           separated ("Springfield, Illinois"), or city + country words
//	           pulled from post text.
//
// The LocationSignal type carries whichever subset arrived. Numeric fields are
// untrusted: feeds have been observed sending coordinates as strings, with
// junk values, or out of range. Parsing treats every malformed field as
// absent; a record never fails to parse because one field is garbage.
//
// # Severity
//
// Collectors attach a 0-10 severity. Feeds without a native magnitude get a
// category default at enrichment time: 7.0 for fast-moving hazards (Wildfires,
// Severe Storms), 5.0 otherwise. The downstream risk model rescores events;
// this value only seeds its priority queue.
//
// # ID Generation
//
// Feed-assigned IDs (e.g. "EONET-6811", "RW-4021837") pass through untouched.
// When a feed omits the ID, a deterministic SHA-256 hash of
// source|title|updated_at is generated so that replaying the same raw message
// upserts the same row downstream. See [generateID].
package domain
