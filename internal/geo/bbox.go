package geo

// BBoxCentroid computes the midpoint of a bounding box given as
// [minLon, minLat, maxLon, maxLat]. It returns false if the box does not have
// exactly four values or the midpoint falls outside valid WGS-84 bounds.
func BBoxCentroid(bbox []float64) (lat, lon float64, ok bool) {
	if len(bbox) != 4 {
		return 0, 0, false
	}
	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]
	lat = (minLat + maxLat) / 2
	lon = (minLon + maxLon) / 2
	if !ValidCoordinates(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}

// ValidCoordinates reports whether lat/lon lie within [-90,90] and [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
