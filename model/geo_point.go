package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeoPoint is returned for coordinates outside the valid range
var ErrInvalidGeoPoint = errors.New("invalid geo point")

// GeoPoint is a latitude/longitude pair in degrees
type GeoPoint struct {
	latitude  float64
	longitude float64
}

// NewGeoPoint creates a geo point. Latitude must lie in [-90, 90] and
// longitude in [-180, 180].
func NewGeoPoint(latitude, longitude float64) (GeoPoint, error) {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return GeoPoint{}, fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidGeoPoint, latitude)
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return GeoPoint{}, fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidGeoPoint, longitude)
	}
	return GeoPoint{latitude: latitude, longitude: longitude}, nil
}

// MustGeoPoint is NewGeoPoint that panics on error
func MustGeoPoint(latitude, longitude float64) GeoPoint {
	p, err := NewGeoPoint(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return p
}

// Latitude returns the latitude in degrees
func (p GeoPoint) Latitude() float64 {
	return p.latitude
}

// Longitude returns the longitude in degrees
func (p GeoPoint) Longitude() float64 {
	return p.longitude
}

// Compare orders by latitude, then longitude
func (p GeoPoint) Compare(other GeoPoint) int {
	if c := compareDoubles(p.latitude, other.latitude); c != 0 {
		return c
	}
	return compareDoubles(p.longitude, other.longitude)
}

// String returns a representation for debugging
func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%g, %g)", p.latitude, p.longitude)
}
