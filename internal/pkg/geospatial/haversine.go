package geospatial

import (
	"math"

	"github.com/medgrid/resqroute/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Distance calculates the great-circle distance in kilometers between two
// points using the haversine formula. Symmetric, and exactly zero for
// identical inputs. Inputs are not validated here.
func Distance(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// BoundingBox returns a bounding box around a point with the given radius
// in kilometers. Used as a cheap prefilter before exact distance checks.
func BoundingBox(p domain.GeoPoint, radiusKm float64) domain.Bounds {
	latDelta := radiusKm / 111.32
	lonDelta := radiusKm / (111.32 * math.Cos(toRad(p.Lat)))

	return domain.Bounds{
		South: p.Lat - latDelta,
		West:  p.Lon - lonDelta,
		North: p.Lat + latDelta,
		East:  p.Lon + lonDelta,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
