package geospatial_test

import (
	"math"
	"testing"

	"github.com/medgrid/resqroute/internal/core/domain"
	"github.com/medgrid/resqroute/internal/pkg/geospatial"
)

var (
	ubCity     = domain.GeoPoint{Lat: 12.9716, Lon: 77.5946}
	incident   = domain.GeoPoint{Lat: 12.9750, Lon: 77.6100}
	fortis     = domain.GeoPoint{Lat: 12.9926, Lon: 77.5985}
	whitefield = domain.GeoPoint{Lat: 12.9698, Lon: 77.7500}
)

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][2]domain.GeoPoint{
		{ubCity, incident},
		{fortis, whitefield},
		{{Lat: -33.8688, Lon: 151.2093}, {Lat: 51.5074, Lon: -0.1278}},
	}
	for _, p := range pairs {
		ab := geospatial.Distance(p[0], p[1])
		ba := geospatial.Distance(p[1], p[0])
		if ab != ba {
			t.Errorf("distance not symmetric: %.12f vs %.12f", ab, ba)
		}
	}
}

func TestDistance_IdenticalPointsZero(t *testing.T) {
	for _, p := range []domain.GeoPoint{ubCity, {Lat: 0, Lon: 0}, {Lat: -90, Lon: 180}} {
		if d := geospatial.Distance(p, p); d != 0 {
			t.Errorf("distance(p, p) = %.15f, want exactly 0", d)
		}
	}
}

func TestDistance_TriangleInequality(t *testing.T) {
	ac := geospatial.Distance(ubCity, whitefield)
	ab := geospatial.Distance(ubCity, fortis)
	bc := geospatial.Distance(fortis, whitefield)
	if ac > ab+bc+1e-9 {
		t.Errorf("triangle inequality violated: %.9f > %.9f + %.9f", ac, ab, bc)
	}
}

func TestDistance_KnownLegs(t *testing.T) {
	// The worked dispatch example: UB City to the incident is about 1.71 km.
	if d := geospatial.Distance(ubCity, incident); math.Abs(d-1.711) > 0.005 {
		t.Errorf("UB City leg %.3f km, expected about 1.711", d)
	}
	dest := domain.GeoPoint{Lat: 12.9750, Lon: 77.6050}
	if d := geospatial.Distance(incident, dest); math.Abs(d-0.542) > 0.005 {
		t.Errorf("facility leg %.3f km, expected about 0.542", d)
	}
}

func TestDistance_NonNegative(t *testing.T) {
	pts := []domain.GeoPoint{ubCity, incident, fortis, whitefield, {Lat: 89.9, Lon: 179.9}}
	for _, a := range pts {
		for _, b := range pts {
			if d := geospatial.Distance(a, b); d < 0 || math.IsNaN(d) {
				t.Errorf("distance(%v, %v) = %v", a, b, d)
			}
		}
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	box := geospatial.BoundingBox(ubCity, 5)
	if !box.Contains(ubCity) {
		t.Error("bounding box does not contain its center")
	}
	if box.North <= box.South || box.East <= box.West {
		t.Error("degenerate bounding box")
	}
}
