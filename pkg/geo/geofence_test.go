package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// north returns a point d meters due north of (lat, lon); meridian arcs make
// the haversine distance exact up to rounding.
func north(lat, lon, d float64) (float64, float64) {
	return lat + (d/EarthRadiusMeters)*180/math.Pi, lon
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		delta                  float64
	}{
		{name: "same point", lat1: 12.9716, lon1: 77.5946, lat2: 12.9716, lon2: 77.5946, want: 0, delta: 1e-9},
		{name: "one degree of latitude", lat1: 0, lon1: 0, lat2: 1, lon2: 0, want: 111194.93, delta: 0.01},
		{name: "one degree of longitude at equator", lat1: 0, lon1: 0, lat2: 0, lon2: 1, want: 111194.93, delta: 0.01},
		{name: "bangalore to chennai", lat1: 12.9716, lon1: 77.5946, lat2: 13.0827, lon2: 80.2707, want: 290200, delta: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.want, got, tt.delta)
			assert.InDelta(t, got, Distance(tt.lat2, tt.lon2, tt.lat1, tt.lon1), 1e-6, "distance must be symmetric")
		})
	}
}

func TestWithinRadius_Boundary(t *testing.T) {
	originLat, originLon := 12.9716, 77.5946

	tests := []struct {
		name   string
		meters float64
		want   bool
	}{
		{name: "4999m accepted", meters: 4999, want: true},
		{name: "5000m accepted (inclusive)", meters: 5000, want: true},
		{name: "5001m rejected", meters: 5001, want: false},
		{name: "1000m accepted", meters: 1000, want: true},
		{name: "6000m rejected", meters: 6000, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := north(originLat, originLon, tt.meters)
			assert.Equal(t, tt.want, WithinRadius(originLat, originLon, lat, lon, DefaultRadiusMeters))

			ok, d := NewFence(&originLat, &originLon, DefaultRadiusMeters).Check(lat, lon)
			assert.Equal(t, tt.want, ok)
			assert.InDelta(t, tt.meters, d, 1e-3)
		})
	}
}

func TestFence_WithoutOriginAdmitsEverything(t *testing.T) {
	lat := 12.9716

	for _, fence := range []Fence{
		NewFence(nil, nil, DefaultRadiusMeters),
		NewFence(&lat, nil, DefaultRadiusMeters),
	} {
		ok, d := fence.Check(-33.8688, 151.2093)
		assert.True(t, ok)
		assert.Zero(t, d)
	}
}
