package geo

import (
	"math"
	"testing"
)

func TestHaversine_KnownDistances(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		wantMeters             float64
		tolerance              float64
	}{
		{
			name: "Ferry Building to Caltrain 4th & King (~2 km)",
			lat1: 37.7955, lon1: -122.3937,
			lat2: 37.7766, lon2: -122.3948,
			wantMeters: 2_100,
			tolerance:  50,
		},
		{
			name: "same point returns zero",
			lat1: 37.7955, lon1: -122.3937,
			lat2: 37.7955, lon2: -122.3937,
			wantMeters: 0,
			tolerance:  0.001,
		},
		{
			name: "equator quarter circumference",
			lat1: 0, lon1: 0,
			lat2: 0, lon2: 90,
			wantMeters: math.Pi / 2 * earthRadiusMeters,
			tolerance:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantMeters) > tt.tolerance {
				t.Errorf("Haversine() = %.1f m, want %.1f m (±%.1f)", got, tt.wantMeters, tt.tolerance)
			}
		})
	}
}

func TestHaversineMiles(t *testing.T) {
	got := HaversineMiles(0, 0, 0, 90)
	want := math.Pi / 2 * earthRadiusMeters / 1609.344
	if math.Abs(got-want) > 0.01 {
		t.Errorf("HaversineMiles() = %.3f, want %.3f", got, want)
	}
}
