package geo

import (
	"errors"
	"math"
	"testing"
)

func TestParsePoint(t *testing.T) {
	cases := []struct {
		in      string
		want    Point
		wantErr bool
	}{
		{"12.9716,77.5946", Point{12.9716, 77.5946}, false},
		{" -90 , 180 ", Point{-90, 180}, false},
		{"90,-180", Point{90, -180}, false},
		{"90.0001,0", Point{}, true},
		{"0,180.5", Point{}, true},
		{"-91,0", Point{}, true},
		{"12.97", Point{}, true},
		{"a,b", Point{}, true},
		{"12.97,77.59,1", Point{}, true},
		{"", Point{}, true},
	}

	for _, tc := range cases {
		got, err := ParsePoint(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidPoint) {
				t.Fatalf("ParsePoint(%q): expected ErrInvalidPoint, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePoint(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePoint(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	// Bengaluru city center to Bengaluru airport, about 28 km great-circle.
	city := Point{12.9716, 77.5946}
	airport := Point{13.1989, 77.7068}

	d := DistanceKm(city, airport)
	if d < 27 || d > 30 {
		t.Fatalf("unexpected distance %.2f km", d)
	}

	if got := DistanceKm(city, city); got != 0 {
		t.Fatalf("distance to self = %f, want 0", got)
	}

	if a, b := DistanceKm(city, airport), DistanceKm(airport, city); math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestValidRadius(t *testing.T) {
	for _, band := range RadiusBands {
		if !ValidRadius(band) {
			t.Fatalf("band %d rejected", band)
		}
	}
	for _, meters := range []int{0, -500, 750, 3000, 100001} {
		if ValidRadius(meters) {
			t.Fatalf("radius %d accepted", meters)
		}
	}
}
