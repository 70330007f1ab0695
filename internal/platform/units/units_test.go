package units

import (
	"math"
	"math/rand"
	"testing"
)

func TestMillimeterFeetRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := []float64{0, 1, -1, 304.8, 5000, 1e-6, 123456789.123, -98765.4321}
	for i := 0; i < 1000; i++ {
		values = append(values, (rng.Float64()-0.5)*1e7)
	}
	for _, mm := range values {
		got := FeetToMM(MMToFeet(mm))
		if !closeEnough(got, mm, 1e-9) {
			t.Fatalf("round trip %v -> %v", mm, got)
		}
	}
}

func TestKnownConversions(t *testing.T) {
	if got := MMToFeet(304.8); got != 1 {
		t.Fatalf("304.8mm = %v ft, want 1", got)
	}
	if got := FeetToMM(10); !closeEnough(got, 3048, 1e-12) {
		t.Fatalf("10ft = %v mm, want 3048", got)
	}
	if got := SquareFeetToSquareMeters(1); !closeEnough(got, 0.09290304, 1e-12) {
		t.Fatalf("1 ft² = %v m²", got)
	}
	if got := RadiansToDegrees(DegreesToRadians(90)); !closeEnough(got, 90, 1e-12) {
		t.Fatalf("90deg round trip = %v", got)
	}
	if got := Round(1.23456, 2); got != 1.23 {
		t.Fatalf("round = %v", got)
	}
}

func closeEnough(got, want, rel float64) bool {
	if want == 0 {
		return math.Abs(got) <= rel
	}
	return math.Abs(got-want) <= rel*math.Abs(want)
}
