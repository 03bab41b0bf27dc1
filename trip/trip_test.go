package trip

import (
	"testing"
)

func TestParseRideableType(t *testing.T) {
	tests := []struct {
		in   string
		want RideableType
	}{
		{"classic_bike", Classic},
		{"docked_bike", Classic},
		{"electric_bike", Electric},
		{"electric", Electric},
		{"", UnknownRideable},
		{"scooter", UnknownRideable},
	}
	for _, tt := range tests {
		if got := ParseRideableType(tt.in); got != tt.want {
			t.Errorf("ParseRideableType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRideableTypeJSON(t *testing.T) {
	b, err := Electric.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"electric_bike"` {
		t.Errorf("MarshalJSON() = %s", b)
	}
}

func TestRideableTypeScan(t *testing.T) {
	var rt RideableType
	if err := rt.Scan([]byte("classic_bike")); err != nil || rt != Classic {
		t.Errorf("Scan([]byte) = %v, %v", rt, err)
	}
	if err := rt.Scan("electric_bike"); err != nil || rt != Electric {
		t.Errorf("Scan(string) = %v, %v", rt, err)
	}
	if err := rt.Scan(42); err == nil {
		t.Error("Scan(int) succeeded")
	}
	v, _ := Classic.Value()
	if v != "classic_bike" {
		t.Errorf("Value() = %v", v)
	}
}

func TestRiderCategory(t *testing.T) {
	if ParseRiderCategory("member") != Member || ParseRiderCategory("casual") != Casual {
		t.Error("known categories did not parse")
	}
	if ParseRiderCategory("staff") != UnknownRider {
		t.Error("unexpected category parsed")
	}

	var c RiderCategory
	if err := c.Scan("casual"); err != nil || c != Casual {
		t.Errorf("Scan = %v, %v", c, err)
	}
	if v, _ := UnknownRider.Value(); v != "unknown" {
		t.Errorf("Value() = %v", v)
	}
}

func TestRoutePair(t *testing.T) {
	a, b := "B", "A"
	tr := Trip{StartStationID: &a, EndStationID: &b}

	x, y, ok := tr.RoutePair()
	if !ok || x != "A" || y != "B" {
		t.Errorf("RoutePair() = %q, %q, %v", x, y, ok)
	}
	if tr.RoundTrip() {
		t.Error("RoundTrip() = true for A->B")
	}

	tr.EndStationID = &a
	if !tr.RoundTrip() {
		t.Error("RoundTrip() = false for B->B")
	}

	tr.EndStationID = nil
	if _, _, ok := tr.RoutePair(); ok {
		t.Error("RoutePair() ok with a missing end")
	}
	if tr.RoundTrip() {
		t.Error("RoundTrip() = true with a missing end")
	}
}
