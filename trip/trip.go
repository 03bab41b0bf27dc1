// Package trip holds individual bike-share rides as loaded from the operator's monthly extracts.
package trip

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// MaxDurationSeconds is one day. Durations outside (0, MaxDurationSeconds) are stored as 0.
const MaxDurationSeconds = 86400

type RideableType int

const (
	UnknownRideable RideableType = iota
	Classic
	Electric
)

func ParseRideableType(s string) RideableType {
	switch s {
	case "classic_bike", "classic", "docked_bike":
		return Classic
	case "electric_bike", "electric":
		return Electric
	}
	return UnknownRideable
}

func (t RideableType) String() string {
	switch t {
	case Classic:
		return "classic_bike"
	case Electric:
		return "electric_bike"
	}
	return "unknown"
}

func (t RideableType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t RideableType) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *RideableType) Scan(i any) error {
	switch v := i.(type) {
	case string:
		*t = ParseRideableType(v)
		return nil
	case []byte:
		*t = ParseRideableType(string(v))
		return nil
	}
	return fmt.Errorf("invalid rideable type scan %T", i)
}

type RiderCategory int

const (
	UnknownRider RiderCategory = iota
	Member
	Casual
)

func ParseRiderCategory(s string) RiderCategory {
	switch s {
	case "member":
		return Member
	case "casual":
		return Casual
	}
	return UnknownRider
}

func (c RiderCategory) String() string {
	return [...]string{"unknown", "member", "casual"}[c]
}

func (c RiderCategory) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c RiderCategory) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *RiderCategory) Scan(i any) error {
	switch v := i.(type) {
	case string:
		*c = ParseRiderCategory(v)
		return nil
	case []byte:
		*c = ParseRiderCategory(string(v))
		return nil
	}
	return fmt.Errorf("invalid rider category scan %T", i)
}

// Trip is one ride. Station references are nil when the source had no usable id.
type Trip struct {
	RideID          string        `db:"ride_id"`
	RideableType    RideableType  `db:"rideable_type"`
	StartedAt       time.Time     `db:"started_at"`
	EndedAt         time.Time     `db:"ended_at"`
	DurationSeconds int           `db:"duration_seconds"`
	StartStationID  *string       `db:"start_station_id"`
	EndStationID    *string       `db:"end_station_id"`
	StartLat        *float64      `db:"start_lat"`
	StartLng        *float64      `db:"start_lng"`
	EndLat          *float64      `db:"end_lat"`
	EndLng          *float64      `db:"end_lng"`
	MemberCasual    RiderCategory `db:"member_casual"`
}

// RoundTrip reports whether the ride started and ended at the same station.
func (t Trip) RoundTrip() bool {
	return t.StartStationID != nil && t.EndStationID != nil && *t.StartStationID == *t.EndStationID
}

// RoutePair returns both station ids ordered so that A->B and B->A name the same route.
// ok is false unless both ends are known.
func (t Trip) RoutePair() (a, b string, ok bool) {
	if t.StartStationID == nil || t.EndStationID == nil {
		return "", "", false
	}
	a, b = *t.StartStationID, *t.EndStationID
	if b < a {
		a, b = b, a
	}
	return a, b, true
}
