// Package record turns raw trip-extract CSV rows into typed trips and station candidates.
package record

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/semanticallynull/tripstats-backend/station"
	"github.com/semanticallynull/tripstats-backend/trip"
)

// Row is one line of a trip extract, exactly as it appears in the file.
type Row struct {
	RideID           string `csv:"ride_id"`
	RideableType     string `csv:"rideable_type"`
	StartedAt        string `csv:"started_at"`
	EndedAt          string `csv:"ended_at"`
	StartStationName string `csv:"start_station_name"`
	StartStationID   string `csv:"start_station_id"`
	EndStationName   string `csv:"end_station_name"`
	EndStationID     string `csv:"end_station_id"`
	StartLat         string `csv:"start_lat"`
	StartLng         string `csv:"start_lng"`
	EndLat           string `csv:"end_lat"`
	EndLng           string `csv:"end_lng"`
	MemberCasual     string `csv:"member_casual"`
}

// Columns lists the header names a trip extract must carry.
var Columns = []string{
	"ride_id", "rideable_type", "started_at", "ended_at",
	"start_station_name", "start_station_id", "end_station_name", "end_station_id",
	"start_lat", "start_lng", "end_lat", "end_lng", "member_casual",
}

// Record is a normalized row: the trip plus the stations it references.
// Start and End are nil when the row has no usable station id on that side.
type Record struct {
	Trip  trip.Trip
	Start *station.Station
	End   *station.Station
}

// Stations returns the non-nil station candidates, start side first.
func (r Record) Stations() []station.Station {
	var out []station.Station
	if r.Start != nil {
		out = append(out, *r.Start)
	}
	if r.End != nil {
		out = append(out, *r.End)
	}
	return out
}

// Normalize validates a row. It returns a *RejectionError when the ride id or either
// timestamp is missing or unparseable; everything else degrades to null/unknown values.
func Normalize(row Row, loc *time.Location) (Record, error) {
	rideID := strings.TrimSpace(row.RideID)
	if rideID == "" {
		return Record{}, reject(MissingRideID, rideID)
	}

	rawStart := strings.TrimSpace(row.StartedAt)
	if rawStart == "" {
		return Record{}, reject(MissingStartedAt, rideID)
	}
	rawEnd := strings.TrimSpace(row.EndedAt)
	if rawEnd == "" {
		return Record{}, reject(MissingEndedAt, rideID)
	}
	startedAt, err := ParseTime(rawStart, loc)
	if err != nil {
		return Record{}, reject(InvalidStartedAt, rideID)
	}
	endedAt, err := ParseTime(rawEnd, loc)
	if err != nil {
		return Record{}, reject(InvalidEndedAt, rideID)
	}

	t := trip.Trip{
		RideID:          rideID,
		RideableType:    trip.ParseRideableType(strings.ToLower(strings.TrimSpace(row.RideableType))),
		StartedAt:       startedAt,
		EndedAt:         endedAt,
		DurationSeconds: Duration(startedAt, endedAt),
		StartStationID:  NormalizeStationID(row.StartStationID),
		EndStationID:    NormalizeStationID(row.EndStationID),
		StartLat:        ParseCoordinate(row.StartLat),
		StartLng:        ParseCoordinate(row.StartLng),
		EndLat:          ParseCoordinate(row.EndLat),
		EndLng:          ParseCoordinate(row.EndLng),
		MemberCasual:    trip.ParseRiderCategory(strings.ToLower(strings.TrimSpace(row.MemberCasual))),
	}

	rec := Record{Trip: t}
	if t.StartStationID != nil {
		s := station.New(*t.StartStationID, strings.TrimSpace(row.StartStationName), t.StartLat, t.StartLng)
		rec.Start = &s
	}
	if t.EndStationID != nil {
		s := station.New(*t.EndStationID, strings.TrimSpace(row.EndStationName), t.EndLat, t.EndLng)
		rec.End = &s
	}
	return rec, nil
}

// NormalizeStationID trims s and returns nil for empty values and the literal "null".
func NormalizeStationID(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// ParseCoordinate returns nil for empty or unparseable input. An explicit 0 is kept.
func ParseCoordinate(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Duration is end-start in whole seconds, or 0 unless 0 < d < trip.MaxDurationSeconds.
func Duration(start, end time.Time) int {
	d := int64(end.Sub(start) / time.Second)
	if d <= 0 || d >= trip.MaxDurationSeconds {
		return 0
	}
	return int(d)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

var errTimeFormat = errors.New("unrecognized timestamp")

// ParseTime reads the timestamp formats found in operator extracts. Values without a
// zone are interpreted in loc (UTC when nil).
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errTimeFormat
}
