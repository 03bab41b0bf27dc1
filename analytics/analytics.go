// Package analytics answers the read-only aggregate questions the dashboard asks of the
// stations and trips tables.
package analytics

import "time"

type Overview struct {
	TotalTrips         int     `db:"total_trips" json:"totalTrips"`
	UniqueStations     int     `db:"unique_stations" json:"uniqueStations"`
	EarliestTrip       *string `db:"earliest_trip" json:"earliestTrip"`
	LatestTrip         *string `db:"latest_trip" json:"latestTrip"`
	AvgDurationSeconds float64 `db:"avg_duration_seconds" json:"avgDurationSeconds"`
	TotalHours         float64 `db:"total_hours" json:"totalHours"`
	MemberTrips        int     `db:"member_trips" json:"memberTrips"`
	CasualTrips        int     `db:"casual_trips" json:"casualTrips"`
	ElectricTrips      int     `db:"electric_trips" json:"electricTrips"`
	ClassicTrips       int     `db:"classic_trips" json:"classicTrips"`
	RoundTrips         int     `db:"round_trips" json:"roundTrips"`
}

type StationActivity struct {
	StationID    string   `db:"station_id" json:"stationId"`
	Name         string   `db:"name" json:"name"`
	Latitude     *float64 `db:"latitude" json:"latitude"`
	Longitude    *float64 `db:"longitude" json:"longitude"`
	TripsStarted int      `db:"trips_started" json:"tripsStarted"`
	TripsEnded   int      `db:"trips_ended" json:"tripsEnded"`
	TotalTrips   int      `db:"total_trips" json:"totalTrips"`
}

// Route aggregates trips between two stations regardless of direction. StationA is the
// lexicographically smaller id.
type Route struct {
	StationA           string   `db:"station_a" json:"stationA"`
	StationAName       string   `db:"station_a_name" json:"stationAName"`
	StationALat        *float64 `db:"station_a_lat" json:"stationALat"`
	StationALng        *float64 `db:"station_a_lng" json:"stationALng"`
	StationB           string   `db:"station_b" json:"stationB"`
	StationBName       string   `db:"station_b_name" json:"stationBName"`
	StationBLat        *float64 `db:"station_b_lat" json:"stationBLat"`
	StationBLng        *float64 `db:"station_b_lng" json:"stationBLng"`
	TotalTrips         int      `db:"total_trips" json:"totalTrips"`
	MemberTrips        int      `db:"member_trips" json:"memberTrips"`
	CasualTrips        int      `db:"casual_trips" json:"casualTrips"`
	AvgDurationMinutes float64  `db:"avg_duration_minutes" json:"avgDurationMinutes"`
}

type RoundTripStation struct {
	StationID          string   `db:"station_id" json:"stationId"`
	Name               string   `db:"name" json:"name"`
	Latitude           *float64 `db:"latitude" json:"latitude"`
	Longitude          *float64 `db:"longitude" json:"longitude"`
	RoundTrips         int      `db:"round_trips" json:"roundTrips"`
	MemberTrips        int      `db:"member_trips" json:"memberTrips"`
	CasualTrips        int      `db:"casual_trips" json:"casualTrips"`
	AvgDurationMinutes float64  `db:"avg_duration_minutes" json:"avgDurationMinutes"`
}

type HourlyCount struct {
	Hour               int     `db:"hour" json:"hour"`
	Trips              int     `db:"trips" json:"trips"`
	AvgDurationMinutes float64 `db:"avg_duration_minutes" json:"avgDurationMinutes"`
}

type DailyCount struct {
	DayIndex    int    `db:"day_index" json:"dayIndex"`
	DayName     string `db:"-" json:"dayName"`
	TotalTrips  int    `db:"total_trips" json:"totalTrips"`
	MemberTrips int    `db:"member_trips" json:"memberTrips"`
	CasualTrips int    `db:"casual_trips" json:"casualTrips"`
}

type MonthlyCount struct {
	MonthIndex    int    `db:"month_index" json:"monthIndex"`
	MonthName     string `db:"-" json:"monthName"`
	TotalTrips    int    `db:"total_trips" json:"totalTrips"`
	MemberTrips   int    `db:"member_trips" json:"memberTrips"`
	CasualTrips   int    `db:"casual_trips" json:"casualTrips"`
	ClassicTrips  int    `db:"classic_trips" json:"classicTrips"`
	ElectricTrips int    `db:"electric_trips" json:"electricTrips"`
}

type DayCount struct {
	Date  string `db:"date" json:"date"`
	Trips int    `db:"trips" json:"trips"`
}

// Bucket is one bar of a duration or distance histogram split by rider category.
type Bucket struct {
	Label       string `db:"bucket" json:"bucket"`
	MemberTrips int    `db:"member_trips" json:"memberTrips"`
	CasualTrips int    `db:"casual_trips" json:"casualTrips"`
}

func dayName(i int) string {
	if i < 0 || i > 6 {
		return ""
	}
	return time.Weekday(i).String()
}

func monthName(i int) string {
	if i < 1 || i > 12 {
		return ""
	}
	return time.Month(i).String()[:3]
}
