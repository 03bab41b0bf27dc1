package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/semanticallynull/tripstats-backend/internal/geo"
)

var ErrNotFound = errors.New("not found")

// Repository runs the dashboard queries. Date-part expressions differ between Postgres
// and SQLite, so they are picked from the driver name.
type Repository struct {
	db     *sqlx.DB
	sqlite bool
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db:     db,
		sqlite: db.DriverName() == "sqlite3",
	}
}

// datePart renders an integer date-part expression over started_at.
func (r *Repository) datePart(part string) string {
	if r.sqlite {
		f := map[string]string{"hour": "%H", "dow": "%w", "month": "%m", "year": "%Y"}[part]
		return fmt.Sprintf("CAST(strftime('%s', started_at) AS INTEGER)", f)
	}
	return fmt.Sprintf("CAST(EXTRACT(%s FROM started_at) AS INTEGER)", strings.ToUpper(part))
}

func (r *Repository) dateString() string {
	if r.sqlite {
		return "strftime('%Y-%m-%d', started_at)"
	}
	return "TO_CHAR(started_at, 'YYYY-MM-DD')"
}

func (r *Repository) Overview(ctx context.Context) (Overview, error) {
	var o Overview
	err := r.db.GetContext(ctx, &o, overviewQuery)
	return o, err
}

const overviewQuery = `
SELECT
	COUNT(*) AS total_trips,
	(SELECT COUNT(*) FROM stations) AS unique_stations,
	MIN(started_at) AS earliest_trip,
	MAX(started_at) AS latest_trip,
	COALESCE(CAST(AVG(duration_seconds) AS DOUBLE PRECISION), 0) AS avg_duration_seconds,
	COALESCE(CAST(SUM(duration_seconds) AS DOUBLE PRECISION) / 3600.0, 0) AS total_hours,
	COALESCE(SUM(CASE WHEN member_casual = 'member' THEN 1 ELSE 0 END), 0) AS member_trips,
	COALESCE(SUM(CASE WHEN member_casual = 'casual' THEN 1 ELSE 0 END), 0) AS casual_trips,
	COALESCE(SUM(CASE WHEN rideable_type = 'electric_bike' THEN 1 ELSE 0 END), 0) AS electric_trips,
	COALESCE(SUM(CASE WHEN rideable_type = 'classic_bike' THEN 1 ELSE 0 END), 0) AS classic_trips,
	COALESCE(SUM(CASE WHEN start_station_id = end_station_id THEN 1 ELSE 0 END), 0) AS round_trips
FROM trips`

func (r *Repository) Stations(ctx context.Context, limit int) ([]StationActivity, error) {
	stations := []StationActivity{}
	err := r.db.SelectContext(ctx, &stations, r.db.Rebind(stationActivityQuery+`
ORDER BY total_trips DESC, s.station_id
LIMIT ?`), limit)
	return stations, err
}

func (r *Repository) Station(ctx context.Context, id string) (StationActivity, error) {
	var s StationActivity
	err := r.db.GetContext(ctx, &s, r.db.Rebind(stationActivityQuery+`
WHERE s.station_id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}

const stationActivityQuery = `
SELECT
	s.station_id,
	s.name,
	s.latitude,
	s.longitude,
	COALESCE(st.n, 0) AS trips_started,
	COALESCE(en.n, 0) AS trips_ended,
	COALESCE(st.n, 0) + COALESCE(en.n, 0) AS total_trips
FROM stations s
LEFT JOIN (
	SELECT start_station_id AS station_id, COUNT(*) AS n FROM trips
	WHERE start_station_id IS NOT NULL GROUP BY start_station_id
) st ON st.station_id = s.station_id
LEFT JOIN (
	SELECT end_station_id AS station_id, COUNT(*) AS n FROM trips
	WHERE end_station_id IS NOT NULL GROUP BY end_station_id
) en ON en.station_id = s.station_id`

// TopRoutes groups A->B and B->A together. Round trips are excluded.
func (r *Repository) TopRoutes(ctx context.Context, limit int) ([]Route, error) {
	routes := []Route{}
	err := r.db.SelectContext(ctx, &routes, r.db.Rebind(topRoutesQuery), limit)
	return routes, err
}

const topRoutesQuery = `
SELECT
	rt.station_a,
	sa.name AS station_a_name,
	sa.latitude AS station_a_lat,
	sa.longitude AS station_a_lng,
	rt.station_b,
	sb.name AS station_b_name,
	sb.latitude AS station_b_lat,
	sb.longitude AS station_b_lng,
	rt.total_trips,
	rt.member_trips,
	rt.casual_trips,
	rt.avg_duration_minutes
FROM (
	SELECT
		CASE WHEN start_station_id < end_station_id THEN start_station_id ELSE end_station_id END AS station_a,
		CASE WHEN start_station_id < end_station_id THEN end_station_id ELSE start_station_id END AS station_b,
		COUNT(*) AS total_trips,
		SUM(CASE WHEN member_casual = 'member' THEN 1 ELSE 0 END) AS member_trips,
		SUM(CASE WHEN member_casual = 'casual' THEN 1 ELSE 0 END) AS casual_trips,
		CAST(AVG(duration_seconds) AS DOUBLE PRECISION) / 60.0 AS avg_duration_minutes
	FROM trips
	WHERE start_station_id IS NOT NULL
		AND end_station_id IS NOT NULL
		AND start_station_id <> end_station_id
	GROUP BY 1, 2
) rt
JOIN stations sa ON sa.station_id = rt.station_a
JOIN stations sb ON sb.station_id = rt.station_b
ORDER BY rt.total_trips DESC, rt.station_a, rt.station_b
LIMIT ?`

func (r *Repository) RoundTrips(ctx context.Context, limit int) ([]RoundTripStation, error) {
	stations := []RoundTripStation{}
	err := r.db.SelectContext(ctx, &stations, r.db.Rebind(roundTripsQuery), limit)
	return stations, err
}

const roundTripsQuery = `
SELECT
	s.station_id,
	s.name,
	s.latitude,
	s.longitude,
	COUNT(*) AS round_trips,
	SUM(CASE WHEN t.member_casual = 'member' THEN 1 ELSE 0 END) AS member_trips,
	SUM(CASE WHEN t.member_casual = 'casual' THEN 1 ELSE 0 END) AS casual_trips,
	CAST(AVG(t.duration_seconds) AS DOUBLE PRECISION) / 60.0 AS avg_duration_minutes
FROM trips t
JOIN stations s ON t.start_station_id = s.station_id
WHERE t.start_station_id = t.end_station_id
GROUP BY s.station_id, s.name, s.latitude, s.longitude
ORDER BY round_trips DESC, s.station_id
LIMIT ?`

func (r *Repository) Hourly(ctx context.Context) ([]HourlyCount, error) {
	hours := []HourlyCount{}
	query := fmt.Sprintf(`
SELECT
	%s AS hour,
	COUNT(*) AS trips,
	CAST(AVG(duration_seconds) AS DOUBLE PRECISION) / 60.0 AS avg_duration_minutes
FROM trips
GROUP BY 1
ORDER BY 1`, r.datePart("hour"))
	err := r.db.SelectContext(ctx, &hours, query)
	return hours, err
}

func (r *Repository) Daily(ctx context.Context) ([]DailyCount, error) {
	days := []DailyCount{}
	query := fmt.Sprintf(`
SELECT
	%s AS day_index,
	COUNT(*) AS total_trips,
	SUM(CASE WHEN member_casual = 'member' THEN 1 ELSE 0 END) AS member_trips,
	SUM(CASE WHEN member_casual = 'casual' THEN 1 ELSE 0 END) AS casual_trips
FROM trips
GROUP BY 1
ORDER BY 1`, r.datePart("dow"))
	if err := r.db.SelectContext(ctx, &days, query); err != nil {
		return nil, err
	}
	for i := range days {
		days[i].DayName = dayName(days[i].DayIndex)
	}
	return days, nil
}

// Monthly returns per-month counts. year filters on the trip start year when non-zero.
func (r *Repository) Monthly(ctx context.Context, year int) ([]MonthlyCount, error) {
	months := []MonthlyCount{}
	where := ""
	var args []any
	if year != 0 {
		where = fmt.Sprintf("WHERE %s = ?", r.datePart("year"))
		args = append(args, year)
	}
	query := fmt.Sprintf(`
SELECT
	%s AS month_index,
	COUNT(*) AS total_trips,
	SUM(CASE WHEN member_casual = 'member' THEN 1 ELSE 0 END) AS member_trips,
	SUM(CASE WHEN member_casual = 'casual' THEN 1 ELSE 0 END) AS casual_trips,
	SUM(CASE WHEN rideable_type = 'classic_bike' THEN 1 ELSE 0 END) AS classic_trips,
	SUM(CASE WHEN rideable_type = 'electric_bike' THEN 1 ELSE 0 END) AS electric_trips
FROM trips
%s
GROUP BY 1
ORDER BY 1`, r.datePart("month"), where)
	if err := r.db.SelectContext(ctx, &months, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for i := range months {
		months[i].MonthName = monthName(months[i].MonthIndex)
	}
	return months, nil
}

func (r *Repository) BusiestDays(ctx context.Context, limit int) ([]DayCount, error) {
	days := []DayCount{}
	query := fmt.Sprintf(`
SELECT %s AS date, COUNT(*) AS trips
FROM trips
GROUP BY 1
ORDER BY trips DESC, 1
LIMIT ?`, r.dateString())
	err := r.db.SelectContext(ctx, &days, r.db.Rebind(query), limit)
	return days, err
}

func (r *Repository) DurationDistribution(ctx context.Context) ([]Bucket, error) {
	buckets := []Bucket{}
	err := r.db.SelectContext(ctx, &buckets, durationDistributionQuery)
	return buckets, err
}

const durationBucketExpr = `CASE
		WHEN duration_seconds < 300 THEN '0-5 min'
		WHEN duration_seconds < 600 THEN '5-10 min'
		WHEN duration_seconds < 1200 THEN '10-20 min'
		WHEN duration_seconds < 1800 THEN '20-30 min'
		ELSE '30+ min'
	END`

const durationDistributionQuery = `
SELECT
	` + durationBucketExpr + ` AS bucket,
	SUM(CASE WHEN member_casual = 'member' THEN 1 ELSE 0 END) AS member_trips,
	SUM(CASE WHEN member_casual = 'casual' THEN 1 ELSE 0 END) AS casual_trips
FROM trips
GROUP BY 1
ORDER BY MIN(duration_seconds)`

// distanceBuckets are upper bounds in miles. Trips at or beyond maxTripMiles are GPS noise.
var distanceBuckets = []struct {
	label string
	below float64
}{
	{"0-1 mi", 1},
	{"1-2 mi", 2},
	{"2-3 mi", 3},
	{"3-5 mi", 5},
	{"5+ mi", maxTripMiles},
}

const maxTripMiles = 31

// DistanceDistribution buckets straight-line trip distance by rider category. Trips without
// both coordinates, or starting at 0,0, are left out.
func (r *Repository) DistanceDistribution(ctx context.Context) ([]Bucket, error) {
	if r.sqlite {
		return r.distanceDistributionScan(ctx)
	}

	var cases strings.Builder
	for _, b := range distanceBuckets {
		fmt.Fprintf(&cases, " WHEN miles < %g THEN '%s'", b.below, b.label)
	}
	query := fmt.Sprintf(`
SELECT
	CASE%s END AS bucket,
	SUM(CASE WHEN member_casual = 'member' THEN 1 ELSE 0 END) AS member_trips,
	SUM(CASE WHEN member_casual = 'casual' THEN 1 ELSE 0 END) AS casual_trips
FROM (
	SELECT member_casual,
		3958.7613 * 2 * asin(sqrt(
			power(sin(radians(end_lat - start_lat) / 2), 2) +
			cos(radians(start_lat)) * cos(radians(end_lat)) * power(sin(radians(end_lng - start_lng) / 2), 2)
		)) AS miles
	FROM trips
	WHERE start_lat IS NOT NULL AND start_lng IS NOT NULL
		AND end_lat IS NOT NULL AND end_lng IS NOT NULL
		AND NOT (start_lat = 0 AND start_lng = 0)
) d
WHERE miles < %d
GROUP BY 1
ORDER BY MIN(miles)`, cases.String(), maxTripMiles)

	buckets := []Bucket{}
	err := r.db.SelectContext(ctx, &buckets, query)
	return buckets, err
}

type tripEnds struct {
	MemberCasual string  `db:"member_casual"`
	StartLat     float64 `db:"start_lat"`
	StartLng     float64 `db:"start_lng"`
	EndLat       float64 `db:"end_lat"`
	EndLng       float64 `db:"end_lng"`
}

// distanceDistributionScan computes the histogram in Go for engines without trig functions.
func (r *Repository) distanceDistributionScan(ctx context.Context) ([]Bucket, error) {
	rows, err := r.db.QueryxContext(ctx, distanceScanQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]Bucket, len(distanceBuckets))
	for i, b := range distanceBuckets {
		counts[i].Label = b.label
	}

	var t tripEnds
	for rows.Next() {
		if err := rows.StructScan(&t); err != nil {
			return nil, err
		}
		miles := geo.HaversineMiles(t.StartLat, t.StartLng, t.EndLat, t.EndLng)
		for i, b := range distanceBuckets {
			if miles < b.below {
				switch t.MemberCasual {
				case "member":
					counts[i].MemberTrips++
				case "casual":
					counts[i].CasualTrips++
				}
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buckets := []Bucket{}
	for _, c := range counts {
		if c.MemberTrips > 0 || c.CasualTrips > 0 {
			buckets = append(buckets, c)
		}
	}
	return buckets, nil
}

const distanceScanQuery = `
SELECT member_casual, start_lat, start_lng, end_lat, end_lng
FROM trips
WHERE start_lat IS NOT NULL AND start_lng IS NOT NULL
	AND end_lat IS NOT NULL AND end_lng IS NOT NULL
	AND NOT (start_lat = 0 AND start_lng = 0)`
