package trip

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/semanticallynull/tripstats-backend/internal/storage"
)

var ErrNotFound = errors.New("trip not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetTrip(ctx context.Context, rideID string) (Trip, error) {
	var t Trip
	err := r.db.GetContext(ctx, &t, r.db.Rebind(getTrip), rideID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

const getTrip = `
SELECT ride_id, rideable_type, started_at, ended_at, duration_seconds,
       start_station_id, end_station_id, start_lat, start_lng, end_lat, end_lng, member_casual
FROM trips WHERE ride_id = ?`

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, countTrips)
	return n, err
}

const countTrips = `SELECT count(*) FROM trips`

// Upsert writes the batch in one transaction, overwriting every column of an existing ride.
// The batch must not repeat a ride id and its station ids must already exist.
func (r *Repository) Upsert(ctx context.Context, trips []Trip) error {
	if len(trips) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	chunk := storage.RowsPerStatement(tripColumns)
	for start := 0; start < len(trips); start += chunk {
		end := min(start+chunk, len(trips))
		part := trips[start:end]

		args := make([]any, 0, len(part)*tripColumns)
		for _, t := range part {
			args = append(args,
				t.RideID, t.RideableType, t.StartedAt.UTC(), t.EndedAt.UTC(), t.DurationSeconds,
				t.StartStationID, t.EndStationID,
				t.StartLat, t.StartLng, t.EndLat, t.EndLng,
				t.MemberCasual,
			)
		}
		query := tx.Rebind(upsertTripsInsert + storage.Placeholders(len(part), tripColumns) + upsertTripsConflict)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert trips %s..%s: %w", part[0].RideID, part[len(part)-1].RideID, err)
		}
	}

	return tx.Commit()
}

const tripColumns = 12

const upsertTripsInsert = `
INSERT INTO trips (ride_id, rideable_type, started_at, ended_at, duration_seconds,
                   start_station_id, end_station_id, start_lat, start_lng, end_lat, end_lng, member_casual)
VALUES `

const upsertTripsConflict = `
ON CONFLICT (ride_id) DO UPDATE SET
	rideable_type = excluded.rideable_type,
	started_at = excluded.started_at,
	ended_at = excluded.ended_at,
	duration_seconds = excluded.duration_seconds,
	start_station_id = excluded.start_station_id,
	end_station_id = excluded.end_station_id,
	start_lat = excluded.start_lat,
	start_lng = excluded.start_lng,
	end_lat = excluded.end_lat,
	end_lng = excluded.end_lng,
	member_casual = excluded.member_casual`
