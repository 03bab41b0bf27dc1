package station

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/semanticallynull/tripstats-backend/internal/storage"
)

var ErrNotFound = errors.New("station not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetStations(ctx context.Context) ([]Station, error) {
	var stations []Station
	err := r.db.SelectContext(ctx, &stations, getStations)
	return stations, err
}

const getStations = `SELECT station_id, name, latitude, longitude FROM stations ORDER BY station_id`

func (r *Repository) GetStation(ctx context.Context, id string) (Station, error) {
	var station Station
	err := r.db.GetContext(ctx, &station, r.db.Rebind(getStation), id)
	if errors.Is(err, sql.ErrNoRows) {
		return station, ErrNotFound
	}
	return station, err
}

const getStation = `SELECT station_id, name, latitude, longitude FROM stations WHERE station_id = ?`

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, countStations)
	return n, err
}

const countStations = `SELECT count(*) FROM stations`

// Upsert writes the batch in one transaction. Existing ids get the incoming name and
// coordinates. The batch must not repeat an id.
func (r *Repository) Upsert(ctx context.Context, stations []Station) error {
	if len(stations) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	chunk := storage.RowsPerStatement(stationColumns)
	for start := 0; start < len(stations); start += chunk {
		end := min(start+chunk, len(stations))
		part := stations[start:end]

		args := make([]any, 0, len(part)*stationColumns)
		for _, s := range part {
			args = append(args, s.ID, s.Name, s.Latitude, s.Longitude)
		}
		query := tx.Rebind(upsertStationsInsert + storage.Placeholders(len(part), stationColumns) + upsertStationsConflict)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert stations %s..%s: %w", part[0].ID, part[len(part)-1].ID, err)
		}
	}

	return tx.Commit()
}

const stationColumns = 4

const upsertStationsInsert = `INSERT INTO stations (station_id, name, latitude, longitude) VALUES `

const upsertStationsConflict = `
ON CONFLICT (station_id) DO UPDATE SET
	name = excluded.name,
	latitude = excluded.latitude,
	longitude = excluded.longitude,
	updated_at = CURRENT_TIMESTAMP`
