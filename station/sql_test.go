package station_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/semanticallynull/tripstats-backend/internal/storage/storagetest"
	"github.com/semanticallynull/tripstats-backend/station"
)

func TestRepository_Upsert(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	repo := station.NewRepository(db.DB)

	lat, lng := 37.79, -122.39
	err := repo.Upsert(ctx, []station.Station{
		station.New("A", "Alpha", &lat, &lng),
		station.New("B", "", nil, nil),
	})
	if err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	err = repo.Upsert(ctx, []station.Station{station.New("A", "Alpha Renamed", nil, nil)})
	if err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}

	stations, err := repo.GetStations(ctx)
	if err != nil {
		t.Fatalf("GetStations() error: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("GetStations() len = %d, want 2", len(stations))
	}
	if stations[0].ID != "A" || stations[0].Name != "Alpha Renamed" || stations[0].Latitude != nil {
		t.Errorf("stations[0] = %+v", stations[0])
	}
	if stations[1].Name != station.PlaceholderName {
		t.Errorf("stations[1].Name = %q", stations[1].Name)
	}

	got, err := repo.GetStation(ctx, "B")
	if err != nil || got.ID != "B" {
		t.Errorf("GetStation(B) = %+v, %v", got, err)
	}
	if _, err := repo.GetStation(ctx, "Z"); !errors.Is(err, station.ErrNotFound) {
		t.Errorf("GetStation(Z) error = %v, want ErrNotFound", err)
	}
}

func TestRepository_UpsertLargeBatch(t *testing.T) {
	db := storagetest.Open(t)
	ctx := context.Background()
	repo := station.NewRepository(db.DB)

	// more rows than fit in a single statement
	stations := make([]station.Station, 9000)
	for i := range stations {
		stations[i] = station.New(fmt.Sprintf("S%05d", i), "Station", nil, nil)
	}
	if err := repo.Upsert(ctx, stations); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != len(stations) {
		t.Errorf("Count() = %d, %v, want %d", n, err, len(stations))
	}
}
