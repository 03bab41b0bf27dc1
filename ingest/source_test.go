package ingest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/semanticallynull/tripstats-backend/record"
)

const header = "ride_id,rideable_type,started_at,ended_at,start_station_name,start_station_id," +
	"end_station_name,end_station_id,start_lat,start_lng,end_lat,end_lng,member_casual"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "202402-tripdata.csv", header+"\n")
	writeFile(t, dir, "202401-tripdata.CSV", header+"\n")
	writeFile(t, dir, "notes.txt", "ignore me")
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := DiscoverFiles(dir)
	if err != nil {
		t.Fatalf("DiscoverFiles() error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("DiscoverFiles() = %v, want 2 files", files)
	}
	if filepath.Base(files[0]) != "202401-tripdata.CSV" || filepath.Base(files[1]) != "202402-tripdata.csv" {
		t.Errorf("DiscoverFiles() order = %v", files)
	}
}

func TestDiscoverFiles_Errors(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrInputDirNotFound) {
		t.Errorf("missing dir error = %v, want ErrInputDirNotFound", err)
	}

	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "")
	_, err = DiscoverFiles(dir)
	if !errors.Is(err, ErrNoInputFiles) {
		t.Errorf("empty dir error = %v, want ErrNoInputFiles", err)
	}
}

func TestSource_ReadsRows(t *testing.T) {
	content := "\ufeff" + header + "\n" +
		`R1,classic_bike,2024-01-01 08:00:00,2024-01-01 08:10:00,"Market St, 1st",A,,B,37.1,-122.1,37.2,-122.2,member` + "\n" +
		"R2,electric_bike,2024-01-01 09:00:00,2024-01-01 09:10:00,,,,,,,,,casual\n"
	path := writeFile(t, t.TempDir(), "trips.csv", content)

	src, err := openSource(path)
	if err != nil {
		t.Fatalf("openSource() error: %v", err)
	}
	defer src.Close()

	var row record.Row
	if err := src.Next(&row); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if row.RideID != "R1" || row.StartStationName != "Market St, 1st" || row.EndStationID != "B" {
		t.Errorf("row 1 = %+v", row)
	}
	if err := src.Next(&row); err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if row.RideID != "R2" || row.StartStationID != "" || row.StartStationName != "" {
		t.Errorf("row 2 = %+v", row)
	}
	if err := src.Next(&row); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestSource_MalformedRow(t *testing.T) {
	content := header + "\n" +
		"R1,classic_bike,2024-01-01 08:00:00\n" +
		"R2,electric_bike,2024-01-01 09:00:00,2024-01-01 09:10:00,,,,,,,,,casual\n"
	path := writeFile(t, t.TempDir(), "trips.csv", content)

	src, err := openSource(path)
	if err != nil {
		t.Fatalf("openSource() error: %v", err)
	}
	defer src.Close()

	var row record.Row
	err = src.Next(&row)
	if !errors.Is(err, errMalformedRow) {
		t.Fatalf("Next() error = %v, want errMalformedRow", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the line", err)
	}
	if err := src.Next(&row); err != nil || row.RideID != "R2" {
		t.Errorf("Next() after malformed = %+v, %v", row, err)
	}
}

func TestSource_MissingColumns(t *testing.T) {
	path := writeFile(t, t.TempDir(), "trips.csv", "ride_id,started_at,ended_at\nR1,x,y\n")

	_, err := openSource(path)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("openSource() error = %v, want ErrMissingColumns", err)
	}
	if !strings.Contains(err.Error(), "member_casual") {
		t.Errorf("error %q does not list the missing columns", err)
	}
}

func TestSource_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "trips.csv", "")
	if _, err := openSource(path); err == nil {
		t.Error("openSource() on an empty file succeeded")
	}
}
