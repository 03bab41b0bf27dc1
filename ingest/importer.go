// Package ingest loads trip extracts into the stations and trips tables.
//
// An import runs in two phases over the same list of files. The first pass collects every
// station referenced by a valid row and upserts them; the second pass upserts the trips.
// Trips carry foreign keys to stations, so no trip batch is written until the station
// phase has flushed its last batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/semanticallynull/tripstats-backend/record"
	"github.com/semanticallynull/tripstats-backend/station"
	"github.com/semanticallynull/tripstats-backend/trip"
)

const DefaultBatchSize = 1000

type StationWriter interface {
	Upsert(ctx context.Context, stations []station.Station) error
}

type TripWriter interface {
	Upsert(ctx context.Context, trips []trip.Trip) error
}

// Importer drives one import run. It is not safe for concurrent use and runs once.
type Importer struct {
	stations StationWriter
	trips    TripWriter

	batchSize int
	location  *time.Location
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *Metrics

	phase Phase
}

type Option func(*Importer)

func WithBatchSize(n int) Option {
	return func(imp *Importer) {
		if n > 0 {
			imp.batchSize = n
		}
	}
}

// WithLocation sets the zone used for timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(imp *Importer) {
		if loc != nil {
			imp.location = loc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(imp *Importer) {
		if logger != nil {
			imp.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(imp *Importer) {
		if m != nil {
			imp.metrics = m
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(imp *Importer) {
		if t != nil {
			imp.tracer = t
		}
	}
}

func New(stations StationWriter, trips TripWriter, opts ...Option) *Importer {
	imp := &Importer{
		stations:  stations,
		trips:     trips,
		batchSize: DefaultBatchSize,
		location:  time.UTC,
		logger:    slog.Default(),
		tracer:    otel.Tracer("tripimport"),
		phase:     Start,
	}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.metrics == nil {
		imp.metrics = NewMetrics(prometheus.NewRegistry())
	}
	return imp
}

// Phase returns where the run currently is.
func (imp *Importer) Phase() Phase {
	return imp.phase
}

func (imp *Importer) transition(next Phase) error {
	if !imp.phase.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, imp.phase, next)
	}
	imp.logger.Debug("import phase", "from", imp.phase.String(), "to", next.String())
	imp.phase = next
	return nil
}

// Run imports every CSV file in dir. The returned summary is never nil.
func (imp *Importer) Run(ctx context.Context, dir string) (*Summary, error) {
	files, err := DiscoverFiles(dir)
	if err != nil {
		s := newSummary(nil)
		err = imp.fail(s, err)
		s.Phase = imp.phase
		return s, err
	}
	return imp.RunFiles(ctx, files)
}

// RunFiles imports the given files in order. The returned summary is never nil.
func (imp *Importer) RunFiles(ctx context.Context, files []string) (*Summary, error) {
	start := time.Now()
	s := newSummary(files)
	defer func() {
		s.total()
		s.Phase = imp.phase
		s.Elapsed = time.Since(start)
	}()

	if len(files) == 0 {
		return s, imp.fail(s, ErrNoInputFiles)
	}

	ctx, span := imp.tracer.Start(ctx, "import",
		trace.WithAttributes(
			attribute.String("run_id", s.RunID.String()),
			attribute.Int("files", len(files)),
		))
	defer span.End()

	logger := imp.logger.With("run_id", s.RunID.String())
	logger.Info("import started", "files", len(files), "batch_size", imp.batchSize)
	for _, f := range files {
		logger.Info("input file", "file", filepath.Base(f))
	}

	if err := imp.transition(SyncingStations); err != nil {
		return s, imp.fail(s, err)
	}
	if err := imp.syncStations(ctx, logger, files, s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "station phase failed")
		return s, imp.fail(s, err)
	}

	if err := imp.transition(ImportingTrips); err != nil {
		return s, imp.fail(s, err)
	}
	if err := imp.importTrips(ctx, logger, files, s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "trip phase failed")
		return s, imp.fail(s, err)
	}

	if err := imp.transition(Complete); err != nil {
		return s, imp.fail(s, err)
	}
	imp.metrics.lastSuccess.SetToCurrentTime()
	logger.Info("import complete",
		"station_batches", s.StationBatches, "trip_batches", s.TripBatches,
		"duration", time.Since(start).Round(time.Millisecond))
	return s, nil
}

func (imp *Importer) fail(s *Summary, err error) error {
	if imp.phase.CanTransition(Failed) {
		imp.phase = Failed
	}
	s.Err = err
	imp.logger.Error("import failed", "phase", imp.phase.String(), "error", err)
	return err
}

// pending remembers which file a queued record came from so that per-file counters
// are only credited once the batch commits.
type pending[T any] struct {
	value T
	file  int
}

func (imp *Importer) syncStations(ctx context.Context, logger *slog.Logger, files []string, s *Summary) error {
	ctx, span := imp.tracer.Start(ctx, "sync stations")
	defer span.End()

	set := NewStationSet()
	current := 0

	b := NewBatcher(imp.batchSize,
		func(p pending[station.Station]) string { return p.value.ID },
		func(ctx context.Context, n int, batch []pending[station.Station]) error {
			values := make([]station.Station, len(batch))
			for i, p := range batch {
				values[i] = p.value
			}
			if err := imp.flush(ctx, Stations, n, len(values), func(ctx context.Context) error {
				return imp.stations.Upsert(ctx, values)
			}); err != nil {
				return &BatchError{Kind: Stations, File: files[current], Batch: n, Count: len(values), Err: err}
			}
			for _, p := range batch {
				s.Files[p.file].Stations.Written++
			}
			imp.metrics.rows.WithLabelValues(string(Stations), resultWritten).Add(float64(len(values)))
			logger.Info("flushed station batch", "batch", n, "count", len(values), "file", filepath.Base(files[current]))
			return nil
		},
	)

	for i, path := range files {
		current = i
		fs := &s.Files[i].Stations
		err := imp.scan(ctx, path, func(rec record.Record) error {
			for _, st := range rec.Stations() {
				fs.Seen++
				if !set.Add(st) {
					fs.Duplicates++
					imp.metrics.rows.WithLabelValues(string(Stations), resultDuplicate).Inc()
					continue
				}
				if _, err := b.Add(ctx, pending[station.Station]{value: st, file: i}); err != nil {
					return err
				}
			}
			return nil
		}, nil)
		if err != nil {
			return err
		}
		logger.Info("scanned stations", "file", filepath.Base(path), "references", fs.Seen, "unique_total", set.Len())
	}

	err := b.Flush(ctx)
	s.StationBatches = b.Batches()
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("stations", set.Len()), attribute.Int("batches", b.Batches()))
	logger.Info("stations synced", "unique", set.Len(), "duplicates", set.Duplicates(), "batches", b.Batches())
	return nil
}

func (imp *Importer) importTrips(ctx context.Context, logger *slog.Logger, files []string, s *Summary) error {
	ctx, span := imp.tracer.Start(ctx, "import trips")
	defer span.End()

	current := 0

	b := NewBatcher(imp.batchSize,
		func(p pending[trip.Trip]) string { return p.value.RideID },
		func(ctx context.Context, n int, batch []pending[trip.Trip]) error {
			if imp.phase != ImportingTrips {
				return fmt.Errorf("%w (phase %s)", ErrPhaseOrder, imp.phase)
			}
			values := make([]trip.Trip, len(batch))
			for i, p := range batch {
				values[i] = p.value
			}
			if err := imp.flush(ctx, Trips, n, len(values), func(ctx context.Context) error {
				return imp.trips.Upsert(ctx, values)
			}); err != nil {
				return &BatchError{Kind: Trips, File: files[current], Batch: n, Count: len(values), Err: err}
			}
			for _, p := range batch {
				s.Files[p.file].Trips.Written++
			}
			imp.metrics.rows.WithLabelValues(string(Trips), resultWritten).Add(float64(len(values)))
			logger.Info("flushed trip batch", "batch", n, "count", len(values), "file", filepath.Base(files[current]))
			return nil
		},
	)

	for i, path := range files {
		current = i
		fc := &s.Files[i].Trips
		err := imp.scan(ctx, path,
			func(rec record.Record) error {
				fc.Rows++
				if rec.Trip.DurationSeconds == 0 {
					fc.ZeroDuration++
					imp.metrics.anomalies.WithLabelValues("duration").Inc()
				}
				replaced, err := b.Add(ctx, pending[trip.Trip]{value: rec.Trip, file: i})
				if replaced {
					fc.Duplicates++
					imp.metrics.rows.WithLabelValues(string(Trips), resultDuplicate).Inc()
				}
				return err
			},
			func(reason record.Reason, err error) {
				fc.Rows++
				fc.Invalid++
				s.Rejections[reason]++
				imp.metrics.rows.WithLabelValues(string(Trips), resultInvalid).Inc()
				imp.metrics.rejections.WithLabelValues(string(reason)).Inc()
				logger.Debug("row rejected", "file", filepath.Base(path), "reason", string(reason), "error", err)
			},
		)
		if err != nil {
			return err
		}
		logger.Info("scanned trips", "file", filepath.Base(path), "rows", fc.Rows, "invalid", fc.Invalid, "duplicates", fc.Duplicates)
	}

	err := b.Flush(ctx)
	s.TripBatches = b.Batches()
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("batches", b.Batches()))
	return nil
}

// flush times and traces a single batch write.
func (imp *Importer) flush(ctx context.Context, kind Kind, n, count int, write func(context.Context) error) error {
	ctx, span := imp.tracer.Start(ctx, "flush batch",
		trace.WithAttributes(
			attribute.String("kind", string(kind)),
			attribute.Int("batch", n),
			attribute.Int("count", count),
		))
	defer span.End()

	start := time.Now()
	err := write(ctx)
	imp.metrics.batchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch write failed")
		imp.metrics.batches.WithLabelValues(string(kind), resultError).Inc()
		return err
	}
	imp.metrics.batches.WithLabelValues(string(kind), resultSuccess).Inc()
	return nil
}

// scan normalizes every row of one file. Valid records go to fn; rejected and malformed
// rows go to reject when it is non-nil and are otherwise dropped.
func (imp *Importer) scan(ctx context.Context, path string, fn func(record.Record) error, reject func(record.Reason, error)) error {
	src, err := openSource(path)
	if err != nil {
		return err
	}
	defer src.Close()

	var row record.Row
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := src.Next(&row)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, errMalformedRow) {
			if reject != nil {
				reject(record.Malformed, err)
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		rec, err := record.Normalize(row, imp.location)
		if err != nil {
			if reason, ok := record.ReasonFromError(err); ok && reject != nil {
				reject(reason, err)
			}
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
