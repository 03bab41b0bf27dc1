package ingest

import (
	"errors"
	"fmt"
)

var (
	ErrInputDirNotFound  = errors.New("input directory not found")
	ErrNoInputFiles      = errors.New("no CSV files found")
	ErrMissingColumns    = errors.New("missing required columns")
	ErrInvalidTransition = errors.New("invalid import phase transition")
	ErrPhaseOrder        = errors.New("trip batch flushed before stations were synced")
)

// Kind names the table a batch was written to.
type Kind string

const (
	Stations Kind = "stations"
	Trips    Kind = "trips"
)

// BatchError reports a failed batch write. Batches flushed before it stay committed.
type BatchError struct {
	Kind  Kind
	File  string
	Batch int
	Count int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("write %s batch %d (%d records, file %s): %v", e.Kind, e.Batch, e.Count, e.File, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
