package record

import (
	"errors"
)

// ErrRejected matches every *RejectionError with errors.Is.
var ErrRejected = errors.New("row rejected")

type Reason string

const (
	MissingRideID    Reason = "missing_ride_id"
	MissingStartedAt Reason = "missing_started_at"
	MissingEndedAt   Reason = "missing_ended_at"
	InvalidStartedAt Reason = "invalid_started_at"
	InvalidEndedAt   Reason = "invalid_ended_at"
	Malformed        Reason = "malformed"
)

// RejectionError explains why a row was left out of the import.
type RejectionError struct {
	Reason Reason
	RideID string
}

func reject(reason Reason, rideID string) *RejectionError {
	return &RejectionError{Reason: reason, RideID: rideID}
}

func (e *RejectionError) Error() string {
	if e.RideID == "" {
		return "row rejected: " + string(e.Reason)
	}
	return "row rejected: " + string(e.Reason) + " (ride " + e.RideID + ")"
}

func (e *RejectionError) Is(target error) bool {
	return target == ErrRejected
}

// ReasonFromError returns the rejection reason carried by err, if any.
func ReasonFromError(err error) (Reason, bool) {
	var rerr *RejectionError
	if errors.As(err, &rerr) {
		return rerr.Reason, true
	}
	return "", false
}
