package ingest

import (
	"fmt"
)

// Phase is the importer's position in Start -> SyncingStations -> ImportingTrips -> Complete.
// Failed is terminal and reachable from every non-terminal phase.
type Phase int

const (
	Start Phase = iota
	SyncingStations
	ImportingTrips
	Complete
	Failed
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case SyncingStations:
		return "syncing_stations"
	case ImportingTrips:
		return "importing_trips"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

var transitions = map[Phase][]Phase{
	Start:           {SyncingStations, Failed},
	SyncingStations: {ImportingTrips, Failed},
	ImportingTrips:  {Complete, Failed},
}

// CanTransition reports whether the state machine allows moving from p to next.
func (p Phase) CanTransition(next Phase) bool {
	for _, allowed := range transitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}
