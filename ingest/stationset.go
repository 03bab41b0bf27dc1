package ingest

import (
	"github.com/semanticallynull/tripstats-backend/station"
)

// StationSet keeps the first-seen version of every station id, in order of appearance.
// Later candidates with a known id are skipped, not merged.
type StationSet struct {
	seen    map[string]struct{}
	order   []station.Station
	skipped int
}

func NewStationSet() *StationSet {
	return &StationSet{seen: make(map[string]struct{})}
}

// Add records s and reports whether its id was new. Empty ids are ignored.
func (set *StationSet) Add(s station.Station) bool {
	if s.ID == "" {
		return false
	}
	if _, ok := set.seen[s.ID]; ok {
		set.skipped++
		return false
	}
	set.seen[s.ID] = struct{}{}
	set.order = append(set.order, s)
	return true
}

func (set *StationSet) Contains(id string) bool {
	_, ok := set.seen[id]
	return ok
}

func (set *StationSet) Len() int {
	return len(set.order)
}

// Duplicates is the number of candidates skipped because their id was already present.
func (set *StationSet) Duplicates() int {
	return set.skipped
}

// Stations returns the unique stations in insertion order.
func (set *StationSet) Stations() []station.Station {
	return set.order
}
