package ingest

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/tripstats-backend/record"
)

// Counts tracks trip rows for one file or the whole run.
type Counts struct {
	Rows         int `json:"rows"`
	Written      int `json:"written"`
	Invalid      int `json:"invalid"`
	Duplicates   int `json:"duplicates"`
	ZeroDuration int `json:"zeroDuration"`
}

func (c *Counts) add(o Counts) {
	c.Rows += o.Rows
	c.Written += o.Written
	c.Invalid += o.Invalid
	c.Duplicates += o.Duplicates
	c.ZeroDuration += o.ZeroDuration
}

// StationCounts tracks station candidates seen during the station phase.
type StationCounts struct {
	Seen       int `json:"seen"`
	Written    int `json:"written"`
	Duplicates int `json:"duplicates"`
}

func (c *StationCounts) add(o StationCounts) {
	c.Seen += o.Seen
	c.Written += o.Written
	c.Duplicates += o.Duplicates
}

type FileSummary struct {
	Path     string        `json:"path"`
	Trips    Counts        `json:"trips"`
	Stations StationCounts `json:"stations"`
}

// Summary is the outcome of one import run. It is filled in even when the run fails.
type Summary struct {
	RunID          uuid.UUID             `json:"runId"`
	Files          []FileSummary         `json:"files"`
	Trips          Counts                `json:"trips"`
	Stations       StationCounts         `json:"stations"`
	StationBatches int                   `json:"stationBatches"`
	TripBatches    int                   `json:"tripBatches"`
	Rejections     map[record.Reason]int `json:"rejections"`
	Phase          Phase                 `json:"-"`
	Elapsed        time.Duration         `json:"elapsed"`
	Err            error                 `json:"-"`
}

func newSummary(files []string) *Summary {
	s := &Summary{
		RunID:      uuid.New(),
		Files:      make([]FileSummary, len(files)),
		Rejections: make(map[record.Reason]int),
	}
	for i, f := range files {
		s.Files[i].Path = f
	}
	return s
}

func (s *Summary) total() {
	s.Trips = Counts{}
	s.Stations = StationCounts{}
	for _, f := range s.Files {
		s.Trips.add(f.Trips)
		s.Stations.add(f.Stations)
	}
}

// Render writes a human-readable report.
func (s *Summary) Render(w io.Writer) {
	fmt.Fprintf(w, "\nImport %s: %s in %s\n\n", s.RunID, s.Phase, s.Elapsed.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "file\trows\twritten\tinvalid\tduplicates\tzero duration\tnew stations\t")
	for _, f := range s.Files {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t\n", filepath.Base(f.Path),
			f.Trips.Rows, f.Trips.Written, f.Trips.Invalid, f.Trips.Duplicates, f.Trips.ZeroDuration, f.Stations.Written)
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
		s.Trips.Rows, s.Trips.Written, s.Trips.Invalid, s.Trips.Duplicates, s.Trips.ZeroDuration, s.Stations.Written)
	tw.Flush()

	fmt.Fprintf(w, "\nstations: %d unique of %d references (%d duplicate references), %d batches\n",
		s.Stations.Written, s.Stations.Seen, s.Stations.Duplicates, s.StationBatches)
	fmt.Fprintf(w, "trips:    %d written in %d batches\n", s.Trips.Written, s.TripBatches)

	if len(s.Rejections) > 0 {
		reasons := make([]string, 0, len(s.Rejections))
		for r := range s.Rejections {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		fmt.Fprintln(w, "rejected rows:")
		for _, r := range reasons {
			fmt.Fprintf(w, "  %-20s %d\n", r, s.Rejections[record.Reason(r)])
		}
	}

	if s.Err != nil {
		fmt.Fprintf(w, "\n✗ Import failed: %v\n", s.Err)
		return
	}
	fmt.Fprintln(w, "\n✓ Import complete")
}
