// Package report accumulates per-target outcomes of a run. One target's
// failure never halts the batch; the summary table is where it surfaces.
package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

type Status string

const (
	StatusUpdated Status = "UPDATED"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
	StatusOK      Status = "OK"
)

// Result is the outcome for one target server.
type Result struct {
	ServerID string
	Hostname string
	Status   Status
	Detail   string
}

// Summary collects results across a run.
type Summary struct {
	results []Result
}

func (s *Summary) Add(r Result) {
	s.results = append(s.results, r)
}

// Failed returns the number of failed targets.
func (s *Summary) Failed() int {
	var n int
	for _, r := range s.results {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Count returns the total number of targets recorded.
func (s *Summary) Count() int {
	return len(s.results)
}

// Render writes the summary table.
func (s *Summary) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Server ID", "Hostname", "Status", "Detail"})
	for i, r := range s.results {
		table.Append([]string{strconv.Itoa(i + 1), r.ServerID, r.Hostname, string(r.Status), r.Detail})
	}
	table.Render()
}
