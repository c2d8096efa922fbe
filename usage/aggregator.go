// Package usage collapses raw per-server metrics samples into per-UID
// totals for the active window (spec §4.5).
package usage

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/DDNStorage/qosd/metrics"
)

// jobIDPattern matches a job identifier of the form `<proc>.<uid>`. Rows
// whose job_id does not match are silently dropped: they represent
// non-attributable I/O (spec §4.5, ParseError in spec §7).
var jobIDPattern = regexp.MustCompile(`^[^.]+\.(\d+)$`)

// UserUsage is one UID's accumulated totals for the active window.
type UserUsage struct {
	ThroughputBytes float64
	MetadataOps     float64
}

// Aggregator collapses UsageSamples into per-UID totals and tracks how
// many rows were dropped for a malformed job_id, exposed via status().
type Aggregator struct {
	mu        sync.Mutex
	dropCount uint64
}

// New builds an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Accumulate sums rows.Value * collectionIntervalSeconds into a
// UID -> value map, per spec §4.5: the metrics store reports rates, not
// totals, so each sample is converted to a window contribution by
// multiplying by the collection interval before summing.
func (a *Aggregator) Accumulate(rows metrics.Rows, collectionIntervalSeconds float64) map[string]float64 {
	totals := make(map[string]float64)
	dropped := uint64(0)

	for _, row := range rows.Rows {
		uid, ok := parseUID(row.JobID)
		if !ok {
			dropped++
			continue
		}
		totals[uid] += row.Value * collectionIntervalSeconds
	}

	if dropped > 0 {
		a.mu.Lock()
		a.dropCount += dropped
		a.mu.Unlock()
	}

	return totals
}

// parseUID extracts the UID portion of a `<proc>.<uid>` job identifier.
func parseUID(jobID string) (string, bool) {
	m := jobIDPattern.FindStringSubmatch(jobID)
	if m == nil {
		return "", false
	}
	// validate the uid is actually numeric per the pattern's own \d+
	// capture; redundant with the regex but keeps the contract explicit
	// if the pattern is ever loosened.
	if _, err := strconv.ParseUint(m[1], 10, 64); err != nil {
		return "", false
	}
	return m[1], true
}

// DropCount returns the number of rows dropped for a malformed job_id
// across the Aggregator's lifetime.
func (a *Aggregator) DropCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropCount
}

// ThroughputMB converts an accumulated byte total to mebibytes, the unit
// presented to humans (spec §4.5); internal accumulation always stays in
// bytes.
func ThroughputMB(bytes float64) float64 {
	return bytes / 1048576.0
}
