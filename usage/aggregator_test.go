package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DDNStorage/qosd/metrics"
)

func TestAggregator_Accumulate_SumsAcrossServers(t *testing.T) {
	a := New()
	rows := metrics.Rows{Rows: []metrics.Row{
		{OSTIndex: "0", JobID: "cp.1001", Value: 100},
		{OSTIndex: "1", JobID: "cp.1001", Value: 50},
		{OSTIndex: "0", JobID: "dd.1002", Value: 10},
	}}

	totals := a.Accumulate(rows, 10)

	assert.Equal(t, 1500.0, totals["1001"])
	assert.Equal(t, 100.0, totals["1002"])
	assert.Zero(t, a.DropCount())
}

func TestAggregator_Accumulate_DropsMalformedJobID(t *testing.T) {
	a := New()
	rows := metrics.Rows{Rows: []metrics.Row{
		{JobID: "cp.1001", Value: 10},
		{JobID: "not-a-valid-job-id", Value: 999},
		{JobID: "cp.", Value: 999},
		{JobID: "", Value: 999},
	}}

	totals := a.Accumulate(rows, 1)

	assert.Equal(t, 10.0, totals["1001"])
	assert.Len(t, totals, 1)
	assert.Equal(t, uint64(3), a.DropCount())
}

func TestAggregator_Accumulate_DropCountAccumulatesAcrossCalls(t *testing.T) {
	a := New()
	bad := metrics.Rows{Rows: []metrics.Row{{JobID: "bad", Value: 1}}}

	a.Accumulate(bad, 1)
	a.Accumulate(bad, 1)

	assert.Equal(t, uint64(2), a.DropCount())
}

func TestParseUID(t *testing.T) {
	cases := []struct {
		jobID   string
		wantUID string
		wantOK  bool
	}{
		{"cp.1001", "1001", true},
		{"some.proc.name.42", "", false}, // multiple dots: proc part contains a dot
		{"cp.abc", "", false},
		{"cp.", "", false},
		{".1001", "", false},
	}

	for _, c := range cases {
		uid, ok := parseUID(c.jobID)
		assert.Equal(t, c.wantOK, ok, "jobID=%s", c.jobID)
		if ok {
			assert.Equal(t, c.wantUID, uid)
		}
	}
}

func TestThroughputMB(t *testing.T) {
	assert.Equal(t, 1.0, ThroughputMB(1048576))
	assert.Equal(t, 0.0, ThroughputMB(0))
}

func TestMerge(t *testing.T) {
	throughput := map[string]float64{"1001": 100, "1002": 50}
	metadataOps := map[string]float64{"1002": 20, "1003": 5}

	merged := Merge(throughput, metadataOps)

	assert.Equal(t, UserUsage{ThroughputBytes: 100}, merged["1001"])
	assert.Equal(t, UserUsage{ThroughputBytes: 50, MetadataOps: 20}, merged["1002"])
	assert.Equal(t, UserUsage{MetadataOps: 5}, merged["1003"])
}
