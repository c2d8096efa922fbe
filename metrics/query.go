package metrics

import (
	"fmt"
	"strings"
)

// DataQuery builds the OST (data-scope) job-stats query for a filesystem,
// matching spec §6's throughput query byte-for-byte in shape (the metrics
// store only needs value equality, not literal text, but keeping it exact
// makes captured query logs directly comparable to the reference system).
func DataQuery(filesystem string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT ost_index, job_id, value FROM ost_jobstats_bytes\n")
	fmt.Fprintf(&b, "WHERE fs_name = '%s'\n", filesystem)
	fmt.Fprintf(&b, "  AND (optype = 'sum_write_bytes' OR optype = 'sum_read_bytes')\n")
	fmt.Fprintf(&b, "  AND value > 0 AND time > <START>s")
	return b.String()
}

// MetadataQuery builds the MDT (metadata-scope) job-stats query.
func MetadataQuery(filesystem string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT job_id, sum FROM \"cqm_mdt_jobstats_samples-fs_name-job_id\"\n")
	fmt.Fprintf(&b, "WHERE fs_name = '%s' AND sum > 0 AND time > <START>s", filesystem)
	return b.String()
}

// renderStart substitutes the literal `<START>` placeholder with the
// window start time in epoch seconds, the way the reference deployment's
// query templates are rendered before being sent over the wire.
func renderStart(query string, startSeconds int64) string {
	return strings.Replace(query, "<START>", fmt.Sprintf("%d", startSeconds), 1)
}
