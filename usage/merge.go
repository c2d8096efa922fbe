package usage

// Merge combines a per-UID throughput-bytes map and a per-UID
// metadata-ops map (the two independent Accumulate results for one
// cycle) into the UserUsage view the Admission Policy consumes.
func Merge(throughputBytes, metadataOps map[string]float64) map[string]UserUsage {
	out := make(map[string]UserUsage, len(throughputBytes)+len(metadataOps))

	for uid, bytes := range throughputBytes {
		u := out[uid]
		u.ThroughputBytes = bytes
		out[uid] = u
	}

	for uid, ops := range metadataOps {
		u := out[uid]
		u.MetadataOps = ops
		out[uid] = u
	}

	return out
}
