package schedule

import (
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/DDNStorage/qosd/errors"
)

// SystemSnapshot is a point-in-time read of host memory pressure, logged
// alongside each tick so an operator watching the controller's log can
// tell a slow cycle from a starved host, grounded on the teacher's
// pulse/async worker-pool system metrics.
type SystemSnapshot struct {
	MemoryUsedGB  float64
	MemoryTotalGB float64
	MemoryPercent float64
}

// ReadSystemSnapshot samples current memory usage. A failure to read
// system stats is not fatal to the tick; callers log an empty snapshot.
func ReadSystemSnapshot() (SystemSnapshot, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return SystemSnapshot{}, errors.Wrap(err, "failed to read system memory stats")
	}

	totalGB := float64(v.Total) / 1024 / 1024 / 1024
	usedGB := float64(v.Total-v.Available) / 1024 / 1024 / 1024
	percent := 0.0
	if totalGB > 0 {
		percent = (usedGB / totalGB) * 100
	}

	return SystemSnapshot{
		MemoryUsedGB:  usedGB,
		MemoryTotalGB: totalGB,
		MemoryPercent: percent,
	}, nil
}
