package schedule

import "time"

// WindowIndex returns floor(now / length), the current accounting window
// index (spec §3). A change in this value between ticks is the roll-over
// trigger the Controller watches for.
func WindowIndex(now time.Time, length time.Duration) int64 {
	return now.Unix() / int64(length.Seconds())
}

// WindowStart returns the wall-clock second at which window index begins:
// start = floor(now / length) * length.
func WindowStart(index int64, length time.Duration) int64 {
	return index * int64(length.Seconds())
}
