// Package metric holds the values published by the system monitor.
//
// A Snapshot is never modified after it has been published: the monitor builds
// a new one on every collection cycle and swaps the pointer held by the server
// state. Readers load that pointer once per tick and work on a consistent set of
// values.
package metric

import "time"

// BayCount is the number of drive bays of the enclosure.
const BayCount = 2

type DiskState int

const (
	DiskStateOK DiskState = iota
	// A bay drive has partitions but no mounted filesystem.
	DiskStateNotMounted
	// A bay is empty, or its drive carries no partition.
	DiskStateUnpartitioned
)

func (s DiskState) String() string {
	switch s {
	case DiskStateNotMounted:
		return "not_mounted"
	case DiskStateUnpartitioned:
		return "unpartitioned"
	default:
		return "ok"
	}
}

type DiskUsage struct {
	Total   uint64
	Used    uint64
	Free    uint64
	Percent float64
}

// Bay describes the drive plugged in one bay. A Temperature <= 0 means the
// sensor could not be read.
type Bay struct {
	Device      string
	Present     bool
	Capacity    uint64
	Used        uint64
	Available   uint64
	UsedPercent float64
	Temperature float64
	RaidMember  bool
}

type Snapshot struct {
	CPUPercent     float64
	MemoryPercent  float64
	CPUTemperature float64
	RootDisk       DiskUsage
	Bays           [BayCount]Bay
	Raid           bool
	DiskState      DiskState
	// Bytes per second on the monitored interface.
	RxRate float64
	TxRate float64
	IP     string

	Timestamp time.Time
}

// BayTemperatures returns the temperature of every bay, unavailable sensors included.
func (s *Snapshot) BayTemperatures() []float64 {
	temperatures := make([]float64, 0, BayCount)
	for _, bay := range s.Bays {
		temperatures = append(temperatures, bay.Temperature)
	}
	return temperatures
}

func (s *Snapshot) Age(now time.Time) time.Duration {
	if s.Timestamp.IsZero() {
		return 0
	}
	return now.Sub(s.Timestamp)
}

// ClampPercent bounds a percentage to [0,100].
func ClampPercent(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
