package srv

import (
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/metric"
	"math"
	"time"
)

const (
	percentThreshold     = 1.0
	temperatureThreshold = 0.5
	rateRelativeChange   = 0.10
	// Below this many bytes per second a link is displayed as idle.
	idleRate = 100.0
)

// renderView is the state, besides metrics, a frame depends on.
type renderView struct {
	DisplayMode config.DisplayMode
	FanMode     config.FanMode
	Error       bool
	Now         time.Time
}

// renderCache remembers what the last frame showed. It belongs to the render
// loop.
type renderCache struct {
	valid bool

	displayMode config.DisplayMode
	fanMode     config.FanMode
	errorFlag   bool
	minute      int64
	ip          string
	diskState   metric.DiskState

	cpu         float64
	memory      float64
	rootDisk    float64
	bays        [metric.BayCount]float64
	temperature float64
	rx          float64
	tx          float64
}

// hasSignificantChange reports whether the frame for snapshot and view would
// differ enough from the last one to be worth sending to the panel.
func (c *renderCache) hasSignificantChange(snapshot *metric.Snapshot, view renderView) bool {
	if !c.valid {
		return true
	}
	if view.DisplayMode != c.displayMode || view.FanMode != c.fanMode || view.Error != c.errorFlag {
		return true
	}
	if minuteOf(view.Now) != c.minute {
		return true
	}
	if snapshot.IP != c.ip || snapshot.DiskState != c.diskState {
		return true
	}

	if movedBy(c.cpu, snapshot.CPUPercent, percentThreshold) ||
		movedBy(c.memory, snapshot.MemoryPercent, percentThreshold) ||
		movedBy(c.rootDisk, snapshot.RootDisk.Percent, percentThreshold) {
		return true
	}
	for i, bay := range snapshot.Bays {
		if movedBy(c.bays[i], bay.UsedPercent, percentThreshold) {
			return true
		}
	}
	if movedBy(c.temperature, snapshot.CPUTemperature, temperatureThreshold) {
		return true
	}
	return rateChanged(c.rx, snapshot.RxRate) || rateChanged(c.tx, snapshot.TxRate)
}

func (c *renderCache) update(snapshot *metric.Snapshot, view renderView) {
	c.valid = true
	c.displayMode = view.DisplayMode
	c.fanMode = view.FanMode
	c.errorFlag = view.Error
	c.minute = minuteOf(view.Now)
	c.ip = snapshot.IP
	c.diskState = snapshot.DiskState
	c.cpu = snapshot.CPUPercent
	c.memory = snapshot.MemoryPercent
	c.rootDisk = snapshot.RootDisk.Percent
	for i, bay := range snapshot.Bays {
		c.bays[i] = bay.UsedPercent
	}
	c.temperature = snapshot.CPUTemperature
	c.rx = snapshot.RxRate
	c.tx = snapshot.TxRate
}

func minuteOf(t time.Time) int64 {
	return t.Unix() / 60
}

func movedBy(previous, current, threshold float64) bool {
	return math.Abs(current-previous) >= threshold
}

// rateChanged compares two transfer rates: crossing the idle boundary always
// counts, two idle rates never do, otherwise the change must exceed 10%.
func rateChanged(previous, current float64) bool {
	previousIdle := previous < idleRate
	currentIdle := current < idleRate
	if previousIdle != currentIdle {
		return true
	}
	if previousIdle {
		return false
	}
	return math.Abs(current-previous) > rateRelativeChange*previous
}
