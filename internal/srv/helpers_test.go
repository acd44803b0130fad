package srv

import (
	"errors"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/stretchr/testify/require"
	"image"
	"sync"
	"testing"
	"time"
)

var (
	baseTime    = time.Date(2024, time.March, 9, 14, 30, 10, 0, time.UTC)
	errBusFault = errors.New("bus fault")
)

func newTestState(t *testing.T) *config.ServerState {
	t.Helper()
	state, err := config.NewServerState("")
	require.NoError(t, err)
	state.Touch(baseTime)
	return state
}

func sampleSnapshot(at time.Time) *metric.Snapshot {
	return &metric.Snapshot{
		CPUPercent:     23.4,
		MemoryPercent:  41.0,
		CPUTemperature: 48.2,
		RootDisk:       metric.DiskUsage{Total: 32 << 30, Used: 8 << 30, Free: 24 << 30, Percent: 25},
		Bays: [metric.BayCount]metric.Bay{
			{Device: "sda", Present: true, Capacity: 4 << 40, Used: 1 << 40, Available: 3 << 40, UsedPercent: 25, Temperature: 36},
			{Device: "sdb", Present: true, Capacity: 4 << 40, Used: 2 << 40, Available: 2 << 40, UsedPercent: 50, Temperature: 38},
		},
		DiskState: metric.DiskStateOK,
		RxRate:    2048,
		TxRate:    50,
		IP:        "192.168.1.20",
		Timestamp: at,
	}
}

type fakeBacklight struct {
	lock   sync.Mutex
	levels []int
	err    error
}

func (b *fakeBacklight) SetBacklight(percent int) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.err != nil {
		return b.err
	}
	b.levels = append(b.levels, percent)
	return nil
}

func (b *fakeBacklight) calls() []int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]int(nil), b.levels...)
}

type fakePanel struct {
	frames int
	err    error
}

func (p *fakePanel) ShowImage(img image.Image) error {
	if p.err != nil {
		return p.err
	}
	p.frames++
	return nil
}

type fakeFan struct {
	duties []int
	err    error
}

func (f *fakeFan) SetDuty(percent int) error {
	if f.err != nil {
		return f.err
	}
	f.duties = append(f.duties, percent)
	return nil
}
