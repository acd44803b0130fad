package monitor

import (
	"context"
	"fmt"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"os"
	"strconv"
	"strings"
)

// systemSource reads the host counters sampled on every cycle.
type systemSource interface {
	CPUTimes(ctx context.Context) (cpuSample, error)
	MemoryPercent(ctx context.Context) (float64, error)
	DiskUsage(ctx context.Context, path string) (metric.DiskUsage, error)
	NetCounters(ctx context.Context, iface string) (netSample, error)
}

type hostSource struct{}

func (hostSource) CPUTimes(ctx context.Context) (cpuSample, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpuSample{}, err
	}
	if len(times) == 0 {
		return cpuSample{}, fmt.Errorf("no aggregated cpu times")
	}
	t := times[0]
	return cpuSample{
		idle:  t.Idle + t.Iowait,
		total: t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal,
	}, nil
}

func (hostSource) MemoryPercent(ctx context.Context) (float64, error) {
	memory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return memory.UsedPercent, nil
}

func (hostSource) DiskUsage(ctx context.Context, path string) (metric.DiskUsage, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return metric.DiskUsage{}, err
	}
	return metric.DiskUsage{
		Total:   usage.Total,
		Used:    usage.Used,
		Free:    usage.Free,
		Percent: metric.ClampPercent(usage.UsedPercent),
	}, nil
}

func (hostSource) NetCounters(ctx context.Context, iface string) (netSample, error) {
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		return netSample{}, err
	}
	for _, counter := range counters {
		if counter.Name == iface {
			return netSample{rx: counter.BytesRecv, tx: counter.BytesSent}, nil
		}
	}
	return netSample{}, fmt.Errorf("interface %s not found", iface)
}

// cpuSample holds cumulative cpu time in seconds.
type cpuSample struct {
	idle  float64
	total float64
}

// cpuPercent is the busy share between two samples. Counters running backwards
// (iowait does on some kernels) are clamped rather than trusted.
func cpuPercent(previous, current cpuSample) float64 {
	deltaTotal := current.total - previous.total
	if deltaTotal <= 0 {
		return 0
	}
	deltaIdle := current.idle - previous.idle
	if deltaIdle < 0 {
		deltaIdle = 0
	}
	if deltaIdle > deltaTotal {
		deltaIdle = deltaTotal
	}
	return 100 * (1 - deltaIdle/deltaTotal)
}

type netSample struct {
	rx uint64
	tx uint64
}

// rate returns bytes per second between two counter readings. A counter reset
// yields 0.
func rate(previous, current uint64, seconds float64) float64 {
	if seconds <= 0 || current < previous {
		return 0
	}
	return float64(current-previous) / seconds
}

func readThermal(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return parseThermal(string(data))
}

// parseThermal converts a thermal zone reading in millidegrees.
func parseThermal(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	return value / 1000, nil
}
