package monitor

import (
	"context"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/sirupsen/logrus"
	"net"
	"os/exec"
	"time"
)

const (
	commandTimeout = 10 * time.Second
	defaultIP      = "127.0.0.1"
)

type Publisher interface {
	PublishSnapshot(snapshot *metric.Snapshot)
}

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Monitor samples the system on a fixed interval and publishes a new snapshot
// after every cycle. Disk data comes from lsblk and smartctl and is refreshed
// on the slower disk interval.
type Monitor struct {
	param     config.MonitorParam
	publisher Publisher

	system   systemSource
	run      commandRunner
	lookupIP func() (string, error)

	previousCPU  cpuSample
	previousNet  netSample
	previousAt   time.Time
	haveCPU      bool
	haveNet      bool
	storage      storageState
	lastDiskScan time.Time
	last         metric.Snapshot
}

func NewMonitor(param config.MonitorParam, publisher Publisher) *Monitor {
	return &Monitor{
		param:     param,
		publisher: publisher,
		system:    hostSource{},
		run:       runCommand,
		lookupIP:  outboundIP,
		storage:   buildBays(nil, param.BayDevices, nil),
		last:      metric.Snapshot{IP: defaultIP},
	}
}

// Run collects until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	logrus.Infof("Start system monitor")
	m.Collect(ctx, time.Now())

	ticker := time.NewTicker(m.param.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Stop system monitor")
			return
		case now := <-ticker.C:
			m.Collect(ctx, now)
		}
	}
}

// Collect runs one sampling cycle and publishes its snapshot. A failed reading
// keeps its previous value, except temperatures which fall back to 0.
func (m *Monitor) Collect(ctx context.Context, now time.Time) {
	snapshot := m.last
	snapshot.Timestamp = now

	elapsed := now.Sub(m.previousAt).Seconds()

	if sample, err := m.system.CPUTimes(ctx); err != nil {
		logrus.WithError(err).Warn("Unable to read cpu usage")
	} else {
		if m.haveCPU {
			snapshot.CPUPercent = metric.ClampPercent(cpuPercent(m.previousCPU, sample))
		}
		m.previousCPU, m.haveCPU = sample, true
	}

	if memory, err := m.system.MemoryPercent(ctx); err != nil {
		logrus.WithError(err).Warn("Unable to read memory usage")
	} else {
		snapshot.MemoryPercent = metric.ClampPercent(memory)
	}

	if temperature, err := readThermal(m.param.ThermalZone); err != nil {
		logrus.WithError(err).Debug("Unable to read cpu temperature")
		snapshot.CPUTemperature = 0
	} else {
		snapshot.CPUTemperature = temperature
	}

	if usage, err := m.system.DiskUsage(ctx, m.param.RootPath); err != nil {
		logrus.WithError(err).Warn("Unable to read root filesystem usage")
	} else {
		snapshot.RootDisk = usage
	}

	if sample, err := m.system.NetCounters(ctx, m.param.NetworkInterface); err != nil {
		logrus.WithError(err).Debugf("Unable to read counters of %s", m.param.NetworkInterface)
		snapshot.RxRate, snapshot.TxRate = 0, 0
		m.haveNet = false
	} else {
		if m.haveNet {
			snapshot.RxRate = rate(m.previousNet.rx, sample.rx, elapsed)
			snapshot.TxRate = rate(m.previousNet.tx, sample.tx, elapsed)
		}
		m.previousNet, m.haveNet = sample, true
	}
	m.previousAt = now

	if ip, err := m.lookupIP(); err != nil {
		logrus.WithError(err).Debug("Unable to find outbound ip")
		snapshot.IP = defaultIP
	} else {
		snapshot.IP = ip
	}

	if m.lastDiskScan.IsZero() || now.Sub(m.lastDiskScan) >= m.param.DiskInterval {
		m.scanDisks(ctx)
		m.lastDiskScan = now
	}
	snapshot.Bays = m.storage.bays
	snapshot.Raid = m.storage.raid
	snapshot.DiskState = m.storage.state

	m.last = snapshot
	m.publisher.PublishSnapshot(&snapshot)
}

func (m *Monitor) scanDisks(ctx context.Context) {
	output, err := m.run(ctx, "lsblk", "-b", "-o", "NAME,FSTYPE,FSSIZE,FSAVAIL,FSUSED", "--json")
	if err != nil {
		logrus.WithError(err).Warn("Unable to list block devices")
		return
	}
	devices, err := parseLsblk(output)
	if err != nil {
		logrus.WithError(err).Warn("Unable to interpret lsblk output")
		return
	}

	temperatures := make(map[string]float64)
	for _, device := range m.param.BayDevices {
		output, err := m.run(ctx, "smartctl", "-A", "/dev/"+device, "--json")
		// smartctl reports partial failures through its exit status while still
		// printing usable json.
		if len(output) == 0 {
			logrus.WithError(err).Debugf("No SMART data for %s", device)
			continue
		}
		temperature, parseErr := parseSmartTemperature(output)
		if parseErr != nil {
			logrus.WithError(parseErr).Debugf("Unable to interpret SMART data for %s", device)
			continue
		}
		temperatures[device] = temperature
	}

	m.storage = buildBays(devices, m.param.BayDevices, temperatures)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}

// outboundIP returns the local address used to reach the internet. Dialing UDP
// sends no packet.
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
