package monitor

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestCPUPercent(t *testing.T) {
	assert.InDelta(t, 40, cpuPercent(cpuSample{idle: 800, total: 1000}, cpuSample{idle: 950, total: 1250}), 1e-9)
	assert.Equal(t, 0.0, cpuPercent(cpuSample{idle: 800, total: 1000}, cpuSample{idle: 800, total: 1000}))
	assert.Equal(t, 0.0, cpuPercent(cpuSample{idle: 800, total: 1000}, cpuSample{idle: 700, total: 900}))
}

func TestCPUPercentIdleGoingBackwards(t *testing.T) {
	// iowait is not monotonic on every kernel, so idle may shrink between samples.
	percent := cpuPercent(cpuSample{idle: 1000, total: 5000}, cpuSample{idle: 999, total: 5100})
	assert.Equal(t, 100.0, percent)

	// more idle than elapsed time
	percent = cpuPercent(cpuSample{idle: 1000, total: 5000}, cpuSample{idle: 1200, total: 5100})
	assert.Equal(t, 0.0, percent)
}

func TestRate(t *testing.T) {
	assert.Equal(t, 500.0, rate(1000, 2000, 2))
	assert.Equal(t, 0.0, rate(2000, 1000, 2))
	assert.Equal(t, 0.0, rate(1000, 2000, 0))
}

func TestParseThermal(t *testing.T) {
	temperature, err := parseThermal("48312\n")
	require.NoError(t, err)
	assert.InDelta(t, 48.312, temperature, 1e-9)

	_, err = parseThermal("hot")
	assert.Error(t, err)
}

func TestReadThermal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("61000\n"), 0644))
	temperature, err := readThermal(path)
	require.NoError(t, err)
	assert.InDelta(t, 61, temperature, 1e-9)

	_, err = readThermal(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
