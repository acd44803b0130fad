package monitor

import (
	"encoding/json"
	"fmt"
	"github.com/jypelle/nashat/internal/srv/metric"
	"strings"
)

// lsblk -b -o NAME,FSTYPE,FSSIZE,FSAVAIL,FSUSED --json
type lsblkOutput struct {
	BlockDevices []blockDevice `json:"blockdevices"`
}

type blockDevice struct {
	Name     string        `json:"name"`
	FsType   *string       `json:"fstype"`
	FsSize   *jsonNumber   `json:"fssize"`
	FsAvail  *jsonNumber   `json:"fsavail"`
	FsUsed   *jsonNumber   `json:"fsused"`
	Children []blockDevice `json:"children"`
}

// jsonNumber accepts both the numeric and the quoted form lsblk versions emit.
type jsonNumber uint64

func (n *jsonNumber) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "null" || raw == "" {
		*n = 0
		return nil
	}
	var value uint64
	if _, err := fmt.Sscan(raw, &value); err != nil {
		return fmt.Errorf("bad size %s: %w", data, err)
	}
	*n = jsonNumber(value)
	return nil
}

func (n *jsonNumber) value() uint64 {
	if n == nil {
		return 0
	}
	return uint64(*n)
}

func parseLsblk(data []byte) ([]blockDevice, error) {
	var output lsblkOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, err
	}
	return output.BlockDevices, nil
}

// smartctl -A /dev/X --json
type smartctlOutput struct {
	Temperature *struct {
		Current float64 `json:"current"`
	} `json:"temperature"`
}

// parseSmartTemperature returns the current drive temperature, 0 when absent.
func parseSmartTemperature(data []byte) (float64, error) {
	var output smartctlOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return 0, err
	}
	if output.Temperature == nil {
		return 0, nil
	}
	return output.Temperature.Current, nil
}

// storageState is what the slow disk scan produces.
type storageState struct {
	bays  [metric.BayCount]metric.Bay
	raid  bool
	state metric.DiskState
}

// buildBays sums the filesystems found on the partitions of each bay device.
// temperatures maps a device name to its SMART temperature. Each bay keeps its
// own measurements, RAID members included.
func buildBays(devices []blockDevice, bayDevices []string, temperatures map[string]float64) storageState {
	var result storageState
	notMounted := false
	for i := 0; i < metric.BayCount && i < len(bayDevices); i++ {
		bay := metric.Bay{Device: bayDevices[i]}
		for _, device := range devices {
			if device.Name != bay.Device {
				continue
			}
			bay.Present = true
			if device.FsType != nil && strings.Contains(*device.FsType, "raid") {
				bay.RaidMember = true
			}
			for _, child := range device.Children {
				if child.FsType != nil && strings.Contains(*child.FsType, "raid") {
					bay.RaidMember = true
				}
				bay.Capacity += child.FsSize.value()
				bay.Available += child.FsAvail.value()
				bay.Used += child.FsUsed.value()
			}
			if len(device.Children) > 0 && bay.Capacity == 0 {
				notMounted = true
			}
		}
		if bay.Capacity > 0 {
			bay.UsedPercent = metric.ClampPercent(100 * float64(bay.Used) / float64(bay.Capacity))
		}
		bay.Temperature = temperatures[bay.Device]
		result.raid = result.raid || bay.RaidMember
		result.bays[i] = bay
	}

	switch {
	case result.bays[0].Capacity > 0 && result.bays[1].Capacity > 0:
		result.state = metric.DiskStateOK
	case notMounted:
		result.state = metric.DiskStateNotMounted
	default:
		result.state = metric.DiskStateUnpartitioned
	}
	return result
}
