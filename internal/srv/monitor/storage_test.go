package monitor

import (
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

const lsblkSample = `{
   "blockdevices": [
      {"name":"mmcblk0", "fstype":null, "fssize":null, "fsavail":null, "fsused":null,
         "children": [
            {"name":"mmcblk0p1", "fstype":"vfat", "fssize":"264289280", "fsavail":"213168128", "fsused":"51121152"}
         ]
      },
      {"name":"sda", "fstype":null, "fssize":null, "fsavail":null, "fsused":null,
         "children": [
            {"name":"sda1", "fstype":"ext4", "fssize":1000, "fsavail":750, "fsused":250}
         ]
      },
      {"name":"sdb", "fstype":null, "fssize":null, "fsavail":null, "fsused":null,
         "children": [
            {"name":"sdb1", "fstype":"ext4", "fssize":"2000", "fsavail":"500", "fsused":"1500"},
            {"name":"sdb2", "fstype":"ext4", "fssize":"2000", "fsavail":"1500", "fsused":"500"}
         ]
      }
   ]
}`

func TestParseLsblk(t *testing.T) {
	devices, err := parseLsblk([]byte(lsblkSample))
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "sda", devices[1].Name)
	assert.Nil(t, devices[1].FsSize)
	assert.Equal(t, uint64(1000), devices[1].Children[0].FsSize.value())
	assert.Equal(t, uint64(264289280), devices[0].Children[0].FsSize.value())
}

func TestBuildBays(t *testing.T) {
	devices, err := parseLsblk([]byte(lsblkSample))
	require.NoError(t, err)

	storage := buildBays(devices, []string{"sda", "sdb"}, map[string]float64{"sda": 35, "sdb": 41})

	assert.Equal(t, metric.DiskStateOK, storage.state)
	assert.False(t, storage.raid)
	assert.Equal(t, metric.Bay{
		Device:      "sda",
		Present:     true,
		Capacity:    1000,
		Used:        250,
		Available:   750,
		UsedPercent: 25,
		Temperature: 35,
	}, storage.bays[0])
	assert.Equal(t, uint64(4000), storage.bays[1].Capacity)
	assert.Equal(t, uint64(2000), storage.bays[1].Used)
	assert.Equal(t, 50.0, storage.bays[1].UsedPercent)
}

func TestBuildBaysRaidKeepsEachBay(t *testing.T) {
	devices, err := parseLsblk([]byte(`{"blockdevices": [
		{"name":"sda", "fstype":"linux_raid_member", "children": [{"name":"md0", "fstype":"ext4", "fssize":1000, "fsavail":600, "fsused":400}]},
		{"name":"sdb", "fstype":"linux_raid_member", "children": [{"name":"md0", "fstype":"ext4", "fssize":1000, "fsavail":600, "fsused":400}]}
	]}`))
	require.NoError(t, err)

	storage := buildBays(devices, []string{"sda", "sdb"}, nil)

	assert.True(t, storage.raid)
	for _, bay := range storage.bays {
		assert.True(t, bay.RaidMember)
		assert.Equal(t, uint64(1000), bay.Capacity)
		assert.Equal(t, 40.0, bay.UsedPercent)
	}
}

func TestBuildBaysDiskState(t *testing.T) {
	devices, err := parseLsblk([]byte(`{"blockdevices": [
		{"name":"sda", "fstype":null, "children": [{"name":"sda1", "fstype":"ext4", "fssize":null, "fsavail":null, "fsused":null}]}
	]}`))
	require.NoError(t, err)

	storage := buildBays(devices, []string{"sda", "sdb"}, nil)
	assert.Equal(t, metric.DiskStateNotMounted, storage.state)
	assert.True(t, storage.bays[0].Present)
	assert.False(t, storage.bays[1].Present)

	storage = buildBays(nil, []string{"sda", "sdb"}, nil)
	assert.Equal(t, metric.DiskStateUnpartitioned, storage.state)
}

func TestParseSmartTemperature(t *testing.T) {
	temperature, err := parseSmartTemperature([]byte(`{"smartctl": {"exit_status": 4}, "temperature": {"current": 38}}`))
	require.NoError(t, err)
	assert.Equal(t, 38.0, temperature)

	temperature, err = parseSmartTemperature([]byte(`{"smartctl": {"exit_status": 2}}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, temperature)

	_, err = parseSmartTemperature([]byte(`not json`))
	assert.Error(t, err)
}
