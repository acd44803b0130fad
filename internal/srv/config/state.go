package config

import (
	"errors"
	"fmt"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const saveDelay = 10 * time.Second

const FullBrightness = 100

type DisplayMode int32

const (
	DeviceStatusMode DisplayMode = iota
	StorageFocusMode
)

func (m DisplayMode) Toggle() DisplayMode {
	if m == DeviceStatusMode {
		return StorageFocusMode
	}
	return DeviceStatusMode
}

func (m DisplayMode) String() string {
	if m == StorageFocusMode {
		return "storage_focus"
	}
	return "device_status"
}

type FanMode int32

const (
	DefaultFanMode FanMode = iota
	TurboFanMode
)

func (m FanMode) Toggle() FanMode {
	if m == DefaultFanMode {
		return TurboFanMode
	}
	return DefaultFanMode
}

func (m FanMode) String() string {
	if m == TurboFanMode {
		return "turbo"
	}
	return "default"
}

// ServerState is shared by every loop of the server. Each field is a single
// atomic word, the metric snapshot is swapped as a whole. Display and fan modes
// are persisted to the state file shortly after they change.
type ServerState struct {
	displayMode  atomic.Int32
	fanMode      atomic.Int32
	brightness   atomic.Int32
	errorFlag    atomic.Bool
	lastActivity atomic.Int64
	snapshot     atomic.Pointer[metric.Snapshot]

	lock                  sync.Mutex
	backupTimer           *time.Timer
	completeStateFilename string
}

type ServerStateConfig struct {
	DisplayMode string `yaml:"display_mode"`
	FanMode     string `yaml:"fan_mode"`
}

// NewServerState restores the modes saved in completeStateFilename. An empty
// filename disables persistence.
func NewServerState(completeStateFilename string) (*ServerState, error) {
	serverState := &ServerState{
		completeStateFilename: completeStateFilename,
	}
	serverState.brightness.Store(FullBrightness)
	serverState.lastActivity.Store(time.Now().UnixNano())

	if completeStateFilename == "" {
		return serverState, nil
	}

	rawConfig, err := os.ReadFile(completeStateFilename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Infof("No state file, start with default modes")
			return serverState, nil
		}
		return nil, err
	}

	var serverStateConfig ServerStateConfig
	if err = yaml.Unmarshal(rawConfig, &serverStateConfig); err != nil {
		return nil, fmt.Errorf("unable to interpret state file: %w", err)
	}
	if serverStateConfig.DisplayMode == StorageFocusMode.String() {
		serverState.displayMode.Store(int32(StorageFocusMode))
	}
	if serverStateConfig.FanMode == TurboFanMode.String() {
		serverState.fanMode.Store(int32(TurboFanMode))
	}

	return serverState, nil
}

func (ss *ServerState) DisplayMode() DisplayMode {
	return DisplayMode(ss.displayMode.Load())
}

func (ss *ServerState) ToggleDisplayMode() DisplayMode {
	for {
		current := ss.displayMode.Load()
		next := DisplayMode(current).Toggle()
		if ss.displayMode.CompareAndSwap(current, int32(next)) {
			ss.scheduleSave()
			return next
		}
	}
}

func (ss *ServerState) FanMode() FanMode {
	return FanMode(ss.fanMode.Load())
}

func (ss *ServerState) ToggleFanMode() FanMode {
	for {
		current := ss.fanMode.Load()
		next := FanMode(current).Toggle()
		if ss.fanMode.CompareAndSwap(current, int32(next)) {
			ss.scheduleSave()
			return next
		}
	}
}

func (ss *ServerState) Brightness() int {
	return int(ss.brightness.Load())
}

func (ss *ServerState) SetBrightness(percent int) {
	ss.brightness.Store(int32(percent))
}

func (ss *ServerState) ErrorFlag() bool {
	return ss.errorFlag.Load()
}

func (ss *ServerState) RaiseError() {
	ss.errorFlag.Store(true)
}

func (ss *ServerState) ClearError() {
	ss.errorFlag.Store(false)
}

func (ss *ServerState) LastActivity() time.Time {
	return time.Unix(0, ss.lastActivity.Load())
}

func (ss *ServerState) Touch(now time.Time) {
	ss.lastActivity.Store(now.UnixNano())
}

// PublishSnapshot replaces the current snapshot. The caller must not modify
// snapshot afterwards.
func (ss *ServerState) PublishSnapshot(snapshot *metric.Snapshot) {
	ss.snapshot.Store(snapshot)
}

// Snapshot returns the last published snapshot, nil before the first collection.
func (ss *ServerState) Snapshot() *metric.Snapshot {
	return ss.snapshot.Load()
}

func (ss *ServerState) scheduleSave() {
	if ss.completeStateFilename == "" {
		return
	}
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer == nil {
		ss.backupTimer = time.AfterFunc(saveDelay, func() {
			ss.lock.Lock()
			defer ss.lock.Unlock()
			ss.save()
		})
	} else {
		ss.backupTimer.Reset(saveDelay)
	}
}

func (ss *ServerState) save() {
	logrus.Infof("Save state file: %s", ss.completeStateFilename)
	rawConfig, err := yaml.Marshal(&ServerStateConfig{
		DisplayMode: ss.DisplayMode().String(),
		FanMode:     ss.FanMode().String(),
	})
	if err != nil {
		logrus.WithError(err).Error("Unable to serialize state file")
		return
	}
	if err = os.WriteFile(ss.completeStateFilename, rawConfig, 0660); err != nil {
		logrus.WithError(err).Error("Unable to save state file")
	}
}

// FlushSave writes a pending save immediately.
func (ss *ServerState) FlushSave() {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	if ss.backupTimer != nil {
		if ss.backupTimer.Stop() {
			ss.save()
		}
	}
}
