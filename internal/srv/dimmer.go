package srv

import (
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
)

type backlight interface {
	SetBacklight(percent int) error
}

// dimmer lowers the backlight after a period without button activity. Both
// transitions go through the same lock so the panel and the shared brightness
// never disagree.
type dimmer struct {
	lock sync.Mutex

	state     *config.ServerState
	backlight backlight
	level     int
	timeout   time.Duration
}

func newDimmer(state *config.ServerState, backlight backlight, level int, timeout time.Duration) *dimmer {
	return &dimmer{
		state:     state,
		backlight: backlight,
		level:     level,
		timeout:   timeout,
	}
}

// Check dims the panel when it is at full brightness and idle for longer than
// the timeout.
func (d *dimmer) Check(now time.Time) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.state.Brightness() != config.FullBrightness {
		return nil
	}
	if now.Sub(d.state.LastActivity()) <= d.timeout {
		return nil
	}
	if err := d.backlight.SetBacklight(d.level); err != nil {
		d.state.RaiseError()
		return err
	}
	logrus.Debugf("Dim backlight to %d%%", d.level)
	d.state.SetBrightness(d.level)
	return nil
}

// Wake records user activity and restores full brightness.
func (d *dimmer) Wake(now time.Time) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.state.Touch(now)
	if d.state.Brightness() == config.FullBrightness {
		return nil
	}
	if err := d.backlight.SetBacklight(config.FullBrightness); err != nil {
		d.state.RaiseError()
		return err
	}
	logrus.Debugf("Restore full backlight")
	d.state.SetBrightness(config.FullBrightness)
	return nil
}
