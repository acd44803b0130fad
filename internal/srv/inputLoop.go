package srv

import (
	"context"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/event"
	"github.com/sirupsen/logrus"
	"time"
)

type Action int

const (
	NoAction Action = iota
	ToggleDisplayModeAction
	ToggleFanModeAction
)

func (a Action) String() string {
	switch a {
	case ToggleDisplayModeAction:
		return "toggle_display_mode"
	case ToggleFanModeAction:
		return "toggle_fan_mode"
	default:
		return "none"
	}
}

// Classify maps a button hold duration to an action. Thresholds are
// inclusive.
func Classify(hold, short, long time.Duration) Action {
	switch {
	case hold >= long:
		return ToggleFanModeAction
	case hold >= short:
		return ToggleDisplayModeAction
	default:
		return NoAction
	}
}

type inputDispatcher struct {
	state  *config.ServerState
	dimmer *dimmer
	short  time.Duration
	long   time.Duration
}

// handle applies the action of one press and wakes the backlight right away.
func (d *inputDispatcher) handle(buttonEvent event.ButtonEvent, now time.Time) Action {
	action := Classify(buttonEvent.Duration, d.short, d.long)
	switch action {
	case ToggleDisplayModeAction:
		logrus.Infof("Display mode: %s", d.state.ToggleDisplayMode())
	case ToggleFanModeAction:
		logrus.Infof("Fan mode: %s", d.state.ToggleFanMode())
	default:
		logrus.Debugf("Ignore short press (%v)", buttonEvent.Duration)
		return action
	}

	if err := d.dimmer.Wake(now); err != nil {
		logrus.WithError(err).Warn("Unable to restore backlight")
	}
	return action
}

func (s *ServerApp) inputLoop(ctx context.Context) {
	dispatchEvents(ctx, s.buttonsDevice.EventChannel(), s.input)
}

// dispatchEvents handles button events until ctx is done or events is closed.
func dispatchEvents(ctx context.Context, events <-chan event.ButtonEvent, dispatcher *inputDispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case buttonEvent, ok := <-events:
			if !ok {
				return
			}
			dispatcher.handle(buttonEvent, time.Now())
		}
	}
}
