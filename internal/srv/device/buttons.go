package device

import (
	"context"
	"fmt"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/event"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
	"time"
)

type edgePin interface {
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Buttons watches the front button, wired active low with the internal pull-up,
// and emits one event per press once it is released.
type Buttons struct {
	param          config.ButtonParam
	simulationMode bool
	pin            edgePin
	now            func() time.Time

	eventChannel chan event.ButtonEvent
}

func NewButtons(param config.ButtonParam, simulationMode bool) (*Buttons, error) {
	b := &Buttons{
		param:          param,
		simulationMode: simulationMode,
		now:            time.Now,
		eventChannel:   make(chan event.ButtonEvent),
	}
	if simulationMode {
		return b, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, &config.ConfigurationError{Resource: "periph host", Err: err}
	}
	pin := gpioreg.ByName(param.Pin)
	if pin == nil {
		return nil, &config.ConfigurationError{Resource: "button pin", Err: fmt.Errorf("unknown gpio %q", param.Pin)}
	}
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, &config.ConfigurationError{Resource: "button pin " + param.Pin, Err: err}
	}
	b.pin = pin
	return b, nil
}

func (b *Buttons) EventChannel() <-chan event.ButtonEvent {
	return b.eventChannel
}

// Run waits for button edges until ctx is done, then closes the event channel.
// Each wait is bounded by the edge timeout so cancellation is noticed promptly.
func (b *Buttons) Run(ctx context.Context) {
	logrus.Infof("Start buttons device")
	defer close(b.eventChannel)

	if b.simulationMode {
		<-ctx.Done()
		return
	}

	var pressed bool
	var pressedAt time.Time
	for ctx.Err() == nil {
		b.pin.WaitForEdge(b.param.EdgeTimeout)
		level := b.pin.Read()
		now := b.now()

		switch {
		case level == gpio.Low && !pressed:
			pressed = true
			pressedAt = now
		case level == gpio.High && pressed:
			pressed = false
			ev := event.ButtonEvent{PressedAt: pressedAt, Duration: now.Sub(pressedAt)}
			logrus.Debugf("Button released after %v", ev.Duration)
			select {
			case b.eventChannel <- ev:
			case <-ctx.Done():
			}
		}
	}
	logrus.Infof("Stop buttons device")
}
