package device

import (
	"fmt"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
	"sync"
)

// Fan drives the cooling fan PWM pin.
type Fan struct {
	lock sync.Mutex

	param          config.FanParam
	simulationMode bool
	pin            gpio.PinIO

	duty    int
	stopped bool
}

func NewFan(param config.FanParam, simulationMode bool) (*Fan, error) {
	f := &Fan{
		param:          param,
		simulationMode: simulationMode,
	}
	if simulationMode {
		return f, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, &config.ConfigurationError{Resource: "periph host", Err: err}
	}
	f.pin = gpioreg.ByName(param.Pin)
	if f.pin == nil {
		return nil, &config.ConfigurationError{Resource: "fan pin", Err: fmt.Errorf("unknown gpio %q", param.Pin)}
	}
	return f, nil
}

// Start spins the fan at the startup duty until the first control step.
func (f *Fan) Start() error {
	logrus.Infof("Start fan device")
	return f.SetDuty(f.param.StartupDuty)
}

// SetDuty applies a PWM duty cycle in percent.
func (f *Fan) SetDuty(percent int) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.stopped {
		return nil
	}
	logrus.Debugf("Set fan duty to %d%%", percent)
	if !f.simulationMode {
		if err := setDuty(f.pin, percent, physic.Frequency(f.param.PwmFrequencyHz)*physic.Hertz); err != nil {
			return hardwareError("fan", err)
		}
	}
	f.duty = percent
	return nil
}

func (f *Fan) Duty() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.duty
}

// Stop halts the PWM and holds the pin low. Later calls do nothing.
func (f *Fan) Stop() error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.stopped {
		return nil
	}
	f.stopped = true
	logrus.Infof("Stop fan device")

	if f.simulationMode {
		return nil
	}
	if err := f.pin.Halt(); err != nil {
		return hardwareError("fan", err)
	}
	return hardwareError("fan", f.pin.Out(gpio.Low))
}
