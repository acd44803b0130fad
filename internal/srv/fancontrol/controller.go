package fancontrol

import (
	"errors"
	"fmt"
)

var ErrSensorUnavailable = errors.New("no temperature sensor available")

const (
	cpuWeight = 0.6
	bayWeight = 0.2
)

// ReferenceTemperature blends the CPU and bay temperatures into the single value
// driving the fan. Sensors reporting <= 0 are ignored and the weights of the
// remaining ones are scaled back to a total of 1.
func ReferenceTemperature(cpu float64, bays []float64) (float64, error) {
	var sum, weights float64
	if cpu > 0 {
		sum += cpuWeight * cpu
		weights += cpuWeight
	}
	for _, bay := range bays {
		if bay > 0 {
			sum += bayWeight * bay
			weights += bayWeight
		}
	}
	if weights == 0 {
		return 0, ErrSensorUnavailable
	}
	return sum / weights, nil
}

type Settings struct {
	Quiet          Curve
	Turbo          Curve
	Hysteresis     float64
	MaxSpeedChange int
	MinDuty        int

	// RampWhileHeld keeps stepping toward the last target while the hysteresis
	// gate holds the reference. Without it a ramp cut short by the gate stays
	// where it stopped until the temperature moves again.
	RampWhileHeld bool
}

func DefaultSettings() Settings {
	return Settings{
		Quiet:          QuietCurve,
		Turbo:          TurboCurve,
		Hysteresis:     3,
		MaxSpeedChange: 10,
		MinDuty:        35,
	}
}

func (s Settings) Validate() error {
	if err := s.Quiet.Validate(); err != nil {
		return fmt.Errorf("default curve: %w", err)
	}
	if err := s.Turbo.Validate(); err != nil {
		return fmt.Errorf("turbo curve: %w", err)
	}
	if s.Hysteresis < 0 {
		return fmt.Errorf("negative hysteresis %.1f", s.Hysteresis)
	}
	if s.MaxSpeedChange <= 0 || s.MaxSpeedChange > 100 {
		return fmt.Errorf("max speed change %d out of ]0,100]", s.MaxSpeedChange)
	}
	if s.MinDuty < 0 || s.MinDuty > 100 {
		return fmt.Errorf("min duty %d out of [0,100]", s.MinDuty)
	}
	return nil
}

type Decision struct {
	ReferenceTemperature float64
	Speed                int
	Duty                 int
	Turbo                bool
	// Held is set when the hysteresis gate rejected the reference.
	Held bool
}

// Controller is not safe for concurrent use: it belongs to the fan loop.
type Controller struct {
	settings Settings

	lastReference float64
	target        int
	speed         int
	turbo         bool
}

func NewController(settings Settings) *Controller {
	return &Controller{settings: settings}
}

// Update runs one control step for the reference temperature. Switching between
// the quiet and turbo curves bypasses the hysteresis gate.
func (c *Controller) Update(reference float64, turbo bool) Decision {
	modeChanged := turbo != c.turbo
	c.turbo = turbo

	delta := reference - c.lastReference
	if delta < 0 {
		delta = -delta
	}
	if !modeChanged && delta < c.settings.Hysteresis {
		if c.settings.RampWhileHeld {
			c.stepTowardTarget()
		}
		decision := c.Current()
		decision.ReferenceTemperature = reference
		decision.Held = true
		return decision
	}
	c.lastReference = reference

	curve := c.settings.Quiet
	if turbo {
		curve = c.settings.Turbo
	}
	c.target = curve.Speed(reference)
	c.stepTowardTarget()

	decision := c.Current()
	decision.ReferenceTemperature = reference
	return decision
}

func (c *Controller) stepTowardTarget() {
	step := c.target - c.speed
	if step > c.settings.MaxSpeedChange {
		step = c.settings.MaxSpeedChange
	} else if step < -c.settings.MaxSpeedChange {
		step = -c.settings.MaxSpeedChange
	}
	c.speed += step
}

// Current returns the last applied speed without running a control step.
func (c *Controller) Current() Decision {
	return Decision{
		ReferenceTemperature: c.lastReference,
		Speed:                c.speed,
		Duty:                 Duty(c.speed, c.settings.MinDuty),
		Turbo:                c.turbo,
	}
}
