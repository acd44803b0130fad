package device

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

type pwmPin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

// setDuty drives pin with a duty cycle of percent, clamped to [0,100]. A zero
// duty holds the pin low instead of running the PWM.
func setDuty(pin pwmPin, percent int, frequency physic.Frequency) error {
	if percent <= 0 {
		return pin.Out(gpio.Low)
	}
	if percent > 100 {
		percent = 100
	}
	return pin.PWM(gpio.Duty(int64(gpio.DutyMax)*int64(percent)/100), frequency)
}
