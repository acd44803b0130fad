package fancontrol

import (
	"fmt"
	"math"
)

// Point is one breakpoint of a fan curve: at Temperature (°C) the fan runs at
// Speed percent.
type Point struct {
	Temperature float64 `yaml:"temperature"`
	Speed       int     `yaml:"speed"`
}

// Curve is an ordered list of breakpoints, thresholds strictly increasing.
type Curve []Point

var (
	QuietCurve = Curve{
		{Temperature: 55, Speed: 0},
		{Temperature: 65, Speed: 25},
		{Temperature: 75, Speed: 40},
		{Temperature: 85, Speed: 50},
	}
	TurboCurve = Curve{
		{Temperature: 45, Speed: 20},
		{Temperature: 55, Speed: 40},
		{Temperature: 65, Speed: 60},
		{Temperature: 75, Speed: 80},
		{Temperature: 85, Speed: 100},
	}
)

// Speed evaluates the curve at temperature t. Below the first threshold the fan
// is off, past the last one it stays at the last speed, in between the speed is
// linearly interpolated and floored.
func (c Curve) Speed(t float64) int {
	if len(c) == 0 || t < c[0].Temperature {
		return 0
	}
	for i := 1; i < len(c); i++ {
		if t < c[i].Temperature {
			prev, next := c[i-1], c[i]
			ratio := (t - prev.Temperature) / (next.Temperature - prev.Temperature)
			return int(math.Floor(float64(prev.Speed) + ratio*float64(next.Speed-prev.Speed)))
		}
	}
	return c[len(c)-1].Speed
}

func (c Curve) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("empty curve")
	}
	for i, point := range c {
		if point.Speed < 0 || point.Speed > 100 {
			return fmt.Errorf("point %d: speed %d out of [0,100]", i, point.Speed)
		}
		if i == 0 {
			continue
		}
		if point.Temperature <= c[i-1].Temperature {
			return fmt.Errorf("point %d: temperature %.1f not above %.1f", i, point.Temperature, c[i-1].Temperature)
		}
		if point.Speed < c[i-1].Speed {
			return fmt.Errorf("point %d: speed %d below previous speed %d", i, point.Speed, c[i-1].Speed)
		}
	}
	return nil
}

// Duty maps a logical fan speed to the PWM duty cycle driving the motor. Any
// running speed is lifted above minDuty, below which the motor stalls.
func Duty(speed int, minDuty int) int {
	if speed <= 0 {
		return 0
	}
	if speed > 100 {
		speed = 100
	}
	return int(math.Floor(float64(speed)*float64(100-minDuty)/100 + float64(minDuty)))
}
