package fancontrol

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestReferenceTemperature(t *testing.T) {
	reference, err := ReferenceTemperature(60, []float64{40, 50})
	require.NoError(t, err)
	assert.InDelta(t, 0.6*60+0.2*40+0.2*50, reference, 1e-9)

	// One bay missing: 0.6 and 0.2 renormalised to 0.75 and 0.25.
	reference, err = ReferenceTemperature(60, []float64{0, 40})
	require.NoError(t, err)
	assert.InDelta(t, 55, reference, 1e-9)

	reference, err = ReferenceTemperature(-1, []float64{40, 50})
	require.NoError(t, err)
	assert.InDelta(t, 45, reference, 1e-9)

	_, err = ReferenceTemperature(0, []float64{0, -5})
	assert.ErrorIs(t, err, ErrSensorUnavailable)
}

func TestControllerHysteresis(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxSpeedChange = 100
	controller := NewController(settings)

	first := controller.Update(70, false)
	assert.Equal(t, 32, first.Speed)
	assert.False(t, first.Held)

	// 72 would give 35 on the curve but stays below the 3°C dead band.
	second := controller.Update(72, false)
	assert.True(t, second.Held)
	assert.Equal(t, 32, second.Speed)

	third := controller.Update(73, false)
	assert.False(t, third.Held)
	assert.Equal(t, 37, third.Speed)
}

func TestControllerRampLimit(t *testing.T) {
	controller := NewController(DefaultSettings())

	previous := 0
	for _, reference := range []float64{90, 90.5, 95, 40, 30} {
		decision := controller.Update(reference, false)
		step := decision.Speed - previous
		assert.LessOrEqual(t, step, 10)
		assert.GreaterOrEqual(t, step, -10)
		previous = decision.Speed
	}

	decision := NewController(DefaultSettings()).Update(90, false)
	assert.Equal(t, 10, decision.Speed)
	assert.Equal(t, Duty(10, 35), decision.Duty)
}

func TestControllerModeChangeBypassesHysteresis(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxSpeedChange = 100
	controller := NewController(settings)

	assert.Equal(t, 0, controller.Update(50, false).Speed)

	decision := controller.Update(51, true)
	assert.False(t, decision.Held)
	assert.True(t, decision.Turbo)
	assert.Equal(t, 32, decision.Speed)

	assert.True(t, controller.Update(52, true).Held)
}

func TestControllerHeldRampStopsShort(t *testing.T) {
	controller := NewController(DefaultSettings())

	var decision Decision
	for i := 0; i < 10; i++ {
		decision = controller.Update(80, false)
	}
	// Only the first tick passed the gate: the target of 45 is never reached.
	assert.Equal(t, 10, decision.Speed)
	assert.True(t, decision.Held)
}

func TestControllerRampWhileHeld(t *testing.T) {
	settings := DefaultSettings()
	settings.RampWhileHeld = true
	controller := NewController(settings)

	var speeds []int
	for i := 0; i < 6; i++ {
		speeds = append(speeds, controller.Update(80, false).Speed)
	}
	assert.Equal(t, []int{10, 20, 30, 40, 45, 45}, speeds)

	// Falling back below the first threshold ramps down the same way.
	assert.Equal(t, 35, controller.Update(50, false).Speed)
	held := controller.Update(51, false)
	assert.True(t, held.Held)
	assert.Equal(t, 25, held.Speed)
	assert.Equal(t, Duty(25, 35), held.Duty)
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	settings := DefaultSettings()
	settings.MaxSpeedChange = 0
	assert.Error(t, settings.Validate())

	settings = DefaultSettings()
	settings.Turbo = Curve{}
	assert.Error(t, settings.Validate())
}
