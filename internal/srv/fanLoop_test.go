package srv

import (
	"context"
	"github.com/jypelle/nashat/internal/srv/fancontrol"
	"github.com/jypelle/nashat/internal/srv/metric"
	"github.com/jypelle/nashat/internal/srv/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type memoryRecorder struct {
	samples []telemetry.Sample
}

func (r *memoryRecorder) Record(_ context.Context, sample telemetry.Sample) error {
	r.samples = append(r.samples, sample)
	return nil
}

func (r *memoryRecorder) History(_ context.Context, limit int) ([]telemetry.Sample, error) {
	return r.samples, nil
}

func (r *memoryRecorder) Close() error {
	return nil
}

func cpuOnlySnapshot(cpu float64) *metric.Snapshot {
	snapshot := sampleSnapshot(baseTime)
	snapshot.CPUTemperature = cpu
	for i := range snapshot.Bays {
		snapshot.Bays[i].Temperature = 0
	}
	return snapshot
}

func TestFanRegulatorWithoutSnapshot(t *testing.T) {
	state := newTestState(t)
	fan := &fakeFan{}
	regulator := newFanRegulator(state, fan, fancontrol.DefaultSettings(), &memoryRecorder{})

	_, err := regulator.tick(context.Background(), baseTime)
	assert.ErrorIs(t, err, fancontrol.ErrSensorUnavailable)
	assert.Empty(t, fan.duties)
}

func TestFanRegulatorRampAndHold(t *testing.T) {
	state := newTestState(t)
	fan := &fakeFan{}
	recorder := &memoryRecorder{}
	regulator := newFanRegulator(state, fan, fancontrol.DefaultSettings(), recorder)
	state.PublishSnapshot(cpuOnlySnapshot(70))

	decision, err := regulator.tick(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Equal(t, 10, decision.Speed)
	assert.Equal(t, 41, decision.Duty)
	assert.Equal(t, []int{41}, fan.duties)

	decision, err = regulator.tick(context.Background(), baseTime.Add(5*time.Second))
	require.NoError(t, err)
	assert.True(t, decision.Held)
	assert.Equal(t, []int{41}, fan.duties, "unchanged duty is not rewritten")

	require.Len(t, recorder.samples, 2)
	assert.Equal(t, 70.0, recorder.samples[0].ReferenceTemperature)
	assert.True(t, recorder.samples[1].Held)
}

func TestFanRegulatorTurboBypassesHysteresis(t *testing.T) {
	state := newTestState(t)
	fan := &fakeFan{}
	regulator := newFanRegulator(state, fan, fancontrol.DefaultSettings(), &memoryRecorder{})
	state.PublishSnapshot(cpuOnlySnapshot(70))

	_, err := regulator.tick(context.Background(), baseTime)
	require.NoError(t, err)

	state.ToggleFanMode()
	decision, err := regulator.tick(context.Background(), baseTime.Add(5*time.Second))
	require.NoError(t, err)
	assert.True(t, decision.Turbo)
	assert.False(t, decision.Held)
	assert.Equal(t, 20, decision.Speed)
	assert.Equal(t, []int{41, 48}, fan.duties)
}

func TestFanRegulatorRetriesFailedWrite(t *testing.T) {
	state := newTestState(t)
	fan := &fakeFan{err: errBusFault}
	regulator := newFanRegulator(state, fan, fancontrol.DefaultSettings(), &memoryRecorder{})
	state.PublishSnapshot(cpuOnlySnapshot(70))

	_, err := regulator.tick(context.Background(), baseTime)
	assert.ErrorIs(t, err, errBusFault)
	assert.True(t, state.ErrorFlag())

	fan.err = nil
	_, err = regulator.tick(context.Background(), baseTime.Add(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []int{41}, fan.duties)
}

func TestFanRegulatorSensorLoss(t *testing.T) {
	state := newTestState(t)
	fan := &fakeFan{}
	recorder := &memoryRecorder{}
	regulator := newFanRegulator(state, fan, fancontrol.DefaultSettings(), recorder)

	state.PublishSnapshot(cpuOnlySnapshot(0))
	_, err := regulator.tick(context.Background(), baseTime)
	assert.ErrorIs(t, err, fancontrol.ErrSensorUnavailable)
	assert.Empty(t, fan.duties, "startup duty is kept")

	state.PublishSnapshot(cpuOnlySnapshot(70))
	_, err = regulator.tick(context.Background(), baseTime.Add(5*time.Second))
	require.NoError(t, err)

	state.PublishSnapshot(cpuOnlySnapshot(0))
	decision, err := regulator.tick(context.Background(), baseTime.Add(10*time.Second))
	assert.ErrorIs(t, err, fancontrol.ErrSensorUnavailable)
	assert.Equal(t, 10, decision.Speed, "previous speed is kept")
	assert.Equal(t, []int{41}, fan.duties)
	assert.Len(t, recorder.samples, 1)
}
