package srv

import (
	"context"
	"errors"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/fancontrol"
	"github.com/jypelle/nashat/internal/srv/telemetry"
	"github.com/sirupsen/logrus"
	"time"
)

type fanOutput interface {
	SetDuty(percent int) error
}

// fanRegulator turns the latest snapshot into a fan duty. It belongs to the
// fan loop.
type fanRegulator struct {
	state      *config.ServerState
	fan        fanOutput
	controller *fancontrol.Controller
	recorder   telemetry.Recorder

	lastDuty    int
	writeFailed bool
}

func newFanRegulator(state *config.ServerState, fan fanOutput, settings fancontrol.Settings, recorder telemetry.Recorder) *fanRegulator {
	return &fanRegulator{
		state:      state,
		fan:        fan,
		controller: fancontrol.NewController(settings),
		recorder:   recorder,
		lastDuty:   -1,
	}
}

// tick runs one control cycle. The duty is written when it changes, or again
// after a failed write.
func (f *fanRegulator) tick(ctx context.Context, now time.Time) (fancontrol.Decision, error) {
	snapshot := f.state.Snapshot()
	if snapshot == nil {
		return f.controller.Current(), fancontrol.ErrSensorUnavailable
	}

	var decision fancontrol.Decision
	reference, err := fancontrol.ReferenceTemperature(snapshot.CPUTemperature, snapshot.BayTemperatures())
	if err != nil {
		logrus.WithError(err).Warn("Keep current fan speed")
		decision = f.controller.Current()
		if f.lastDuty < 0 {
			return decision, err
		}
	} else {
		decision = f.controller.Update(reference, f.state.FanMode() == config.TurboFanMode)
	}

	if decision.Duty != f.lastDuty || f.writeFailed {
		if writeErr := f.fan.SetDuty(decision.Duty); writeErr != nil {
			f.writeFailed = true
			f.state.RaiseError()
			return decision, writeErr
		}
		logrus.Debugf("Fan duty %d%% (speed %d, reference %.1f°C)", decision.Duty, decision.Speed, decision.ReferenceTemperature)
		f.lastDuty = decision.Duty
		f.writeFailed = false
	}

	if err == nil {
		sample := telemetry.Sample{
			Timestamp:            now,
			ReferenceTemperature: decision.ReferenceTemperature,
			CPUTemperature:       snapshot.CPUTemperature,
			Speed:                decision.Speed,
			Duty:                 decision.Duty,
			Turbo:                decision.Turbo,
			Held:                 decision.Held,
		}
		if recordErr := f.recorder.Record(ctx, sample); recordErr != nil {
			logrus.WithError(recordErr).Warn("Unable to record fan telemetry")
		}
	}
	return decision, err
}

func (s *ServerApp) fanLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Fan.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.regulator.tick(ctx, now); err != nil && !errors.Is(err, fancontrol.ErrSensorUnavailable) {
				logrus.WithError(err).WithField("loop", "fan").Error("Fan control cycle failed")
			}
		}
	}
}
