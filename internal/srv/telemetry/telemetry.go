// Package telemetry keeps a history of the fan control decisions in a sqlite
// database, to tune curves against real workloads.
package telemetry

import (
	"context"
	"errors"
	"github.com/jypelle/nashat/internal/srv/config"
	"time"
)

var ErrInvalidDBPath = errors.New("telemetry: empty database path")

type Sample struct {
	Timestamp            time.Time
	ReferenceTemperature float64
	CPUTemperature       float64
	Speed                int
	Duty                 int
	Turbo                bool
	Held                 bool
}

type Recorder interface {
	Record(ctx context.Context, sample Sample) error
	History(ctx context.Context, limit int) ([]Sample, error)
	Close() error
}

// NewRecorder opens the database when telemetry is enabled, otherwise it
// returns a recorder discarding every sample. Each record drops the rows older
// than param.Retention relative to the recorded sample.
func NewRecorder(param config.TelemetryParam) (Recorder, error) {
	if !param.Enabled {
		return nopRecorder{}, nil
	}
	recorder, err := newSqliteRecorder(param.DBPath, param.Retention)
	if err != nil {
		return nil, err
	}
	return recorder, nil
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Sample) error { return nil }

func (nopRecorder) History(context.Context, int) ([]Sample, error) { return nil, nil }

func (nopRecorder) Close() error { return nil }
