package telemetry

import (
	"context"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"testing"
	"time"
)

func TestDisabledRecorder(t *testing.T) {
	recorder, err := NewRecorder(config.TelemetryParam{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, recorder.Record(context.Background(), Sample{Speed: 10}))
	history, err := recorder.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NoError(t, recorder.Close())
}

func TestSqliteRecorder(t *testing.T) {
	_, err := NewRecorder(config.TelemetryParam{Enabled: true})
	assert.ErrorIs(t, err, ErrInvalidDBPath)

	recorder, err := NewRecorder(config.TelemetryParam{Enabled: true, DBPath: filepath.Join(t.TempDir(), "db", "telemetry.db")})
	require.NoError(t, err)
	defer recorder.Close()

	ctx := context.Background()
	start := time.UnixMilli(1700000000000)
	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start, ReferenceTemperature: 52.5, CPUTemperature: 55, Speed: 0, Duty: 0}))
	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start.Add(5 * time.Second), ReferenceTemperature: 66, CPUTemperature: 70, Speed: 10, Duty: 41, Turbo: true}))
	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start.Add(10 * time.Second), ReferenceTemperature: 67, CPUTemperature: 71, Speed: 10, Duty: 41, Turbo: true, Held: true}))

	history, err := recorder.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Timestamp.Equal(start.Add(10*time.Second)))
	assert.True(t, history[0].Held)
	assert.Equal(t, 41, history[1].Duty)
	assert.True(t, history[1].Turbo)
	assert.False(t, history[1].Held)
	assert.Equal(t, 66.0, history[1].ReferenceTemperature)
}

func TestSqliteRecorderRetention(t *testing.T) {
	recorder, err := NewRecorder(config.TelemetryParam{
		Enabled:   true,
		DBPath:    filepath.Join(t.TempDir(), "telemetry.db"),
		Retention: time.Hour,
	})
	require.NoError(t, err)
	defer recorder.Close()

	ctx := context.Background()
	start := time.UnixMilli(1700000000000)
	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start, Speed: 1}))
	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start.Add(30 * time.Minute), Speed: 2}))
	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start.Add(time.Hour), Speed: 3}))

	// Exactly one retention period old is still kept.
	history, err := recorder.History(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	require.NoError(t, recorder.Record(ctx, Sample{Timestamp: start.Add(90*time.Minute + time.Millisecond), Speed: 4}))
	history, err = recorder.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].Speed)
	assert.Equal(t, 3, history[1].Speed)
}
