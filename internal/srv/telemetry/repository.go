package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type sqliteRecorder struct {
	db        *sql.DB
	mu        sync.Mutex
	retention time.Duration
}

func newSqliteRecorder(dbPath string, retention time.Duration) (*sqliteRecorder, error) {
	if dbPath == "" {
		return nil, ErrInvalidDBPath
	}

	logrus.Debugf("Open telemetry database: %s", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0770); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry schema: %w", err)
	}

	return &sqliteRecorder{db: db, retention: retention}, nil
}

func (r *sqliteRecorder) Record(ctx context.Context, sample Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO fan_history (
            timestamp, reference_temperature, cpu_temperature, speed, duty, turbo, held
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(timestamp) DO UPDATE SET
            reference_temperature = excluded.reference_temperature,
            cpu_temperature = excluded.cpu_temperature,
            speed = excluded.speed,
            duty = excluded.duty,
            turbo = excluded.turbo,
            held = excluded.held
    `,
		sample.Timestamp.UnixMilli(),
		sample.ReferenceTemperature,
		sample.CPUTemperature,
		sample.Speed,
		sample.Duty,
		boolToInt(sample.Turbo),
		boolToInt(sample.Held),
	)
	if err != nil {
		return fmt.Errorf("telemetry insert: %w", err)
	}

	if r.retention > 0 {
		_, err = r.db.ExecContext(ctx, `DELETE FROM fan_history WHERE timestamp < ?`,
			sample.Timestamp.Add(-r.retention).UnixMilli())
		if err != nil {
			return fmt.Errorf("telemetry prune: %w", err)
		}
	}
	return nil
}

// History returns the latest samples, most recent first.
func (r *sqliteRecorder) History(ctx context.Context, limit int) ([]Sample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, `
        SELECT timestamp, reference_temperature, cpu_temperature, speed, duty, turbo, held
        FROM fan_history
        ORDER BY timestamp DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry query: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sample Sample
		var timestamp int64
		var turbo, held int
		if err := rows.Scan(&timestamp, &sample.ReferenceTemperature, &sample.CPUTemperature, &sample.Speed, &sample.Duty, &turbo, &held); err != nil {
			return nil, fmt.Errorf("telemetry scan: %w", err)
		}
		sample.Timestamp = time.UnixMilli(timestamp)
		sample.Turbo = turbo != 0
		sample.Held = held != 0
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func (r *sqliteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
