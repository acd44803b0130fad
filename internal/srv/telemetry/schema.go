package telemetry

import "database/sql"

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS fan_history (
            timestamp INTEGER PRIMARY KEY,
            reference_temperature REAL,
            cpu_temperature REAL,
            speed INTEGER,
            duty INTEGER,
            turbo INTEGER,
            held INTEGER
        )
    `)
	return err
}
