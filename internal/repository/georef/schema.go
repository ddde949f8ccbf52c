package georef

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS provinces (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cities (
		code          TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		province_code TEXT NOT NULL REFERENCES provinces(code),
		zip_code      TEXT NOT NULL DEFAULT '',
		type          TEXT NOT NULL DEFAULT 'municipality'
	)`,
	`CREATE TABLE IF NOT EXISTS barangays (
		code      TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		city_code TEXT NOT NULL REFERENCES cities(code)
	)`,
	`CREATE INDEX IF NOT EXISTS cities_province_code_idx ON cities (province_code)`,
	`CREATE INDEX IF NOT EXISTS barangays_city_code_idx ON barangays (city_code)`,
}

// Migrate creates the reference tables if they do not exist. Runs once, no retry.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate reference schema: %w", err)
		}
	}
	return nil
}
