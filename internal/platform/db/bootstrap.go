package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// bootstrapStatements creates every table the clinic needs. Each statement is
// idempotent, so Bootstrap can run on every process start.
var bootstrapStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		adresse TEXT,
		age INTEGER,
		date_of_birth DATE,
		poids REAL,
		taille REAL,
		tension_arterielle REAL,
		temperature REAL,
		hypothese_de_diagnostique TEXT,
		bilan TEXT,
		resultat_bilan TEXT,
		signature TEXT,
		renseignements_clinique TEXT,
		ordonnance TEXT,
		created_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS visits (
		id SERIAL PRIMARY KEY,
		patient_id INTEGER REFERENCES patients(id),
		visit_date DATE,
		notes TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS action_logs (
		id UUID PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		actor TEXT,
		action TEXT NOT NULL,
		details TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS patient_columns_meta (
		id SERIAL PRIMARY KEY,
		column_name TEXT UNIQUE NOT NULL,
		display_name TEXT NOT NULL,
		data_type TEXT NOT NULL,
		is_visible BOOLEAN DEFAULT TRUE,
		is_required BOOLEAN DEFAULT FALSE,
		display_order INTEGER DEFAULT 0,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`,
}

// Bootstrap creates the clinic tables if they do not exist yet. Seeding of
// the column metadata is the schema domain's job, not this package's.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range bootstrapStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
