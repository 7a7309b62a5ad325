package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'request_status') THEN
			CREATE TYPE request_status AS ENUM ('PENDING_SUPERVISOR', 'PENDING_FLEET', 'APPROVED', 'DENIED', 'ACTIVE', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'trip_status') THEN
			CREATE TYPE trip_status AS ENUM ('UPCOMING', 'ACTIVE', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'vehicle_status') THEN
			CREATE TYPE vehicle_status AS ENUM ('AVAILABLE', 'ASSIGNED', 'IN_MAINTENANCE', 'INACTIVE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'vehicle_ownership') THEN
			CREATE TYPE vehicle_ownership AS ENUM ('OWNED', 'HIRED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS ministries (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		code VARCHAR(32) UNIQUE
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		phone VARCHAR(32),
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		ministry_id UUID NOT NULL REFERENCES ministries(id),
		department_id UUID,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ministry_id UUID NOT NULL REFERENCES ministries(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		supervisor_id UUID REFERENCES users(id) ON DELETE SET NULL
	);`,
	`DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE constraint_name = 'fk_users_department'
		) THEN
			ALTER TABLE users ADD CONSTRAINT fk_users_department
				FOREIGN KEY (department_id) REFERENCES departments(id) ON DELETE SET NULL;
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		ministry_id UUID NOT NULL REFERENCES ministries(id),
		full_name VARCHAR(255) NOT NULL,
		phone VARCHAR(32),
		license_number VARCHAR(64),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		ministry_id UUID NOT NULL REFERENCES ministries(id),
		plate_number VARCHAR(32) NOT NULL UNIQUE,
		make VARCHAR(64),
		model VARCHAR(64),
		type VARCHAR(32) NOT NULL,
		status vehicle_status NOT NULL DEFAULT 'AVAILABLE',
		ownership vehicle_ownership NOT NULL DEFAULT 'OWNED',
		odometer BIGINT NOT NULL DEFAULT 0,
		next_service_odometer BIGINT NOT NULL DEFAULT 0,
		monthly_mileage_limit BIGINT NOT NULL DEFAULT 0,
		month_to_date_mileage BIGINT NOT NULL DEFAULT 0,
		contract_end_at TIMESTAMPTZ,
		insurance_expires_at TIMESTAMPTZ,
		insurance_document_url TEXT,
		default_driver_id UUID REFERENCES drivers(id) ON DELETE SET NULL,
		retired BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_ministry_status ON vehicles (ministry_id, status);`,
	`CREATE TABLE IF NOT EXISTS dispatch_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		requester_id UUID NOT NULL REFERENCES users(id),
		ministry_id UUID NOT NULL REFERENCES ministries(id),
		department_id UUID NOT NULL REFERENCES departments(id),
		purpose TEXT NOT NULL,
		origin VARCHAR(255) NOT NULL,
		destination VARCHAR(255) NOT NULL,
		requested_start_at TIMESTAMPTZ NOT NULL,
		vehicle_type VARCHAR(32),
		preferred_vehicle_id UUID REFERENCES vehicles(id) ON DELETE SET NULL,
		status request_status NOT NULL DEFAULT 'PENDING_FLEET',
		queue_position INTEGER NOT NULL DEFAULT 0,
		vehicle_id UUID REFERENCES vehicles(id) ON DELETE SET NULL,
		driver_id UUID REFERENCES drivers(id) ON DELETE SET NULL,
		decision_note TEXT,
		decided_by UUID REFERENCES users(id) ON DELETE SET NULL,
		decided_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_requests_status ON dispatch_requests (status);`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_requests_requester ON dispatch_requests (requester_id);`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_requests_queue
		ON dispatch_requests (ministry_id, vehicle_type, queue_position)
		WHERE status = 'APPROVED' AND vehicle_id IS NULL;`,
	`CREATE TABLE IF NOT EXISTS request_status_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		request_id UUID NOT NULL REFERENCES dispatch_requests(id) ON DELETE CASCADE,
		old_status request_status,
		new_status request_status NOT NULL,
		note TEXT,
		changed_by UUID REFERENCES users(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_request_status_log_request_id ON request_status_log (request_id);`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		request_id UUID NOT NULL UNIQUE REFERENCES dispatch_requests(id) ON DELETE CASCADE,
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		driver_id UUID NOT NULL REFERENCES drivers(id),
		status trip_status NOT NULL DEFAULT 'UPCOMING',
		started_at TIMESTAMPTZ,
		ended_at TIMESTAMPTZ,
		start_odometer BIGINT,
		end_odometer BIGINT,
		distance_km BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	// One live trip per vehicle; the allocation path relies on this backstop.
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_vehicle_live_trip
		ON trips (vehicle_id)
		WHERE status IN ('UPCOMING', 'ACTIVE');`,
	`CREATE TABLE IF NOT EXISTS trip_fuel_logs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		liters DOUBLE PRECISION NOT NULL,
		cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		odometer BIGINT NOT NULL DEFAULT 0,
		logged_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_trip_fuel_logs_trip_id ON trip_fuel_logs (trip_id);`,
	`CREATE TABLE IF NOT EXISTS trip_reviews (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		reviewer_id UUID NOT NULL REFERENCES users(id),
		reviewer_role VARCHAR(16) NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_trip_review_role ON trip_reviews (trip_id, reviewer_role);`,
	`CREATE TABLE IF NOT EXISTS vehicle_maintenance_records (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		ministry_id UUID NOT NULL REFERENCES ministries(id),
		description TEXT NOT NULL,
		cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		odometer BIGINT NOT NULL DEFAULT 0,
		serviced_at TIMESTAMPTZ NOT NULL,
		recorded_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_vehicle_id ON vehicle_maintenance_records (vehicle_id);`,
	`CREATE TABLE IF NOT EXISTS vehicle_invoices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		ministry_id UUID NOT NULL REFERENCES ministries(id),
		invoice_number VARCHAR(64) NOT NULL,
		vendor VARCHAR(255),
		amount DOUBLE PRECISION NOT NULL,
		issued_at TIMESTAMPTZ NOT NULL,
		recorded_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_vehicle_id ON vehicle_invoices (vehicle_id);`,
	`CREATE TABLE IF NOT EXISTS vehicle_alerts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		condition VARCHAR(32) NOT NULL,
		alert_date DATE NOT NULL,
		detail TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_vehicle_alert_day ON vehicle_alerts (vehicle_id, condition, alert_date);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_dispatch_requests_updated_at') THEN
			CREATE TRIGGER trg_dispatch_requests_updated_at
				BEFORE UPDATE ON dispatch_requests
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_trips_updated_at') THEN
			CREATE TRIGGER trg_trips_updated_at
				BEFORE UPDATE ON trips
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicles_updated_at') THEN
			CREATE TRIGGER trg_vehicles_updated_at
				BEFORE UPDATE ON vehicles
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
