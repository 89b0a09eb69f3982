package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the DDL for users, billing and projects. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	first_name VARCHAR(100) NOT NULL DEFAULT '',
	last_name VARCHAR(100) NOT NULL DEFAULT '',
	email VARCHAR(255) NOT NULL UNIQUE,
	phone VARCHAR(32),
	company VARCHAR(255),
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS billing (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL UNIQUE REFERENCES users(id),
	selected_plan VARCHAR(32) NOT NULL,
	billing_cycle VARCHAR(16) NOT NULL,
	plan_price NUMERIC(10,2) NOT NULL DEFAULT 0,
	add_ons TEXT[] NOT NULL DEFAULT '{}',
	subscription_start_date TIMESTAMP WITH TIME ZONE NOT NULL,
	subscription_end_date TIMESTAMP WITH TIME ZONE,
	next_billing_date TIMESTAMP WITH TIME ZONE,
	status VARCHAR(16) NOT NULL,
	payment_status VARCHAR(16) NOT NULL,
	image_credits INTEGER NOT NULL DEFAULT 0 CHECK (image_credits >= 0),
	document_credits INTEGER NOT NULL DEFAULT 0 CHECK (document_credits >= 0),
	total_image_purchases INTEGER NOT NULL DEFAULT 0,
	total_document_purchases INTEGER NOT NULL DEFAULT 0,
	image_purchase_history JSONB NOT NULL DEFAULT '[]',
	document_purchase_history JSONB NOT NULL DEFAULT '[]',
	discount_code VARCHAR(64),
	discount_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
	version BIGINT NOT NULL DEFAULT 1,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_billing_selected_plan ON billing(selected_plan);

CREATE TABLE IF NOT EXISTS projects (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	name VARCHAR(100) NOT NULL,
	industry VARCHAR(32) NOT NULL,
	team_size VARCHAR(16) NOT NULL,
	primary_objective VARCHAR(32) NOT NULL,
	timeline VARCHAR(16) NOT NULL,
	budget_range VARCHAR(16) NOT NULL,
	technical_level VARCHAR(32) NOT NULL,
	need_cofounder BOOLEAN NOT NULL DEFAULT FALSE,
	preferred_tech_stack VARCHAR(32) NOT NULL,
	project_description TEXT,
	status VARCHAR(16) NOT NULL DEFAULT 'active',
	base_documents INTEGER NOT NULL,
	used_documents INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_user_name ON projects(user_id, LOWER(name));
CREATE INDEX IF NOT EXISTS idx_projects_user_created ON projects(user_id, created_at DESC);
`

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
