package repo

import (
	"context"
	"fmt"
)

var tables = []string{
	`CREATE TABLE IF NOT EXISTS persons (
		id VARCHAR(36) PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_client BOOLEAN NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id VARCHAR(36) PRIMARY KEY,
		requestor_id VARCHAR(36) NOT NULL,
		fulfiller_id VARCHAR(36) NULL,
		longitude DOUBLE PRECISION NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		category VARCHAR(64) NOT NULL,
		status VARCHAR(16) NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		CHECK ((fulfiller_id IS NULL) = (status IN ('OPEN', 'CLOSED'))),
		FOREIGN KEY (requestor_id) REFERENCES persons(id),
		FOREIGN KEY (fulfiller_id) REFERENCES persons(id)
	)`,
	`CREATE TABLE IF NOT EXISTS task_status_history (
		id VARCHAR(36) PRIMARY KEY,
		task_id VARCHAR(36) NOT NULL,
		from_status VARCHAR(16) NULL,
		to_status VARCHAR(16) NOT NULL,
		actor_id VARCHAR(36) NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id VARCHAR(36) PRIMARY KEY,
		kind VARCHAR(16) NOT NULL,
		task_id VARCHAR(36) NOT NULL,
		rater_id VARCHAR(36) NOT NULL,
		rated_person_id VARCHAR(36) NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at BIGINT NOT NULL,
		UNIQUE (task_id, kind),
		FOREIGN KEY (task_id) REFERENCES tasks(id),
		FOREIGN KEY (rater_id) REFERENCES persons(id),
		FOREIGN KEY (rated_person_id) REFERENCES persons(id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id VARCHAR(36) PRIMARY KEY,
		task_id VARCHAR(36) NOT NULL,
		person_id VARCHAR(36) NOT NULL,
		commentary TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		FOREIGN KEY (task_id) REFERENCES tasks(id),
		FOREIGN KEY (person_id) REFERENCES persons(id)
	)`,
}

var indexes = []struct {
	name, table, columns string
}{
	{"idx_tasks_category", "tasks", "category"},
	{"idx_tasks_status", "tasks", "status"},
	{"idx_history_task", "task_status_history", "task_id, created_at"},
	{"idx_reviews_rated_person", "reviews", "rated_person_id"},
	{"idx_comments_task", "comments", "task_id, created_at"},
}

const postgresGeoDistance = `CREATE OR REPLACE FUNCTION geo_distance(lon1 DOUBLE PRECISION, lat1 DOUBLE PRECISION, lon2 DOUBLE PRECISION, lat2 DOUBLE PRECISION)
RETURNS DOUBLE PRECISION
LANGUAGE SQL IMMUTABLE STRICT AS $$
	SELECT 2 * 6371000 * asin(sqrt(least(1,
		power(sin(radians(lat2 - lat1) / 2), 2) +
		cos(radians(lat1)) * cos(radians(lat2)) * power(sin(radians(lon2 - lon1) / 2), 2)
	)))
$$`

// Migrate creates the schema when missing. It is safe to run on every start.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := append([]string{}, tables...)
	if d.dialect == Postgres {
		stmts = append(stmts, postgresGeoDistance)
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, idx := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if d.dialect == MySQL {
			stmt = fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		}
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			if d.dialect == MySQL && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("migrate index %s: %w", idx.name, err)
		}
	}
	return nil
}
