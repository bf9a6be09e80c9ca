package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  username      TEXT        NOT NULL UNIQUE,
  email         TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  first_name    TEXT        NOT NULL DEFAULT '',
  last_name     TEXT        NOT NULL DEFAULT '',
  address       TEXT        NOT NULL DEFAULT '',
  phone         TEXT        NOT NULL DEFAULT '',
  is_staff      BOOLEAN     NOT NULL DEFAULT FALSE,
  is_superuser  BOOLEAN     NOT NULL DEFAULT FALSE,
  is_active     BOOLEAN     NOT NULL DEFAULT TRUE,
  date_joined   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_mango_images",
		SQL: `CREATE TABLE IF NOT EXISTS mango_images (
  id                     UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  user_id                UUID        REFERENCES users (id) ON DELETE CASCADE,
  storage_path           TEXT        NOT NULL UNIQUE,
  original_filename      TEXT        NOT NULL,
  content_type           TEXT        NOT NULL DEFAULT '',
  size                   BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  predicted_class        TEXT        NOT NULL DEFAULT '',
  disease_classification TEXT        NOT NULL DEFAULT '',
  disease_type           TEXT        NOT NULL DEFAULT '',
  confidence_score       DOUBLE PRECISION,
  is_verified            BOOLEAN     NOT NULL DEFAULT FALSE,
  verified_by            UUID        REFERENCES users (id) ON DELETE SET NULL,
  verified_date          TIMESTAMPTZ,
  notes                  TEXT        NOT NULL DEFAULT '',
  image_size             TEXT        NOT NULL DEFAULT '',
  processing_time        DOUBLE PRECISION,
  client_ip              TEXT        NOT NULL DEFAULT '',
  uploaded_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_prediction_logs",
		SQL: `CREATE TABLE IF NOT EXISTS prediction_logs (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  image_id      UUID        NOT NULL REFERENCES mango_images (id) ON DELETE CASCADE,
  client_ip     TEXT        NOT NULL DEFAULT '',
  user_agent    TEXT        NOT NULL DEFAULT '',
  response_time DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_user_confirmations",
		SQL: `CREATE TABLE IF NOT EXISTS user_confirmations (
  id                     UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  image_id               UUID        NOT NULL UNIQUE REFERENCES mango_images (id) ON DELETE CASCADE,
  user_id                UUID        REFERENCES users (id) ON DELETE CASCADE,
  is_correct             BOOLEAN     NOT NULL,
  predicted_disease      TEXT        NOT NULL,
  user_feedback          TEXT        NOT NULL DEFAULT '',
  confidence_score       DOUBLE PRECISION,
  client_ip              TEXT        NOT NULL DEFAULT '',
  latitude               DOUBLE PRECISION,
  longitude              DOUBLE PRECISION,
  location_accuracy      DOUBLE PRECISION,
  location_consent_given BOOLEAN     NOT NULL DEFAULT FALSE,
  location_address       TEXT        NOT NULL DEFAULT '',
  confirmed_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_notifications",
		SQL: `CREATE TABLE IF NOT EXISTS notifications (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  notification_type TEXT        NOT NULL DEFAULT 'image_upload',
  title             TEXT        NOT NULL,
  message           TEXT        NOT NULL,
  related_image_id  UUID        REFERENCES mango_images (id) ON DELETE CASCADE,
  user_id           UUID        NOT NULL REFERENCES users (id) ON DELETE CASCADE,
  is_read           BOOLEAN     NOT NULL DEFAULT FALSE,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_ml_models",
		SQL: `CREATE TABLE IF NOT EXISTS ml_models (
  id         UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name       TEXT        NOT NULL,
  version    TEXT        NOT NULL,
  endpoint   TEXT        NOT NULL DEFAULT '',
  is_active  BOOLEAN     NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_mango_images_uploaded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_mango_images_uploaded_at ON mango_images (uploaded_at DESC);`,
	},
	{
		Name: "create_index_mango_images_predicted_class",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_mango_images_predicted_class ON mango_images (predicted_class);`,
	},
	{
		Name: "create_index_notifications_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications (created_at DESC);`,
	},
	{
		Name: "create_index_user_confirmations_predicted_disease",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_user_confirmations_predicted_disease ON user_confirmations (predicted_disease);`,
	},
	{
		Name: "create_index_prediction_logs_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_prediction_logs_created_at ON prediction_logs (created_at DESC);`,
	},
}

// EnsureMigrated checks if the 'users' table exists and runs migrations if it doesn't.
// A failed step is fatal for the caller: the server must not start on a broken schema.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.users') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
