package database

import (
	"context"
	"fmt"

	"github.com/lunban/lunban/pkg/logger"
)

// migrations 建表语句。只用两种驱动共同支持的类型，
// 布尔与 JSON 分别落成 BOOLEAN 与 TEXT。
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS roster_runs (
		id            TEXT PRIMARY KEY,
		department    TEXT NOT NULL DEFAULT '',
		solver_name   TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT '',
		objective     DOUBLE PRECISION NOT NULL DEFAULT 0,
		personnel     INTEGER NOT NULL DEFAULT 0,
		days          INTEGER NOT NULL DEFAULT 0,
		sections      INTEGER NOT NULL DEFAULT 0,
		shifts        INTEGER NOT NULL DEFAULT 0,
		model_columns INTEGER NOT NULL DEFAULT 0,
		model_rows    INTEGER NOT NULL DEFAULT 0,
		build_millis  BIGINT NOT NULL DEFAULT 0,
		solve_millis  BIGINT NOT NULL DEFAULT 0,
		decode_millis BIGINT NOT NULL DEFAULT 0,
		message       TEXT NOT NULL DEFAULT '',
		instance      TEXT NOT NULL DEFAULT '{}',
		audit         TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_roster_runs_department ON roster_runs(department)`,
	`CREATE INDEX IF NOT EXISTS idx_roster_runs_status ON roster_runs(status)`,
	`CREATE TABLE IF NOT EXISTS roster_cells (
		run_id   TEXT NOT NULL,
		person   INTEGER NOT NULL,
		day      INTEGER NOT NULL,
		on_leave BOOLEAN NOT NULL DEFAULT FALSE,
		section  INTEGER NOT NULL DEFAULT 0,
		shift    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, person, day)
	)`,
	`CREATE TABLE IF NOT EXISTS roster_anomalies (
		run_id TEXT NOT NULL,
		kind   TEXT NOT NULL,
		person INTEGER NOT NULL,
		day    INTEGER NOT NULL,
		duties TEXT NOT NULL DEFAULT '[]'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_roster_anomalies_run ON roster_anomalies(run_id)`,
	`CREATE TABLE IF NOT EXISTS competencies (
		department TEXT NOT NULL,
		person     INTEGER NOT NULL,
		section    INTEGER NOT NULL,
		score      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (department, person, section)
	)`,
}

// Migrate 执行建表迁移，语句均为幂等
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行第 %d 条迁移失败: %w", i+1, err)
		}
	}
	logger.Info().Int("statements", len(migrations)).Msg("数据库迁移完成")
	return nil
}
