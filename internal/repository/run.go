package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// RunRepositoryInterface 排班运行仓储接口
type RunRepositoryInterface interface {
	Create(ctx context.Context, run *model.RosterRun, ins *model.Instance) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RosterRun, error)
	List(ctx context.Context, filter ListFilter) ([]*model.RosterRun, int, error)
	Delete(ctx context.Context, id uuid.UUID) error

	SaveRoster(ctx context.Context, runID uuid.UUID, roster *model.Roster) error
	GetRoster(ctx context.Context, runID uuid.UUID) (*model.Roster, error)

	SaveAudit(ctx context.Context, runID uuid.UUID, audit string) error
	GetAudit(ctx context.Context, runID uuid.UUID) (string, error)
}

// RunRepository 排班运行仓储实现
type RunRepository struct {
	db DB
}

// NewRunRepository 创建排班运行仓储
func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create 保存一次排班运行记录，实例参数快照以 JSON 落库
func (r *RunRepository) Create(ctx context.Context, run *model.RosterRun, ins *model.Instance) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	now := time.Now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now

	instanceJSON, err := json.Marshal(ins)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "序列化实例参数失败")
	}

	query := `
		INSERT INTO roster_runs (
			id, department, solver_name, status, objective,
			personnel, days, sections, shifts, model_columns, model_rows,
			build_millis, solve_millis, decode_millis, message, instance,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID.String(), run.Department, run.SolverName, string(run.Status), run.Objective,
		run.Personnel, run.Days, run.Sections, run.Shifts, run.Columns, run.Rows,
		run.BuildMillis, run.SolveMillis, run.DecodeMillis, run.Message, string(instanceJSON),
		run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "创建排班运行记录失败")
	}

	return nil
}

// GetByID 根据ID获取运行记录，不存在时返回 (nil, nil)
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RosterRun, error) {
	query := `
		SELECT id, department, solver_name, status, objective,
			personnel, days, sections, shifts, model_columns, model_rows,
			build_millis, solve_millis, decode_millis, message,
			created_at, updated_at
		FROM roster_runs
		WHERE id = $1
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班运行记录失败")
	}
	return run, nil
}

// List 按过滤器列出运行记录
func (r *RunRepository) List(ctx context.Context, filter ListFilter) ([]*model.RosterRun, int, error) {
	filter = filter.normalize()

	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", argNum))
		args = append(args, filter.Department)
		argNum++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filter.Status)
		argNum++
	}
	if filter.StartDate != "" {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
		args = append(args, filter.StartDate)
		argNum++
	}
	if filter.EndDate != "" {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
		args = append(args, filter.EndDate)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM roster_runs %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "统计排班运行数量失败")
	}

	query := fmt.Sprintf(`
		SELECT id, department, solver_name, status, objective,
			personnel, days, sections, shifts, model_columns, model_rows,
			build_millis, solve_millis, decode_millis, message,
			created_at, updated_at
		FROM roster_runs %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, filter.OrderBy, filter.OrderDir, argNum, argNum+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班运行列表失败")
	}
	defer rows.Close()

	var runs []*model.RosterRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "扫描排班运行记录失败")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "遍历排班运行列表失败")
	}

	return runs, total, nil
}

// Delete 删除运行记录及其花名册数据
func (r *RunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// 先删除花名册数据
	if _, err := r.db.ExecContext(ctx, "DELETE FROM roster_cells WHERE run_id = $1", id.String()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "删除花名册单元格失败")
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM roster_anomalies WHERE run_id = $1", id.String()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "删除解码异常失败")
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM roster_runs WHERE id = $1", id.String()); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "删除排班运行记录失败")
	}
	return nil
}

// SaveRoster 持久化解码后的花名册。空白格不落库，读取时按实例维度补齐。
func (r *RunRepository) SaveRoster(ctx context.Context, runID uuid.UUID, roster *model.Roster) error {
	cellQuery := `
		INSERT INTO roster_cells (run_id, person, day, on_leave, section, shift)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	ins := roster.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			cell := roster.Cell(i, j)
			if cell == nil || (!cell.OnLeave && !cell.Assigned()) {
				continue
			}
			section, shift := 0, 0
			if cell.Duty != nil {
				section, shift = cell.Duty.Section, cell.Duty.Shift
			}
			if _, err := r.db.ExecContext(ctx, cellQuery,
				runID.String(), i, j, cell.OnLeave, section, shift,
			); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存花名册单元格失败")
			}
		}
	}

	anomalyQuery := `
		INSERT INTO roster_anomalies (run_id, kind, person, day, duties)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, a := range roster.Anomalies {
		dutiesJSON, err := json.Marshal(a.Duties)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "序列化异常组合失败")
		}
		if _, err := r.db.ExecContext(ctx, anomalyQuery,
			runID.String(), string(a.Kind), a.Person, a.Day, string(dutiesJSON),
		); err != nil {
			return apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存解码异常失败")
		}
	}

	return nil
}

// SaveAudit 保存行级审计报告，与运行记录同生命周期
func (r *RunRepository) SaveAudit(ctx context.Context, runID uuid.UUID, audit string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE roster_runs SET audit = $1, updated_at = $2 WHERE id = $3",
		audit, time.Now(), runID.String(),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存审计报告失败")
	}
	return nil
}

// GetAudit 读取行级审计报告，记录不存在时返回 ("", nil)
func (r *RunRepository) GetAudit(ctx context.Context, runID uuid.UUID) (string, error) {
	var audit string
	err := r.db.QueryRowContext(ctx,
		"SELECT audit FROM roster_runs WHERE id = $1", runID.String(),
	).Scan(&audit)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询审计报告失败")
	}
	return audit, nil
}

// GetRoster 读取持久化的花名册，实例参数取自运行记录的快照
func (r *RunRepository) GetRoster(ctx context.Context, runID uuid.UUID) (*model.Roster, error) {
	var instanceJSON []byte
	var objective float64
	err := r.db.QueryRowContext(ctx,
		"SELECT instance, objective FROM roster_runs WHERE id = $1", runID.String(),
	).Scan(&instanceJSON, &objective)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询排班运行记录失败")
	}

	ins := &model.Instance{}
	if err := json.Unmarshal(instanceJSON, ins); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "解析实例参数快照失败")
	}

	roster := model.NewRoster(ins)
	roster.Objective = objective

	rows, err := r.db.QueryContext(ctx,
		"SELECT person, day, on_leave, section, shift FROM roster_cells WHERE run_id = $1", runID.String(),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询花名册单元格失败")
	}
	defer rows.Close()

	for rows.Next() {
		var person, day, section, shift int
		var onLeave bool
		if err := rows.Scan(&person, &day, &onLeave, &section, &shift); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "扫描花名册单元格失败")
		}
		cell := roster.Cell(person, day)
		if cell == nil {
			continue
		}
		cell.OnLeave = onLeave
		if shift > 0 {
			cell.Duty = &model.Duty{Section: section, Shift: shift}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "遍历花名册单元格失败")
	}

	anomalyRows, err := r.db.QueryContext(ctx,
		"SELECT kind, person, day, duties FROM roster_anomalies WHERE run_id = $1", runID.String(),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询解码异常失败")
	}
	defer anomalyRows.Close()

	for anomalyRows.Next() {
		var kind string
		var person, day int
		var dutiesJSON []byte
		if err := anomalyRows.Scan(&kind, &person, &day, &dutiesJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "扫描解码异常失败")
		}
		anomaly := model.Anomaly{Kind: model.AnomalyKind(kind), Person: person, Day: day}
		if len(dutiesJSON) > 0 {
			if err := json.Unmarshal(dutiesJSON, &anomaly.Duties); err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "解析异常组合失败")
			}
		}
		roster.Anomalies = append(roster.Anomalies, anomaly)
	}
	if err := anomalyRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "遍历解码异常失败")
	}

	return roster, nil
}

// scanRun 扫描单行运行记录
func scanRun(row Scanner) (*model.RosterRun, error) {
	run := &model.RosterRun{}
	var id, status string

	err := row.Scan(
		&id, &run.Department, &run.SolverName, &status, &run.Objective,
		&run.Personnel, &run.Days, &run.Sections, &run.Shifts, &run.Columns, &run.Rows,
		&run.BuildMillis, &run.SolveMillis, &run.DecodeMillis, &run.Message,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("解析运行记录ID失败: %w", err)
	}
	run.ID = parsed
	run.Status = model.RunStatus(status)

	return run, nil
}
