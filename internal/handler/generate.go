package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lunban/lunban/internal/department"
	"github.com/lunban/lunban/internal/metrics"
	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/policy"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/stats"
	"github.com/lunban/lunban/pkg/writer"
)

// GenerateRequest 排班生成请求。实例按策略预设实例化，
// overrides 覆盖预设中的标量参数。
type GenerateRequest struct {
	Department string            `json:"department,omitempty"`
	Year       int               `json:"year" validate:"required,min=2000,max=2100"`
	Month      int               `json:"month" validate:"required,min=1,max=12"`
	Policy     string            `json:"policy,omitempty"`
	Overrides  *policy.Overrides `json:"overrides,omitempty"`
	Competency *CompetencyInput  `json:"competency,omitempty"`
	Options    *GenerateOptions  `json:"options,omitempty"`
}

// CompetencyInput 胜任力评分输入。来源依序判定：评分矩阵、
// 统一评分、科室存量评分表；均缺省时按 1.0 统一评分。
type CompetencyInput struct {
	Scores  [][]float64 `json:"scores,omitempty"` // [人员][片区]
	Uniform *float64    `json:"uniform,omitempty"`
	Store   bool        `json:"store,omitempty"` // 评分矩阵落库供后续运行复用
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	TimeoutSeconds int  `json:"timeout_seconds,omitempty" validate:"omitempty,min=1,max=3600"`
	IncludeCells   bool `json:"include_cells,omitempty"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	RunID        string                `json:"run_id"`
	Status       string                `json:"status"`
	Objective    float64               `json:"objective"`
	Solver       string                `json:"solver"`
	Personnel    int                   `json:"personnel"`
	Days         int                   `json:"days"`
	Sections     int                   `json:"sections"`
	Shifts       int                   `json:"shifts"`
	Columns      int                   `json:"model_columns"`
	Rows         int                   `json:"model_rows"`
	BuildMillis  int64                 `json:"build_millis"`
	SolveMillis  int64                 `json:"solve_millis"`
	DecodeMillis int64                 `json:"decode_millis"`
	Summaries    []model.PersonSummary `json:"summaries"`
	Anomalies    []model.Anomaly       `json:"anomalies,omitempty"`
	Cells        [][]model.Cell        `json:"cells,omitempty"`
}

// Generate 生成排班：实例化策略预设、构建模型、求解、解码并入库
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if appErr := h.readJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := h.checkStruct(&req); appErr != nil {
		respondError(w, appErr)
		return
	}

	dept := h.resolveDepartment(r, req.Department)

	policyName := req.Policy
	if policyName == "" {
		policyName = "hospital"
	}
	overrides := policy.Overrides{}
	if req.Overrides != nil {
		overrides = *req.Overrides
	}
	ins, err := h.policies.Customize(policyName, req.Year, time.Month(req.Month), overrides)
	if err != nil {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "未知策略预设: "+policyName).
			WithField("available", h.policies.Names()))
		return
	}

	comp, err := h.resolveCompetency(r.Context(), dept, ins, req.Competency)
	if err != nil {
		respondAppError(w, err)
		return
	}

	timeout := h.config.Scheduler.Timeout
	if req.Options != nil && req.Options.TimeoutSeconds > 0 {
		timeout = time.Duration(req.Options.TimeoutSeconds) * time.Second
	}
	solveCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	metrics.ActiveSolves.Inc()
	defer metrics.ActiveSolves.Dec()

	result, err := h.engine.Run(solveCtx, &scheduler.Request{
		Department: dept,
		Instance:   ins,
		Competency: comp,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.New(apperrors.CodeTimeout, "排班求解超时，请缩小实例规模或放宽时限")
		}
		h.recordFailedRun(r.Context(), dept, ins, err)
		respondAppError(w, err)
		return
	}

	run := result.Run
	if err := h.runs.Create(r.Context(), run, ins); err != nil {
		respondAppError(w, err)
		return
	}
	if err := h.runs.SaveRoster(r.Context(), run.ID, result.Roster); err != nil {
		respondAppError(w, err)
		return
	}
	if err := h.runs.SaveAudit(r.Context(), run.ID, writer.AuditCSV(result.Model, result.Solution)); err != nil {
		respondAppError(w, err)
		return
	}

	h.recordSolveMetrics(dept, run, result.Roster)

	resp := GenerateResponse{
		RunID:        run.ID.String(),
		Status:       string(run.Status),
		Objective:    run.Objective,
		Solver:       run.SolverName,
		Personnel:    run.Personnel,
		Days:         run.Days,
		Sections:     run.Sections,
		Shifts:       run.Shifts,
		Columns:      run.Columns,
		Rows:         run.Rows,
		BuildMillis:  run.BuildMillis,
		SolveMillis:  run.SolveMillis,
		DecodeMillis: run.DecodeMillis,
		Summaries:    result.Roster.Summaries(),
		Anomalies:    result.Roster.Anomalies,
	}
	if req.Options != nil && req.Options.IncludeCells {
		resp.Cells = result.Roster.Cells
	}
	respondJSON(w, http.StatusOK, resp)
}

// resolveDepartment 取请求归属科室：认证上下文优先，其次请求体，最后默认科室
func (h *Handler) resolveDepartment(r *http.Request, fromBody string) string {
	if dept, ok := department.FromContext(r.Context()); ok {
		return dept.Code
	}
	if fromBody != "" {
		return fromBody
	}
	return "default"
}

// resolveCompetency 按输入构造胜任力评分表。
// 评分矩阵维度必须与实例一致；存量评分表不覆盖全部组合时
// 整体退回统一评分，避免构建阶段因个别缺失组合中断。
func (h *Handler) resolveCompetency(ctx context.Context, dept string, ins *model.Instance, input *CompetencyInput) (*model.Competency, error) {
	if input != nil && len(input.Scores) > 0 {
		if len(input.Scores) != ins.Personnel {
			return nil, apperrors.New(apperrors.CodeInvalidDimension,
				fmt.Sprintf("评分矩阵行数 %d 与人员数 %d 不符", len(input.Scores), ins.Personnel))
		}
		comp := model.NewCompetency(ins.Personnel, ins.Sections)
		for i, row := range input.Scores {
			if len(row) != ins.Sections {
				return nil, apperrors.New(apperrors.CodeInvalidDimension,
					fmt.Sprintf("人员 %d 的评分列数 %d 与片区数 %d 不符", i+1, len(row), ins.Sections))
			}
			for k, score := range row {
				if err := comp.Set(i+1, k+1, score); err != nil {
					return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "评分矩阵写入失败")
				}
			}
		}
		if input.Store {
			if err := h.competencies.Save(ctx, dept, comp); err != nil {
				return nil, err
			}
		}
		return comp, nil
	}
	if input != nil && input.Uniform != nil {
		return model.UniformCompetency(ins.Personnel, ins.Sections, *input.Uniform), nil
	}

	stored, err := h.competencies.Get(ctx, dept, ins.Personnel, ins.Sections)
	if err != nil {
		return nil, err
	}
	if stored != nil && len(stored.MissingPairs()) == 0 {
		return stored, nil
	}
	return model.UniformCompetency(ins.Personnel, ins.Sections, 1), nil
}

// recordFailedRun 把求解阶段的终态失败也记入运行历史。
// 构建期校验错误不构成一次运行，不入库。
func (h *Handler) recordFailedRun(ctx context.Context, dept string, ins *model.Instance, cause error) {
	var status model.RunStatus
	switch apperrors.GetCode(cause) {
	case apperrors.CodeNoFeasibleSolution:
		status = model.RunStatusInfeasible
	case apperrors.CodeSolverFailed, apperrors.CodeSolverUnavailable, apperrors.CodeTimeout:
		status = model.RunStatusFailed
	default:
		return
	}

	metrics.RecordSolve(dept, h.solverName, string(status), 0)

	run := &model.RosterRun{
		Department: dept,
		SolverName: h.solverName,
		Status:     status,
		Personnel:  ins.Personnel,
		Days:       ins.Days,
		Sections:   ins.Sections,
		Shifts:     ins.Shifts,
		Message:    cause.Error(),
	}
	if err := h.runs.Create(ctx, run, ins); err != nil {
		logger.Error().Err(err).Str("department", dept).Msg("记录失败运行入库失败")
	}
}

// recordSolveMetrics 上报一次成功运行的流水线与方案质量指标
func (h *Handler) recordSolveMetrics(dept string, run *model.RosterRun, roster *model.Roster) {
	metrics.RecordBuild(dept, true, time.Duration(run.BuildMillis)*time.Millisecond, run.Columns, run.Rows)
	metrics.RecordSolve(dept, run.SolverName, string(run.Status), time.Duration(run.SolveMillis)*time.Millisecond)
	metrics.RecordDecode(dept, time.Duration(run.DecodeMillis)*time.Millisecond)
	metrics.SetSolutionObjective(dept, run.Objective)

	coverage := stats.NewCoverageAnalyzer().Analyze(roster)
	metrics.SetCoverageRate(dept, coverage.OverallCoverage)

	fairness := stats.NewFairnessAnalyzer().Analyze(roster)
	metrics.SetFairnessGini(dept, "duty", fairness.DutyGini)
	metrics.SetFairnessGini(dept, "night_shift", fairness.NightShiftGini)
	metrics.SetFairnessGini(dept, "leave", fairness.LeaveGini)
}
