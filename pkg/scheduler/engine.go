// Package scheduler 组织一次排班运行的完整流程：
// 构建变量空间与约束、装配目标函数、调用求解器、解码花名册。
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/constraint"
	"github.com/lunban/lunban/pkg/scheduler/decode"
	"github.com/lunban/lunban/pkg/scheduler/solver"
	"github.com/lunban/lunban/pkg/scheduler/vars"
)

// Engine 排班引擎
type Engine struct {
	manager *constraint.Manager
	solver  solver.Solver
	decoder *decode.Decoder
	logger  *logger.RosterLogger
}

// NewEngine 创建使用默认约束组合的排班引擎
func NewEngine(sv solver.Solver) *Engine {
	return &Engine{
		manager: constraint.DefaultManager(),
		solver:  sv,
		decoder: decode.NewDecoder(),
		logger:  logger.NewRosterLogger(),
	}
}

// NewEngineWithManager 创建带自定义约束组合的排班引擎
func NewEngineWithManager(sv solver.Solver, m *constraint.Manager) *Engine {
	e := NewEngine(sv)
	e.manager = m
	return e
}

// SetDecoder 替换解码器（如需调整 0/1 判定点）
func (e *Engine) SetDecoder(d *decode.Decoder) {
	if d != nil {
		e.decoder = d
	}
}

// Manager 返回约束管理器
func (e *Engine) Manager() *constraint.Manager {
	return e.manager
}

// Request 一次排班请求
type Request struct {
	Department string
	Instance   *model.Instance
	Competency *model.Competency
}

// Result 一次排班运行的完整产出。
// Model 与 Solution 保留原样，供报表输出原始变量审计表。
type Result struct {
	RunID    string
	Roster   *model.Roster
	Model    *milp.Model
	Solution *milp.Solution
	Run      *model.RosterRun
}

// Run 执行一次排班。构建期错误在任何求解调用之前返回；
// 无可行解是终态结论，以 NO_FEASIBLE_SOLUTION 错误报出，不再尝试解码。
func (e *Engine) Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.Instance == nil {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "缺少问题实例")
	}
	ins := req.Instance
	if ve := ins.Validate(); ve != nil {
		return nil, ve
	}

	id := uuid.New()
	runID := id.String()
	e.logger.BuildStart(runID, ins.Personnel, ins.Days, ins.Sections, ins.Shifts)

	buildStart := time.Now()
	m := milp.NewModel("roster_" + runID)
	space, err := vars.Build(m, ins)
	if err != nil {
		return nil, buildError(err)
	}
	cctx := constraint.NewContext(m, space, ins, req.Competency)
	if err := e.manager.Apply(cctx); err != nil {
		return nil, buildError(err)
	}
	if err := constraint.AssembleObjective(cctx); err != nil {
		return nil, buildError(err)
	}
	buildDur := time.Since(buildStart)
	e.logger.BuildComplete(runID, m.NumCols(), m.NumRows(), buildDur)

	solveStart := time.Now()
	sol, err := e.solver.Solve(ctx, m)
	if err != nil {
		return nil, err
	}
	solveDur := time.Since(solveStart)
	e.logger.SolveComplete(runID, e.solver.Name(), sol.Status.String(), sol.Objective, solveDur)

	if !sol.Feasible() {
		return nil, apperrors.NoFeasibleSolution("模型无可行解，请核对需求人数、人员规模与休假区间")
	}

	decodeStart := time.Now()
	roster, err := e.decoder.Decode(ins, sol)
	if err != nil {
		return nil, err
	}
	decodeDur := time.Since(decodeStart)

	var duties, leaves int
	for _, s := range roster.Summaries() {
		duties += s.DutyDays
		leaves += s.LeaveDays
	}
	for _, a := range roster.Anomalies {
		e.logger.DecodeAnomaly(string(a.Kind), a.Person, a.Day)
	}
	e.logger.DecodeComplete(runID, duties, leaves, len(roster.Anomalies))

	run := &model.RosterRun{
		BaseModel:    model.BaseModel{ID: id, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Department:   req.Department,
		SolverName:   e.solver.Name(),
		Status:       model.RunStatusSolved,
		Objective:    sol.Objective,
		Personnel:    ins.Personnel,
		Days:         ins.Days,
		Sections:     ins.Sections,
		Shifts:       ins.Shifts,
		Columns:      m.NumCols(),
		Rows:         m.NumRows(),
		BuildMillis:  buildDur.Milliseconds(),
		SolveMillis:  solveDur.Milliseconds(),
		DecodeMillis: decodeDur.Milliseconds(),
	}
	return &Result{
		RunID:    runID,
		Roster:   roster,
		Model:    m,
		Solution: sol,
		Run:      run,
	}, nil
}

// buildError 保留已分类的业务错误，其余按构建失败包装
func buildError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Wrap(err, apperrors.CodeModelBuildFailed, "线性模型构建失败")
}
