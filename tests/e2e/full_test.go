// Package e2e 从策略预设出发走完一次完整排班：
// 实例化、建模、分支定界求解、解码、复核、统计与三种报表输出。
package e2e

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/policy"
	"github.com/lunban/lunban/pkg/scheduler"
	"github.com/lunban/lunban/pkg/scheduler/solver"
	"github.com/lunban/lunban/pkg/stats"
	rosterval "github.com/lunban/lunban/pkg/validator"
	"github.com/lunban/lunban/pkg/writer"
)

func intPtr(v int) *int { return &v }

func TestFullPipeline(t *testing.T) {
	// ======== 实例化 ========
	pm := policy.NewManager()
	ins, err := pm.Customize("clinic", 2019, time.April, policy.Overrides{
		Personnel:           intPtr(2),
		Shifts:              intPtr(1),
		Requirement:         intPtr(1),
		WorkloadMin:         intPtr(0),
		WorkloadMax:         intPtr(7),
		LeaveMin:            intPtr(1),
		LeaveMax:            intPtr(2),
		TotalWorkloadTarget: intPtr(4),
	})
	if err != nil {
		t.Fatalf("实例化预设失败: %v", err)
	}
	// 全月30天对进程内求解器过大，截取首周
	ins.Days = 7

	// ======== 求解 ========
	engine := scheduler.NewEngine(solver.NewBranchBoundSolver())
	res, err := engine.Run(context.Background(), &scheduler.Request{
		Department: "端到端",
		Instance:   ins,
		Competency: model.UniformCompetency(2, 1, 1),
	})
	if err != nil {
		t.Fatalf("排班失败: %v", err)
	}

	run := res.Run
	if run.Status != model.RunStatusSolved {
		t.Fatalf("运行状态 = %s, 期望 %s", run.Status, model.RunStatusSolved)
	}
	if run.SolverName != "branch_bound" {
		t.Errorf("求解器 = %s, 期望 branch_bound", run.SolverName)
	}
	// X 14, h 14, 目标1/2各20, 目标3共4, 目标4共14
	if run.Columns != 86 {
		t.Errorf("模型列数 = %d, 期望 86", run.Columns)
	}
	if run.Rows != 72 {
		t.Errorf("模型行数 = %d, 期望 72", run.Rows)
	}

	roster := res.Roster

	// ======== 独立复核 ========
	conflicts := rosterval.NewRosterValidator(nil).Validate(roster)
	if rosterval.HasErrors(conflicts) {
		t.Fatalf("花名册存在 error 级冲突: %+v", conflicts)
	}

	// ======== 统计 ========
	coverage := stats.NewCoverageAnalyzer().Analyze(roster)
	if coverage.TotalSlots != 7 {
		t.Errorf("槽位总数 = %d, 期望 7", coverage.TotalSlots)
	}
	if coverage.OverallCoverage != 100 || coverage.SlotSatisfaction != 100 {
		t.Errorf("覆盖率 = %.1f%%, 满足率 = %.1f%%, 期望均为 100%%",
			coverage.OverallCoverage, coverage.SlotSatisfaction)
	}

	fairness := stats.NewFairnessAnalyzer().Analyze(roster)
	if fairness.AvgDutyDays != 3.5 {
		t.Errorf("人均执勤天数 = %v, 期望 3.5", fairness.AvgDutyDays)
	}
	if len(fairness.PersonStats) != 2 {
		t.Errorf("人员统计条数 = %d, 期望 2", len(fairness.PersonStats))
	}

	// ======== 报表 ========
	csv := writer.FormatCSV(roster)
	if n := strings.Count(csv, "\n"); n != 3 {
		t.Errorf("CSV 行数 = %d, 期望 3 (表头+每人一周行)", n)
	}

	text := writer.FormatText(roster)
	if !strings.Contains(text, "P2") {
		t.Error("文本报表缺少人员 P2")
	}

	jsonOut, err := writer.FormatJSON(roster)
	if err != nil {
		t.Fatalf("JSON 报表输出失败: %v", err)
	}
	var table writer.Table
	if err := json.Unmarshal([]byte(jsonOut), &table); err != nil {
		t.Fatalf("JSON 报表不可解析: %v", err)
	}
	if len(table.Blocks) != 2 {
		t.Errorf("日历块数 = %d, 期望 2", len(table.Blocks))
	}
	if len(table.Header) != 10 {
		t.Errorf("表头列数 = %d, 期望 10", len(table.Header))
	}

	// ======== 变量审计表 ========
	audit := writer.AuditCSV(res.Model, res.Solution)
	if !strings.HasPrefix(audit, "variable,value\n") {
		t.Errorf("审计表表头异常: %q", strings.SplitN(audit, "\n", 2)[0])
	}
	if n := strings.Count(audit, "\n"); n != 1+run.Columns {
		t.Errorf("审计表行数 = %d, 期望 %d (表头+每列一行)", n, 1+run.Columns)
	}
}
