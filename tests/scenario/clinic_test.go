// Package scenario 在缩小的真实业务实例上跑完整排班流程，
// 覆盖从策略预设到求解、检验、统计与报表输出的闭环。
package scenario

import (
	"context"
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

// mustSolve 用进程内分支定界求解实例并返回完整结果
func mustSolve(t *testing.T, ins *model.Instance, comp *model.Competency) *scheduler.Result {
	t.Helper()
	engine := scheduler.NewEngine(solver.NewBranchBoundSolver())
	res, err := engine.Run(context.Background(), &scheduler.Request{
		Department: "场景测试",
		Instance:   ins,
		Competency: comp,
	})
	if err != nil {
		t.Fatalf("排班失败: %v", err)
	}
	return res
}

// clinicInstance 以 clinic 预设为底，缩小到3人6天单班次
func clinicInstance(t *testing.T) *model.Instance {
	t.Helper()
	pm := policy.NewManager()
	ins, err := pm.Customize("clinic", 2019, time.April, policy.Overrides{
		Personnel:           intPtr(3),
		Shifts:              intPtr(1),
		Requirement:         intPtr(1),
		WorkloadMin:         intPtr(0),
		WorkloadMax:         intPtr(4),
		LeaveWindow:         intPtr(6),
		LeaveMin:            intPtr(1),
		LeaveMax:            intPtr(2),
		TotalWorkloadTarget: intPtr(2),
	})
	if err != nil {
		t.Fatalf("实例化 clinic 预设失败: %v", err)
	}
	ins.Days = 6
	return ins
}

func TestClinicWeeklyRoster(t *testing.T) {
	ins := clinicInstance(t)
	res := mustSolve(t, ins, model.UniformCompetency(ins.Personnel, ins.Sections, 1))
	roster := res.Roster

	if res.Run.Status != model.RunStatusSolved {
		t.Fatalf("运行状态 = %s, 期望 %s", res.Run.Status, model.RunStatusSolved)
	}

	// 花名册须通过独立复核，空档只是警告
	conflicts := rosterval.NewRosterValidator(nil).Validate(roster)
	if rosterval.HasErrors(conflicts) {
		t.Fatalf("花名册存在 error 级冲突: %+v", conflicts)
	}

	// 休假窗口与天数等长，每人总休假天数直接落在区间内
	for i := 1; i <= ins.Personnel; i++ {
		s := roster.Summary(i)
		if s.LeaveDays < ins.LeaveMin || s.LeaveDays > ins.LeaveMax {
			t.Errorf("人员 %d 休假 %d 天, 期望 [%d,%d]", i, s.LeaveDays, ins.LeaveMin, ins.LeaveMax)
		}
		if s.DutyDays > ins.WorkloadMax {
			t.Errorf("人员 %d 执勤 %d 天, 超过上限 %d", i, s.DutyDays, ins.WorkloadMax)
		}
	}

	// 覆盖为等式，每个槽位恰好1人
	coverage := stats.NewCoverageAnalyzer().Analyze(roster)
	if coverage.TotalSlots != ins.Days {
		t.Errorf("槽位总数 = %d, 期望 %d", coverage.TotalSlots, ins.Days)
	}
	if coverage.OverallCoverage != 100 || coverage.SlotSatisfaction != 100 {
		t.Errorf("覆盖率 = %.1f%%, 满足率 = %.1f%%, 期望均为 100%%",
			coverage.OverallCoverage, coverage.SlotSatisfaction)
	}
	if len(coverage.Understaffed) != 0 || len(coverage.Overstaffed) != 0 {
		t.Errorf("缺人槽位 %d 个, 超配槽位 %d 个, 期望均为 0",
			len(coverage.Understaffed), len(coverage.Overstaffed))
	}

	// 总执勤人次由覆盖等式锁定，人均执勤天数为精确值
	fairness := stats.NewFairnessAnalyzer().Analyze(roster)
	if fairness.AvgDutyDays != 2.0 {
		t.Errorf("人均执勤天数 = %v, 期望 2.0", fairness.AvgDutyDays)
	}
	if len(fairness.PersonStats) != ins.Personnel {
		t.Errorf("人员统计条数 = %d, 期望 %d", len(fairness.PersonStats), ins.Personnel)
	}
	if fairness.OverallFairnessScore <= 0 || fairness.OverallFairnessScore > 100 {
		t.Errorf("公平性评分 = %v, 超出 (0,100]", fairness.OverallFairnessScore)
	}
}

func TestClinicCalendarExport(t *testing.T) {
	ins := clinicInstance(t)
	res := mustSolve(t, ins, model.UniformCompetency(ins.Personnel, ins.Sections, 1))

	// 2019年4月1日是星期一，6天排进单周行
	if ins.FirstWeekday() != 0 {
		t.Fatalf("当月1号星期偏移 = %d, 期望 0", ins.FirstWeekday())
	}
	if ins.RowsPerPerson() != 1 {
		t.Fatalf("每人周行数 = %d, 期望 1", ins.RowsPerPerson())
	}

	table := writer.BuildTable(res.Roster)
	if len(table.Blocks) != ins.Personnel {
		t.Fatalf("日历块数 = %d, 期望 %d", len(table.Blocks), ins.Personnel)
	}
	if table.Blocks[2].Label != "P3" {
		t.Errorf("第三块标签 = %s, 期望 P3", table.Blocks[2].Label)
	}

	csv := writer.FormatCSV(res.Roster)
	if n := strings.Count(csv, "\n"); n != 1+ins.Personnel {
		t.Errorf("CSV 行数 = %d, 期望 %d", n, 1+ins.Personnel)
	}
	if !strings.HasPrefix(csv, "Personnel,Monday") {
		t.Errorf("CSV 表头异常: %q", strings.SplitN(csv, "\n", 2)[0])
	}
}

func TestClinicPresetRecommend(t *testing.T) {
	pm := policy.NewManager()

	preset, ok := pm.Recommend(8)
	if !ok {
		t.Fatal("8人团队应推荐到预设")
	}
	if preset.Name != "clinic" {
		t.Errorf("推荐预设 = %s, 期望 clinic", preset.Name)
	}

	if _, ok := pm.Recommend(5); ok {
		t.Error("5人团队不应命中任何预设")
	}
}
