package relief

import (
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

// buildRoster 构造 3 人 × 5 天 × 1 科室 × 2 班次的小花名册。
// 第 3 天白班空缺：人员1前一日值夜班，人员3当日休假，
// 人员2 是唯一可行的顶班人选。
func buildRoster() (*model.Roster, *model.Competency) {
	ins := &model.Instance{
		Personnel:   3,
		Days:        5,
		Sections:    1,
		Shifts:      2,
		WorkloadMin: 0,
		WorkloadMax: 5,
	}
	r := model.NewRoster(ins)

	r.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}
	r.Cell(1, 2).Duty = &model.Duty{Section: 1, Shift: 2}
	r.Cell(1, 4).Duty = &model.Duty{Section: 1, Shift: 1}

	r.Cell(2, 1).Duty = &model.Duty{Section: 1, Shift: 2}
	r.Cell(2, 4).Duty = &model.Duty{Section: 1, Shift: 2}

	r.Cell(3, 3).OnLeave = true

	comp := model.NewCompetency(3, 1)
	_ = comp.Set(1, 1, 4)
	_ = comp.Set(2, 1, 2)
	_ = comp.Set(3, 1, 3)

	return r, comp
}

func TestDispatchBestMatch(t *testing.T) {
	roster, comp := buildRoster()
	engine := NewEngine()

	resp := engine.Dispatch(&Request{
		Roster:     roster,
		Competency: comp,
		Slot:       Slot{Day: 3, Section: 1, Shift: 1},
	})

	if !resp.Success {
		t.Fatalf("应找到顶班人选, 原因: %s", resp.Reason)
	}
	if resp.BestMatch == nil || resp.BestMatch.Person != 2 {
		t.Fatalf("最佳人选应为人员 2, 实际 %+v", resp.BestMatch)
	}
	if !resp.BestMatch.Feasible {
		t.Error("最佳人选应为可行解")
	}
	if resp.BestMatch.Competency != 2 {
		t.Errorf("最佳人选胜任力 = %v, 期望 2", resp.BestMatch.Competency)
	}
	if len(resp.BestMatch.MatchReasons) == 0 {
		t.Error("胜任力奖励应记入匹配原因")
	}
}

func TestDispatchNightRestBlocks(t *testing.T) {
	roster, comp := buildRoster()
	engine := NewEngine()

	// 仅评估人员 1：前一日夜班，白班补位应不可行
	resp := engine.Dispatch(&Request{
		Roster:     roster,
		Competency: comp,
		Slot:       Slot{Day: 3, Section: 1, Shift: 1},
		Candidates: []int{1},
	})

	if resp.Success {
		t.Fatal("人员 1 前一日夜班, 不应可行")
	}
	if len(resp.Alternatives) != 1 {
		t.Fatalf("应返回 1 条不可行备选, 实际 %d", len(resp.Alternatives))
	}
	if len(resp.Alternatives[0].Violations) == 0 {
		t.Error("不可行候选应带违规说明")
	}
}

func TestDispatchNoFeasible(t *testing.T) {
	roster, comp := buildRoster()
	engine := NewEngine()

	// 第 4 天人员 1、2 均已有执勤
	resp := engine.Dispatch(&Request{
		Roster:     roster,
		Competency: comp,
		Slot:       Slot{Day: 4, Section: 1, Shift: 1},
		Candidates: []int{1, 2},
	})

	if resp.Success {
		t.Fatal("两名候选人均已有执勤, 不应成功")
	}
	if resp.Reason == "" {
		t.Error("失败响应应带原因")
	}
	if len(resp.Alternatives) != 2 {
		t.Errorf("备选数 = %d, 期望 2", len(resp.Alternatives))
	}
}

func TestDispatchSlotOutOfRange(t *testing.T) {
	roster, comp := buildRoster()
	engine := NewEngine()

	cases := []Slot{
		{Day: 0, Section: 1, Shift: 1},
		{Day: 6, Section: 1, Shift: 1},
		{Day: 1, Section: 2, Shift: 1},
		{Day: 1, Section: 1, Shift: 3},
	}
	for _, slot := range cases {
		resp := engine.Dispatch(&Request{Roster: roster, Competency: comp, Slot: slot})
		if resp.Success {
			t.Errorf("坐标 %+v 越界, 不应成功", slot)
		}
	}
}

func TestDispatchNilRoster(t *testing.T) {
	engine := NewEngine()

	resp := engine.Dispatch(&Request{Slot: Slot{Day: 1, Section: 1, Shift: 1}})
	if resp.Success {
		t.Fatal("缺少花名册时不应成功")
	}

	resp = engine.Dispatch(nil)
	if resp.Success {
		t.Fatal("空请求不应成功")
	}
}

func TestDispatchMaxResults(t *testing.T) {
	ins := &model.Instance{
		Personnel:   8,
		Days:        5,
		Sections:    1,
		Shifts:      1,
		WorkloadMax: 5,
	}
	roster := model.NewRoster(ins)
	comp := model.UniformCompetency(8, 1, 3)
	engine := NewEngine()

	resp := engine.Dispatch(&Request{
		Roster:     roster,
		Competency: comp,
		Slot:       Slot{Day: 2, Section: 1, Shift: 1},
		MaxResults: 3,
	})

	if !resp.Success {
		t.Fatalf("全员空闲, 应成功: %s", resp.Reason)
	}
	// 最佳人选之外最多 MaxResults-1 条备选
	if len(resp.Alternatives) > 2 {
		t.Errorf("备选数 = %d, 期望至多 2", len(resp.Alternatives))
	}
}

func TestDispatchCustomConstraints(t *testing.T) {
	roster, comp := buildRoster()
	engine := NewEngineWithConstraints([]Constraint{NewAvailabilityConstraint()})

	// 去掉夜班衔接约束后, 人员 1 在第 3 天空闲即可行
	resp := engine.Dispatch(&Request{
		Roster:     roster,
		Competency: comp,
		Slot:       Slot{Day: 3, Section: 1, Shift: 1},
		Candidates: []int{1},
	})

	if !resp.Success {
		t.Fatalf("仅保留可用性约束时人员 1 应可行: %s", resp.Reason)
	}
}
