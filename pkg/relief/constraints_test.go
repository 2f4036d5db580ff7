package relief

import (
	"testing"

	"github.com/lunban/lunban/pkg/model"
)

func reliefRequest(roster *model.Roster, comp *model.Competency, slot Slot) *Request {
	return &Request{Roster: roster, Competency: comp, Slot: slot}
}

func TestAvailabilityConstraint(t *testing.T) {
	ins := &model.Instance{Personnel: 2, Days: 3, Sections: 1, Shifts: 1, WorkloadMax: 3}
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).OnLeave = true
	roster.Cell(1, 2).Duty = &model.Duty{Section: 1, Shift: 1}

	c := NewAvailabilityConstraint()

	if ok, _, msg := c.Evaluate(1, reliefRequest(roster, nil, Slot{Day: 1, Section: 1, Shift: 1})); ok {
		t.Error("休假日应不可行")
	} else if msg == "" {
		t.Error("应返回违规说明")
	}
	if ok, _, _ := c.Evaluate(1, reliefRequest(roster, nil, Slot{Day: 2, Section: 1, Shift: 1})); ok {
		t.Error("已有执勤应不可行")
	}
	if ok, _, _ := c.Evaluate(1, reliefRequest(roster, nil, Slot{Day: 3, Section: 1, Shift: 1})); !ok {
		t.Error("空闲日应可行")
	}
	if ok, _, _ := c.Evaluate(9, reliefRequest(roster, nil, Slot{Day: 1, Section: 1, Shift: 1})); ok {
		t.Error("越界人员应不可行")
	}
}

func TestCompetencyConstraint(t *testing.T) {
	ins := &model.Instance{Personnel: 3, Days: 3, Sections: 2, Shifts: 1, WorkloadMax: 3}
	roster := model.NewRoster(ins)
	comp := model.NewCompetency(3, 2)
	_ = comp.Set(1, 1, 4)
	_ = comp.Set(2, 1, 0)

	c := NewCompetencyConstraint()
	slot := Slot{Day: 1, Section: 1, Shift: 1}

	ok, penalty, _ := c.Evaluate(1, reliefRequest(roster, comp, slot))
	if !ok {
		t.Fatal("有评分者应可行")
	}
	if penalty != -40 {
		t.Errorf("评分 4 的奖励 = %v, 期望 -40", penalty)
	}

	if ok, _, _ := c.Evaluate(2, reliefRequest(roster, comp, slot)); ok {
		t.Error("零分者应不可行")
	}
	if ok, _, _ := c.Evaluate(3, reliefRequest(roster, comp, slot)); ok {
		t.Error("缺失评分者应不可行")
	}

	// 无评分表时跳过检查
	if ok, penalty, _ := c.Evaluate(3, reliefRequest(roster, nil, slot)); !ok || penalty != 0 {
		t.Error("无评分表应跳过检查")
	}
}

func TestNightRestConstraint(t *testing.T) {
	ins := &model.Instance{Personnel: 2, Days: 4, Sections: 1, Shifts: 2, WorkloadMax: 4}
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 2} // 第 1 天夜班
	roster.Cell(2, 3).Duty = &model.Duty{Section: 1, Shift: 1} // 第 3 天白班

	c := NewNightRestConstraint()

	// 前一日夜班, 白班补位不可行
	if ok, _, _ := c.Evaluate(1, reliefRequest(roster, nil, Slot{Day: 2, Section: 1, Shift: 1})); ok {
		t.Error("前一日夜班后补白班应不可行")
	}
	// 夜班补位不影响
	if ok, _, _ := c.Evaluate(1, reliefRequest(roster, nil, Slot{Day: 2, Section: 1, Shift: 2})); !ok {
		t.Error("前一日夜班后补夜班应可行")
	}
	// 次日白班, 夜班补位不可行
	if ok, _, _ := c.Evaluate(2, reliefRequest(roster, nil, Slot{Day: 2, Section: 1, Shift: 2})); ok {
		t.Error("次日白班前补夜班应不可行")
	}

	// 单班种实例跳过
	single := model.NewRoster(&model.Instance{Personnel: 2, Days: 4, Sections: 1, Shifts: 1, WorkloadMax: 4})
	if ok, _, _ := c.Evaluate(1, reliefRequest(single, nil, Slot{Day: 2, Section: 1, Shift: 1})); !ok {
		t.Error("单班种实例应跳过夜白衔接检查")
	}
}

func TestWorkloadCapConstraint(t *testing.T) {
	ins := &model.Instance{Personnel: 2, Days: 5, Sections: 1, Shifts: 1, WorkloadMax: 2}
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}
	roster.Cell(1, 2).Duty = &model.Duty{Section: 1, Shift: 1}

	c := NewWorkloadCapConstraint()
	slot := Slot{Day: 4, Section: 1, Shift: 1}

	// 已有 2 班, 上限 2, 再补一班越界
	if ok, _, _ := c.Evaluate(1, reliefRequest(roster, nil, slot)); ok {
		t.Error("班数已达上限应不可行")
	}

	// 空闲人员软惩罚为 0
	ok, penalty, _ := c.Evaluate(2, reliefRequest(roster, nil, slot))
	if !ok || penalty != 0 {
		t.Errorf("零班数候选应可行且无惩罚, 实际 ok=%v penalty=%v", ok, penalty)
	}
}

func TestBalanceConstraint(t *testing.T) {
	ins := &model.Instance{Personnel: 2, Days: 4, Sections: 1, Shifts: 1, WorkloadMax: 4}
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}
	roster.Cell(1, 2).Duty = &model.Duty{Section: 1, Shift: 1}

	c := NewBalanceConstraint()
	slot := Slot{Day: 3, Section: 1, Shift: 1}

	_, heavy, _ := c.Evaluate(1, reliefRequest(roster, nil, slot))
	_, light, _ := c.Evaluate(2, reliefRequest(roster, nil, slot))

	if heavy <= 0 {
		t.Errorf("班数高于均值应惩罚, 实际 %v", heavy)
	}
	if light >= 0 {
		t.Errorf("班数低于均值应奖励, 实际 %v", light)
	}
}

func TestConsecutiveDutyConstraint(t *testing.T) {
	ins := &model.Instance{Personnel: 2, Days: 6, Sections: 1, Shifts: 1, WorkloadMax: 6}
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}
	roster.Cell(1, 2).Duty = &model.Duty{Section: 1, Shift: 1}
	roster.Cell(1, 4).Duty = &model.Duty{Section: 1, Shift: 1}

	c := NewConsecutiveDutyConstraint()

	// 补第 3 天会连成 1-4 共 4 天
	_, penalty, _ := c.Evaluate(1, reliefRequest(roster, nil, Slot{Day: 3, Section: 1, Shift: 1}))
	if penalty != 12 {
		t.Errorf("连续 4 天执勤的惩罚 = %v, 期望 12", penalty)
	}

	// 孤立补位无惩罚
	_, penalty, _ = c.Evaluate(2, reliefRequest(roster, nil, Slot{Day: 3, Section: 1, Shift: 1}))
	if penalty != 0 {
		t.Errorf("孤立补位的惩罚 = %v, 期望 0", penalty)
	}
}

func TestDefaultConstraints(t *testing.T) {
	cs := DefaultConstraints()
	if len(cs) != 6 {
		t.Fatalf("默认约束数 = %d, 期望 6", len(cs))
	}
	hard := 0
	for _, c := range cs {
		if c.Name() == "" || c.Weight() <= 0 {
			t.Errorf("约束 %q 元信息不完整", c.Name())
		}
		if c.Kind() == "hard" {
			hard++
		}
	}
	if hard != 4 {
		t.Errorf("硬约束数 = %d, 期望 4", hard)
	}
}
