package policy

import (
	"testing"
	"time"
)

func TestBuiltinPresetsValid(t *testing.T) {
	m := NewManager()

	names := m.Names()
	want := []string{"clinic", "hospital", "ward"}
	if len(names) != len(want) {
		t.Fatalf("预设名称 = %v, 期望 %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("预设名称[%d] = %q, 期望 %q", i, names[i], name)
		}
	}

	for _, name := range names {
		p, ok := m.Get(name)
		if !ok {
			t.Fatalf("预设 %q 不存在", name)
		}
		if issues := ValidatePreset(p); len(issues) > 0 {
			t.Errorf("内置预设 %q 校验失败: %v", name, issues)
		}
		ins, err := m.Instance(name, 2019, time.April)
		if err != nil {
			t.Fatalf("预设 %q 实例化失败: %v", name, err)
		}
		if ve := ins.Validate(); ve != nil {
			t.Errorf("预设 %q 的实例校验失败: %v", name, ve)
		}
	}
}

func TestHospitalPresetMatchesReference(t *testing.T) {
	m := NewManager()
	ins, err := m.Instance("hospital", 2019, time.April)
	if err != nil {
		t.Fatalf("实例化失败: %v", err)
	}

	if ins.Personnel != 80 || ins.Days != 30 || ins.Sections != 7 || ins.Shifts != 2 {
		t.Errorf("维度 = %d/%d/%d/%d, 期望 80/30/7/2",
			ins.Personnel, ins.Days, ins.Sections, ins.Shifts)
	}
	if ins.Requirements[6] != 8 || ins.QualityTargets[6] != 8 {
		t.Errorf("科室 6 需求/目标 = %d/%v, 期望 8/8", ins.Requirements[6], ins.QualityTargets[6])
	}
	if ins.WorkloadMin != 10 || ins.WorkloadMax != 12 {
		t.Errorf("班数区间 = [%d, %d], 期望 [10, 12]", ins.WorkloadMin, ins.WorkloadMax)
	}
	if ins.LeaveWindow != 7 || ins.LeaveMin != 1 || ins.LeaveMax != 2 {
		t.Errorf("休假区间 = %d/%d/%d, 期望 7/1/2", ins.LeaveWindow, ins.LeaveMin, ins.LeaveMax)
	}
	if ins.TotalWorkloadTarget != 22 {
		t.Errorf("总班数目标 = %d, 期望 22", ins.TotalWorkloadTarget)
	}
}

func TestInstanceUnknownPreset(t *testing.T) {
	m := NewManager()
	if _, err := m.Instance("missing", 2019, time.April); err == nil {
		t.Error("未知预设应返回错误")
	}
}

func TestCustomizeOverrides(t *testing.T) {
	m := NewManager()

	personnel := 12
	requirement := 2
	leaveMin := 0
	ins, err := m.Customize("clinic", 2019, time.May, Overrides{
		Personnel:   &personnel,
		Requirement: &requirement,
		LeaveMin:    &leaveMin,
	})
	if err != nil {
		t.Fatalf("实例化失败: %v", err)
	}

	if ins.Personnel != 12 {
		t.Errorf("人员数 = %d, 期望 12", ins.Personnel)
	}
	if ins.Days != 31 {
		t.Errorf("天数 = %d, 期望 31", ins.Days)
	}
	if ins.Requirements[1] != 2 || ins.QualityTargets[1] != 2 {
		t.Errorf("覆盖后需求/目标 = %d/%v, 期望 2/2", ins.Requirements[1], ins.QualityTargets[1])
	}
	if ins.LeaveMin != 0 {
		t.Errorf("休假下界 = %d, 期望 0", ins.LeaveMin)
	}
	// 未覆盖的字段沿用预设
	if ins.Shifts != 2 || ins.WorkloadMax != 6 {
		t.Errorf("未覆盖字段 = %d/%d, 期望 2/6", ins.Shifts, ins.WorkloadMax)
	}

	// 实例持有自己的需求表，改动不应影响预设
	ins.Requirements[1] = 99
	p, _ := m.Get("clinic")
	if p.Requirements[1] != 1 {
		t.Errorf("预设需求被实例改动污染: %d", p.Requirements[1])
	}
}

func TestRegisterPreset(t *testing.T) {
	m := NewManager()

	err := m.Register(&Preset{
		Name:           "icu",
		Label:          "重症监护",
		Personnel:      16,
		Sections:       2,
		Shifts:         3,
		Requirements:   map[int]int{1: 2, 2: 1},
		QualityTargets: map[int]float64{1: 2, 2: 1},
		WorkloadMin:    3,
		WorkloadMax:    8,
		LeaveWindow:    7,
		LeaveMin:       1,
		LeaveMax:       2,
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if _, ok := m.Get("icu"); !ok {
		t.Error("注册后取不到预设")
	}

	if err := m.Register(&Preset{Name: ""}); err == nil {
		t.Error("缺名预设应拒绝注册")
	}
	if err := m.Register(&Preset{Name: "bad", Personnel: -1}); err == nil {
		t.Error("参数无效的预设应拒绝注册")
	}
}

func TestValidatePresetIssues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Preset)
		want   string
	}{
		{"人员数为零", func(p *Preset) { p.Personnel = 0 }, "人员数必须大于0"},
		{"缺科室需求", func(p *Preset) { delete(p.Requirements, 1) }, "科室 1 缺少需求人数"},
		{"班数区间颠倒", func(p *Preset) { p.WorkloadMin = 9; p.WorkloadMax = 3 }, "班数区间无效"},
		{"休假区间颠倒", func(p *Preset) { p.LeaveMin = 3; p.LeaveMax = 1 }, "休假区间无效"},
		{"窗口为零", func(p *Preset) { p.LeaveWindow = 0 }, "休假窗口长度必须大于0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Preset{
				Name:           "probe",
				Personnel:      10,
				Sections:       1,
				Shifts:         2,
				Requirements:   map[int]int{1: 1},
				QualityTargets: map[int]float64{1: 1},
				WorkloadMin:    2,
				WorkloadMax:    6,
				LeaveWindow:    7,
				LeaveMin:       1,
				LeaveMax:       2,
			}
			tt.mutate(p)

			issues := ValidatePreset(p)
			found := false
			for _, issue := range issues {
				if issue == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("问题列表 = %v, 期望包含 %q", issues, tt.want)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	m := NewManager()

	tests := []struct {
		name      string
		personnel int
		want      string
		ok        bool
	}{
		{"大团队取医院预设", 100, "hospital", true},
		{"中等团队取病区预设", 30, "ward", true},
		{"小团队取门诊预设", 10, "clinic", true},
		{"人数不足无推荐", 5, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := m.Recommend(tt.personnel)
			if ok != tt.ok {
				t.Fatalf("推荐结果 = %v, 期望 %v", ok, tt.ok)
			}
			if ok && p.Name != tt.want {
				t.Errorf("推荐预设 = %q, 期望 %q", p.Name, tt.want)
			}
		})
	}
}
