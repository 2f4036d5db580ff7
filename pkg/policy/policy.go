// Package policy 提供排班策略预设管理
package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/lunban/lunban/pkg/model"
)

// Preset 命名排班策略：一套可直接实例化的维度与参数。
// 预设固定科室结构，月份天数在实例化时按日历推算。
type Preset struct {
	Name  string `json:"name"`
	Label string `json:"label"` // 展示名

	Personnel int `json:"personnel"`
	Sections  int `json:"sections"`
	Shifts    int `json:"shifts"`

	Requirements   map[int]int     `json:"requirements"`
	QualityTargets map[int]float64 `json:"quality_targets"`

	WorkloadMin int `json:"workload_min"`
	WorkloadMax int `json:"workload_max"`

	LeaveWindow int `json:"leave_window"`
	LeaveMin    int `json:"leave_min"`
	LeaveMax    int `json:"leave_max"`

	TotalWorkloadTarget int `json:"total_workload_target"`
}

// Overrides 实例化时的覆盖项，nil 字段沿用预设值。
// Requirement 统一覆盖所有科室的需求人数与质量目标。
type Overrides struct {
	Personnel           *int `json:"personnel,omitempty"`
	Shifts              *int `json:"shifts,omitempty"`
	Requirement         *int `json:"requirement,omitempty"`
	WorkloadMin         *int `json:"workload_min,omitempty"`
	WorkloadMax         *int `json:"workload_max,omitempty"`
	LeaveWindow         *int `json:"leave_window,omitempty"`
	LeaveMin            *int `json:"leave_min,omitempty"`
	LeaveMax            *int `json:"leave_max,omitempty"`
	TotalWorkloadTarget *int `json:"total_workload_target,omitempty"`
}

// Manager 预设管理器
type Manager struct {
	presets map[string]*Preset
}

// NewManager 创建预设管理器并装入内置预设
func NewManager() *Manager {
	m := &Manager{presets: make(map[string]*Preset)}
	for _, p := range builtinPresets() {
		m.presets[p.Name] = p
	}
	return m
}

// builtinPresets 内置预设。hospital 复现 2019 年 4 月的参考实例，
// 其余为缩小后的结构，便于小团队与演示场景直接使用。
func builtinPresets() []*Preset {
	return []*Preset{
		{
			Name:                "hospital",
			Label:               "参考医院病区",
			Personnel:           80,
			Sections:            7,
			Shifts:              2,
			Requirements:        cloneIntMap(model.DefaultRequirements),
			QualityTargets:      cloneFloatMap(model.DefaultQualityTargets),
			WorkloadMin:         10,
			WorkloadMax:         12,
			LeaveWindow:         7,
			LeaveMin:            1,
			LeaveMax:            2,
			TotalWorkloadTarget: 22,
		},
		{
			Name:                "ward",
			Label:               "普通病区",
			Personnel:           24,
			Sections:            3,
			Shifts:              2,
			Requirements:        map[int]int{1: 2, 2: 3, 3: 2},
			QualityTargets:      map[int]float64{1: 2, 2: 3, 3: 2},
			WorkloadMin:         6,
			WorkloadMax:         11,
			LeaveWindow:         7,
			LeaveMin:            1,
			LeaveMax:            2,
			TotalWorkloadTarget: 18,
		},
		{
			Name:                "clinic",
			Label:               "小型门诊",
			Personnel:           8,
			Sections:            1,
			Shifts:              2,
			Requirements:        map[int]int{1: 1},
			QualityTargets:      map[int]float64{1: 1},
			WorkloadMin:         2,
			WorkloadMax:         6,
			LeaveWindow:         7,
			LeaveMin:            1,
			LeaveMax:            3,
			TotalWorkloadTarget: 8,
		},
	}
}

// Register 注册自定义预设，同名覆盖
func (m *Manager) Register(p *Preset) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("预设缺少名称")
	}
	if issues := ValidatePreset(p); len(issues) > 0 {
		return fmt.Errorf("预设 %q 参数无效: %v", p.Name, issues)
	}
	m.presets[p.Name] = p
	return nil
}

// Get 按名称取预设
func (m *Manager) Get(name string) (*Preset, bool) {
	p, ok := m.presets[name]
	return p, ok
}

// Names 返回全部预设名称，按字典序
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.presets))
	for name := range m.presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instance 按预设构造指定年月的排班实例
func (m *Manager) Instance(name string, year int, month time.Month) (*model.Instance, error) {
	return m.Customize(name, year, month, Overrides{})
}

// Customize 按预设构造实例并套用覆盖项
func (m *Manager) Customize(name string, year int, month time.Month, o Overrides) (*model.Instance, error) {
	p, ok := m.presets[name]
	if !ok {
		return nil, fmt.Errorf("未知预设 %q", name)
	}

	ins := model.NewInstance(year, month)
	ins.Personnel = p.Personnel
	ins.Sections = p.Sections
	ins.Shifts = p.Shifts
	ins.Requirements = cloneIntMap(p.Requirements)
	ins.QualityTargets = cloneFloatMap(p.QualityTargets)
	ins.WorkloadMin = p.WorkloadMin
	ins.WorkloadMax = p.WorkloadMax
	ins.LeaveWindow = p.LeaveWindow
	ins.LeaveMin = p.LeaveMin
	ins.LeaveMax = p.LeaveMax
	ins.TotalWorkloadTarget = p.TotalWorkloadTarget

	if o.Personnel != nil {
		ins.Personnel = *o.Personnel
	}
	if o.Shifts != nil {
		ins.Shifts = *o.Shifts
	}
	if o.Requirement != nil {
		for k := 1; k <= ins.Sections; k++ {
			ins.Requirements[k] = *o.Requirement
			ins.QualityTargets[k] = float64(*o.Requirement)
		}
	}
	if o.WorkloadMin != nil {
		ins.WorkloadMin = *o.WorkloadMin
	}
	if o.WorkloadMax != nil {
		ins.WorkloadMax = *o.WorkloadMax
	}
	if o.LeaveWindow != nil {
		ins.LeaveWindow = *o.LeaveWindow
	}
	if o.LeaveMin != nil {
		ins.LeaveMin = *o.LeaveMin
	}
	if o.LeaveMax != nil {
		ins.LeaveMax = *o.LeaveMax
	}
	if o.TotalWorkloadTarget != nil {
		ins.TotalWorkloadTarget = *o.TotalWorkloadTarget
	}

	return ins, nil
}

// Recommend 按人员规模推荐预设：从人数不超过 personnel 的预设中
// 取人数最大的一个，没有可用预设时返回 false。
func (m *Manager) Recommend(personnel int) (*Preset, bool) {
	var best *Preset
	for _, p := range m.presets {
		if p.Personnel > personnel {
			continue
		}
		if best == nil || p.Personnel > best.Personnel {
			best = p
		}
	}
	return best, best != nil
}

// ValidatePreset 校验预设参数，返回问题列表
func ValidatePreset(p *Preset) []string {
	var issues []string

	if p.Personnel < 1 {
		issues = append(issues, "人员数必须大于0")
	}
	if p.Sections < 1 {
		issues = append(issues, "科室数必须大于0")
	}
	if p.Shifts < 1 {
		issues = append(issues, "班次数必须大于0")
	}
	for k := 1; k <= p.Sections; k++ {
		if _, ok := p.Requirements[k]; !ok {
			issues = append(issues, fmt.Sprintf("科室 %d 缺少需求人数", k))
		}
		if _, ok := p.QualityTargets[k]; !ok {
			issues = append(issues, fmt.Sprintf("科室 %d 缺少质量目标", k))
		}
	}
	if p.WorkloadMin < 0 || p.WorkloadMin > p.WorkloadMax {
		issues = append(issues, "班数区间无效")
	}
	if p.LeaveWindow < 1 {
		issues = append(issues, "休假窗口长度必须大于0")
	}
	if p.LeaveMin < 0 || p.LeaveMin > p.LeaveMax {
		issues = append(issues, "休假区间无效")
	}
	if p.TotalWorkloadTarget < 0 {
		issues = append(issues, "总班数目标不能为负")
	}

	return issues
}

// 辅助函数

func cloneIntMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneFloatMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
