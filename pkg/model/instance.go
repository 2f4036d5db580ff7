package model

import (
	"fmt"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
)

// DefaultRequirements 默认各科室单班次需求人数
var DefaultRequirements = map[int]int{
	1: 3, 2: 4, 3: 4, 4: 4, 5: 6, 6: 8, 7: 5,
}

// DefaultQualityTargets 默认各科室单班次质量目标（与需求人数同值）
var DefaultQualityTargets = map[int]float64{
	1: 3, 2: 4, 3: 4, 4: 4, 5: 6, 6: 8, 7: 5,
}

// Instance 一次排班运行的问题实例：维度与参数表。
// 所有参数均为数据而非代码，默认值复现 2019 年 4 月的参考实例，
// 测试可以构造缩小后的实例。
type Instance struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	Personnel int `json:"personnel"` // 人员数 n
	Days      int `json:"days"`      // 天数 m
	Sections  int `json:"sections"`  // 科室数 s
	Shifts    int `json:"shifts"`    // 班次数 t（1=白班，末位=夜班）

	Requirements   map[int]int     `json:"requirements"`    // 科室 → 单班次需求人数
	QualityTargets map[int]float64 `json:"quality_targets"` // 科室 → 单班次质量目标

	WorkloadMin int `json:"workload_min"` // 单班种当月最少班数
	WorkloadMax int `json:"workload_max"` // 单班种当月最多班数

	LeaveWindow int `json:"leave_window"` // 滚动休假窗口长度（天）
	LeaveMin    int `json:"leave_min"`    // 窗口内最少休假天数
	LeaveMax    int `json:"leave_max"`    // 窗口内最多休假天数

	TotalWorkloadTarget int `json:"total_workload_target"` // 目标3：当月总班数目标
}

// NewInstance 创建指定年月的默认实例（天数按日历推算）
func NewInstance(year int, month time.Month) *Instance {
	return &Instance{
		Year:                year,
		Month:               month,
		Personnel:           80,
		Days:                daysInMonth(year, month),
		Sections:            7,
		Shifts:              2,
		Requirements:        copyIntMap(DefaultRequirements),
		QualityTargets:      copyFloatMap(DefaultQualityTargets),
		WorkloadMin:         10,
		WorkloadMax:         12,
		LeaveWindow:         7,
		LeaveMin:            1,
		LeaveMax:            2,
		TotalWorkloadTarget: 22,
	}
}

// DefaultInstance 返回参考实例（2019年4月，80人，7科室，2班次）
func DefaultInstance() *Instance {
	return NewInstance(2019, time.April)
}

// Requirement 返回科室 k 的单班次需求人数
func (ins *Instance) Requirement(section int) (int, bool) {
	v, ok := ins.Requirements[section]
	return v, ok
}

// QualityTarget 返回科室 k 的单班次质量目标
func (ins *Instance) QualityTarget(section int) (float64, bool) {
	v, ok := ins.QualityTargets[section]
	return v, ok
}

// FirstWeekday 返回当月1号是星期几（星期一=0 … 星期日=6）。
// 未设置年月时返回0，使日历布局从星期一开始。
func (ins *Instance) FirstWeekday() int {
	if ins.Year == 0 {
		return 0
	}
	wd := time.Date(ins.Year, ins.Month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}

// RowsPerPerson 返回日历布局中每人占用的周行数
func (ins *Instance) RowsPerPerson() int {
	return (ins.Days + ins.FirstWeekday() + 6) / 7
}

// Weekdays 日历布局的列标题（自星期一起）
var Weekdays = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Validate 校验实例参数。
// 维度上界导致的空区间（如 m≤2 时目标1无索引）不属于错误。
func (ins *Instance) Validate() *apperrors.ValidationErrors {
	ve := &apperrors.ValidationErrors{}

	if ins.Personnel < 1 {
		ve.Add("personnel", "人员数必须大于0")
	}
	if ins.Days < 1 {
		ve.Add("days", "天数必须大于0")
	}
	if ins.Sections < 1 {
		ve.Add("sections", "科室数必须大于0")
	}
	if ins.Shifts < 1 {
		ve.Add("shifts", "班次数必须大于0")
	}

	for k := 1; k <= ins.Sections; k++ {
		if _, ok := ins.Requirements[k]; !ok {
			ve.Add("requirements", fmt.Sprintf("科室 %d 缺少需求人数", k))
		}
		if _, ok := ins.QualityTargets[k]; !ok {
			ve.Add("quality_targets", fmt.Sprintf("科室 %d 缺少质量目标", k))
		}
	}

	if ins.LeaveWindow < 1 {
		ve.Add("leave_window", "休假窗口长度必须大于0")
	}
	if ins.LeaveMin < 0 {
		ve.Add("leave_min", "窗口内最少休假天数不能为负")
	}
	if ins.LeaveMin > ins.LeaveMax {
		ve.Add("leave_max", "窗口内休假上界不能小于下界")
	}
	if ins.WorkloadMin < 0 {
		ve.Add("workload_min", "班数下界不能为负")
	}
	if ins.WorkloadMin > ins.WorkloadMax {
		ve.Add("workload_max", "班数上界不能小于下界")
	}
	if ins.TotalWorkloadTarget < 0 {
		ve.Add("total_workload_target", "总班数目标不能为负")
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}

// Clone 深拷贝实例
func (ins *Instance) Clone() *Instance {
	clone := *ins
	clone.Requirements = copyIntMap(ins.Requirements)
	clone.QualityTargets = copyFloatMap(ins.QualityTargets)
	return &clone
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func copyIntMap(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloatMap(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
