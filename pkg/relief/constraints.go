package relief

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
)

// Constraint 顶班评估约束接口。硬约束不满足时候选人直接不可行，
// 软约束只产生罚分（负值为奖励）。
type Constraint interface {
	Name() string
	Kind() string // hard/soft
	Weight() float64
	Evaluate(person int, req *Request) (bool, float64, string)
}

type baseConstraint struct {
	name   string
	kind   string
	weight float64
}

func (b *baseConstraint) Name() string    { return b.name }
func (b *baseConstraint) Kind() string    { return b.kind }
func (b *baseConstraint) Weight() float64 { return b.weight }

// =========================================
// 1. AvailabilityConstraint 当日可用性
// =========================================

// AvailabilityConstraint 候选人补位当天必须既不休假也无执勤
type AvailabilityConstraint struct {
	baseConstraint
}

func NewAvailabilityConstraint() *AvailabilityConstraint {
	return &AvailabilityConstraint{
		baseConstraint: baseConstraint{
			name:   "Availability",
			kind:   "hard",
			weight: 1000,
		},
	}
}

func (c *AvailabilityConstraint) Evaluate(person int, req *Request) (bool, float64, string) {
	cell := req.Roster.Cell(person, req.Slot.Day)
	if cell == nil {
		return false, c.weight, "候选人编号超出花名册范围"
	}
	if cell.OnLeave {
		return false, c.weight, "候选人当日休假"
	}
	if cell.Assigned() {
		return false, c.weight, "候选人当日已有执勤"
	}
	return true, 0, ""
}

// =========================================
// 2. CompetencyConstraint 科室胜任力
// =========================================

// CompetencyConstraint 候选人必须具备补位科室的胜任力评分，
// 评分越高奖励越大
type CompetencyConstraint struct {
	baseConstraint
}

func NewCompetencyConstraint() *CompetencyConstraint {
	return &CompetencyConstraint{
		baseConstraint: baseConstraint{
			name:   "Competency",
			kind:   "hard",
			weight: 800,
		},
	}
}

func (c *CompetencyConstraint) Evaluate(person int, req *Request) (bool, float64, string) {
	if req.Competency == nil {
		// 无评分表，跳过检查
		return true, 0, ""
	}
	score, ok := req.Competency.Score(person, req.Slot.Section)
	if !ok {
		return false, c.weight, fmt.Sprintf("缺少科室 %d 的胜任力评分", req.Slot.Section)
	}
	if score <= 0 {
		return false, c.weight, fmt.Sprintf("科室 %d 的胜任力不足", req.Slot.Section)
	}

	// 奖励：评分越高越优先
	return true, -score * 10, ""
}

// =========================================
// 3. NightRestConstraint 夜班衔接休息
// =========================================

// NightRestConstraint 前一日夜班者不得补白班，次日白班者不得补夜班
type NightRestConstraint struct {
	baseConstraint
}

func NewNightRestConstraint() *NightRestConstraint {
	return &NightRestConstraint{
		baseConstraint: baseConstraint{
			name:   "NightRest",
			kind:   "hard",
			weight: 600,
		},
	}
}

func (c *NightRestConstraint) Evaluate(person int, req *Request) (bool, float64, string) {
	ins := req.Roster.Instance
	if ins.Shifts < 2 {
		// 单班种实例不存在夜白衔接
		return true, 0, ""
	}
	night := ins.Shifts

	if req.Slot.Shift == model.DayShiftID && req.Slot.Day > 1 {
		prev := req.Roster.Cell(person, req.Slot.Day-1)
		if prev != nil && prev.Duty != nil && prev.Duty.Shift == night {
			return false, c.weight, "前一日夜班后不得补白班"
		}
	}

	if req.Slot.Shift == night && req.Slot.Day < ins.Days {
		next := req.Roster.Cell(person, req.Slot.Day+1)
		if next != nil && next.Duty != nil && next.Duty.Shift == model.DayShiftID {
			return false, c.weight, "次日白班前不得补夜班"
		}
	}

	return true, 0, ""
}

// =========================================
// 4. WorkloadCapConstraint 班种工作量上限
// =========================================

// WorkloadCapConstraint 补位后该班种当月班数不得超过上限
type WorkloadCapConstraint struct {
	baseConstraint
}

func NewWorkloadCapConstraint() *WorkloadCapConstraint {
	return &WorkloadCapConstraint{
		baseConstraint: baseConstraint{
			name:   "WorkloadCap",
			kind:   "hard",
			weight: 500,
		},
	}
}

func (c *WorkloadCapConstraint) Evaluate(person int, req *Request) (bool, float64, string) {
	ins := req.Roster.Instance
	if ins.WorkloadMax <= 0 {
		return true, 0, ""
	}

	count := 0
	for j := 1; j <= ins.Days; j++ {
		cell := req.Roster.Cell(person, j)
		if cell != nil && cell.Duty != nil && cell.Duty.Shift == req.Slot.Shift {
			count++
		}
	}

	if count+1 > ins.WorkloadMax {
		return false, c.weight, fmt.Sprintf("班次 %d 当月班数已达上限 %d", req.Slot.Shift, ins.WorkloadMax)
	}

	// 软惩罚：越接近上限惩罚越高
	penalty := float64(count) / float64(ins.WorkloadMax) * 10
	return true, penalty, ""
}

// =========================================
// 5. BalanceConstraint 班数均衡
// =========================================

// BalanceConstraint 优先让当月班数低于平均值的人员补位
type BalanceConstraint struct {
	baseConstraint
}

func NewBalanceConstraint() *BalanceConstraint {
	return &BalanceConstraint{
		baseConstraint: baseConstraint{
			name:   "Balance",
			kind:   "soft",
			weight: 50,
		},
	}
}

func (c *BalanceConstraint) Evaluate(person int, req *Request) (bool, float64, string) {
	ins := req.Roster.Instance
	if ins.Personnel == 0 {
		return true, 0, ""
	}

	total := 0
	for i := 1; i <= ins.Personnel; i++ {
		total += req.Roster.Summary(i).DutyDays
	}
	avg := float64(total) / float64(ins.Personnel)

	// 班数高于平均惩罚，低于平均奖励
	penalty := (float64(req.Roster.Summary(person).DutyDays) - avg) * 5
	return true, penalty, ""
}

// =========================================
// 6. ConsecutiveDutyConstraint 连续执勤
// =========================================

// ConsecutiveDutyConstraint 补位后形成的连续执勤段越长惩罚越高
type ConsecutiveDutyConstraint struct {
	baseConstraint
	MaxRun int // 超过该长度开始惩罚
}

func NewConsecutiveDutyConstraint() *ConsecutiveDutyConstraint {
	return &ConsecutiveDutyConstraint{
		baseConstraint: baseConstraint{
			name:   "ConsecutiveDuty",
			kind:   "soft",
			weight: 40,
		},
		MaxRun: 3,
	}
}

func (c *ConsecutiveDutyConstraint) Evaluate(person int, req *Request) (bool, float64, string) {
	run := 1
	for j := req.Slot.Day - 1; j >= 1; j-- {
		cell := req.Roster.Cell(person, j)
		if cell == nil || !cell.Assigned() {
			break
		}
		run++
	}
	for j := req.Slot.Day + 1; j <= req.Roster.Instance.Days; j++ {
		cell := req.Roster.Cell(person, j)
		if cell == nil || !cell.Assigned() {
			break
		}
		run++
	}

	if run >= c.MaxRun {
		return true, float64(run) * 3, ""
	}
	return true, 0, ""
}

// DefaultConstraints 返回默认顶班约束集合
func DefaultConstraints() []Constraint {
	return []Constraint{
		NewAvailabilityConstraint(),    // 当日可用
		NewCompetencyConstraint(),      // 科室胜任力
		NewNightRestConstraint(),       // 夜班衔接休息
		NewWorkloadCapConstraint(),     // 班种工作量上限
		NewBalanceConstraint(),         // 班数均衡
		NewConsecutiveDutyConstraint(), // 连续执勤
	}
}
