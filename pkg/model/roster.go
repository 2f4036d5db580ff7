package model

import "fmt"

// DayShiftID 白班班次编号；夜班为实例的末位班次编号
const DayShiftID = 1

// Duty 某人某天的执勤安排
type Duty struct {
	Section int `json:"section"`
	Shift   int `json:"shift"`
}

// Cell 花名册中的一个 (人员, 天) 单元格
type Cell struct {
	Person  int   `json:"person"`
	Day     int   `json:"day"`
	OnLeave bool  `json:"on_leave"`
	Duty    *Duty `json:"duty,omitempty"`
}

// Assigned 该单元格是否有执勤安排
func (c *Cell) Assigned() bool {
	return c.Duty != nil
}

// Text 返回单元格的报表文本：休假为 "X"，执勤为 "k(l)"，空白表示未安排
func (c *Cell) Text() string {
	if c.OnLeave {
		return "X"
	}
	if c.Duty != nil {
		return fmt.Sprintf("%d(%d)", c.Duty.Section, c.Duty.Shift)
	}
	return ""
}

// AnomalyKind 解码异常类型
type AnomalyKind string

const (
	// AnomalyAmbiguity 同一 (人员, 天) 存在多个同时生效的排班变量，
	// 属于结构性违规，解码器只报告、绝不自行挑选其一。
	AnomalyAmbiguity AnomalyKind = "ambiguity"
	// AnomalyGap 某 (人员, 天) 既无休假也无排班，仅作为警告报告。
	AnomalyGap AnomalyKind = "gap"
)

// Anomaly 单条解码异常
type Anomaly struct {
	Kind   AnomalyKind `json:"kind"`
	Person int         `json:"person"`
	Day    int         `json:"day"`
	Duties []Duty      `json:"duties,omitempty"` // ambiguity 时同时生效的组合
}

// PersonSummary 个人当月汇总
type PersonSummary struct {
	Person      int `json:"person"`
	DutyDays    int `json:"duty_days"`
	LeaveDays   int `json:"leave_days"`
	DayShifts   int `json:"day_shifts"`
	NightShifts int `json:"night_shifts"`
}

// Roster 解码后的花名册。由求解结果一次性构建，之后只读。
type Roster struct {
	Instance  *Instance `json:"instance"`
	Cells     [][]Cell  `json:"cells"` // [人员-1][天-1]
	Anomalies []Anomaly `json:"anomalies,omitempty"`
	Objective float64   `json:"objective"`
}

// NewRoster 按实例维度分配空花名册
func NewRoster(ins *Instance) *Roster {
	cells := make([][]Cell, ins.Personnel)
	for i := range cells {
		row := make([]Cell, ins.Days)
		for j := range row {
			row[j] = Cell{Person: i + 1, Day: j + 1}
		}
		cells[i] = row
	}
	return &Roster{Instance: ins, Cells: cells}
}

// Cell 返回指定 (人员, 天) 的单元格；越界返回 nil
func (r *Roster) Cell(person, day int) *Cell {
	if person < 1 || person > len(r.Cells) {
		return nil
	}
	row := r.Cells[person-1]
	if day < 1 || day > len(row) {
		return nil
	}
	return &row[day-1]
}

// nightShiftID 夜班班次编号（末位班次）
func (r *Roster) nightShiftID() int {
	return r.Instance.Shifts
}

// ShiftDays 返回指定班次的当班分组：人员 → 当班日列表
func (r *Roster) ShiftDays(shift int) map[int][]int {
	group := make(map[int][]int)
	for i := range r.Cells {
		for j := range r.Cells[i] {
			cell := &r.Cells[i][j]
			if cell.Duty != nil && cell.Duty.Shift == shift {
				group[cell.Person] = append(group[cell.Person], cell.Day)
			}
		}
	}
	return group
}

// DayShiftTallies 每人白班天数
func (r *Roster) DayShiftTallies() map[int]int {
	return r.shiftTallies(DayShiftID)
}

// NightShiftTallies 每人夜班天数
func (r *Roster) NightShiftTallies() map[int]int {
	return r.shiftTallies(r.nightShiftID())
}

func (r *Roster) shiftTallies(shift int) map[int]int {
	tallies := make(map[int]int)
	for i := range r.Cells {
		for j := range r.Cells[i] {
			cell := &r.Cells[i][j]
			if cell.Duty != nil && cell.Duty.Shift == shift {
				tallies[cell.Person]++
			}
		}
	}
	return tallies
}

// Summary 返回指定人员的当月汇总
func (r *Roster) Summary(person int) PersonSummary {
	s := PersonSummary{Person: person}
	if person < 1 || person > len(r.Cells) {
		return s
	}
	night := r.nightShiftID()
	for j := range r.Cells[person-1] {
		cell := &r.Cells[person-1][j]
		switch {
		case cell.OnLeave:
			s.LeaveDays++
		case cell.Duty != nil:
			s.DutyDays++
			if cell.Duty.Shift == DayShiftID {
				s.DayShifts++
			}
			if cell.Duty.Shift == night {
				s.NightShifts++
			}
		}
	}
	return s
}

// Summaries 返回全员当月汇总
func (r *Roster) Summaries() []PersonSummary {
	out := make([]PersonSummary, 0, len(r.Cells))
	for i := range r.Cells {
		out = append(out, r.Summary(i+1))
	}
	return out
}

// Ambiguities 返回全部歧义类异常
func (r *Roster) Ambiguities() []Anomaly {
	var out []Anomaly
	for _, a := range r.Anomalies {
		if a.Kind == AnomalyAmbiguity {
			out = append(out, a)
		}
	}
	return out
}

// Gaps 返回全部空档类异常
func (r *Roster) Gaps() []Anomaly {
	var out []Anomaly
	for _, a := range r.Anomalies {
		if a.Kind == AnomalyGap {
			out = append(out, a)
		}
	}
	return out
}

// RunStatus 排班运行状态
type RunStatus string

const (
	RunStatusSolved     RunStatus = "solved"     // 求解成功并完成解码
	RunStatusInfeasible RunStatus = "infeasible" // 无可行解
	RunStatusFailed     RunStatus = "failed"     // 构建或求解故障
)

// RosterRun 一次排班运行的持久化记录
type RosterRun struct {
	BaseModel
	Department   string    `json:"department" db:"department"`
	SolverName   string    `json:"solver_name" db:"solver_name"`
	Status       RunStatus `json:"status" db:"status"`
	Objective    float64   `json:"objective" db:"objective"`
	Personnel    int       `json:"personnel" db:"personnel"`
	Days         int       `json:"days" db:"days"`
	Sections     int       `json:"sections" db:"sections"`
	Shifts       int       `json:"shifts" db:"shifts"`
	Columns      int       `json:"columns" db:"model_columns"`
	Rows         int       `json:"rows" db:"model_rows"`
	BuildMillis  int64     `json:"build_millis" db:"build_millis"`
	SolveMillis  int64     `json:"solve_millis" db:"solve_millis"`
	DecodeMillis int64     `json:"decode_millis" db:"decode_millis"`
	Message      string    `json:"message,omitempty" db:"message"`
}
