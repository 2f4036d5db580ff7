// Package validator 提供花名册验证功能
package validator

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictExclusivity ConflictType = "exclusivity"  // 休假与执勤同时生效
	ConflictCoverage    ConflictType = "coverage"     // 槽位人数与需求不符
	ConflictLeaveWindow ConflictType = "leave_window" // 滚动窗口休假天数越界
	ConflictWorkload    ConflictType = "workload"     // 单班种班数越界
	ConflictNightRest   ConflictType = "night_rest"   // 夜班次日接早班
	ConflictAmbiguity   ConflictType = "ambiguity"    // 同一格存在多个排班组合
	ConflictGap         ConflictType = "gap"          // 既无休假也无排班
)

// 冲突严重级别
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"`
	Person   int          `json:"person,omitempty"`
	Day      int          `json:"day,omitempty"`
	Message  string       `json:"message"`
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	CheckCoverage  bool // 是否校验槽位覆盖
	CheckBands     bool // 是否校验休假窗与班数区间
	CheckNightRest bool // 是否校验夜班接早班
	GapIsError     bool // 空档按 error 报告，默认 warning
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		CheckCoverage:  true,
		CheckBands:     true,
		CheckNightRest: true,
	}
}

// RosterValidator 花名册检验器。对解码后的花名册逐条复核硬性规则，
// 判定与建模侧相互独立，也可用于复核外部导入或人工改动过的方案。
type RosterValidator struct {
	config *DetectorConfig
}

// NewRosterValidator 创建花名册检验器，config 为 nil 时用默认配置
func NewRosterValidator(config *DetectorConfig) *RosterValidator {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &RosterValidator{config: config}
}

// Validate 检测花名册中的全部冲突
func (v *RosterValidator) Validate(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	if roster == nil || roster.Instance == nil {
		return conflicts
	}

	conflicts = append(conflicts, v.detectExclusivity(roster)...)
	conflicts = append(conflicts, v.detectGaps(roster)...)
	conflicts = append(conflicts, v.detectAmbiguities(roster)...)
	if v.config.CheckCoverage {
		conflicts = append(conflicts, v.detectCoverage(roster)...)
	}
	if v.config.CheckBands {
		conflicts = append(conflicts, v.detectLeaveWindows(roster)...)
		conflicts = append(conflicts, v.detectWorkloadBands(roster)...)
	}
	if v.config.CheckNightRest {
		conflicts = append(conflicts, v.detectNightRest(roster)...)
	}
	return conflicts
}

// detectExclusivity 检测休假与执勤同时生效的单元格
func (v *RosterValidator) detectExclusivity(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	ins := roster.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			cell := roster.Cell(i, j)
			if cell == nil || !cell.OnLeave || !cell.Assigned() {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictExclusivity,
				Severity: SeverityError,
				Person:   i,
				Day:      j,
				Message:  fmt.Sprintf("人员 %d 第 %d 天同时标记了休假与执勤", i, j),
			})
		}
	}
	return conflicts
}

// detectGaps 检测既无休假也无排班的单元格
func (v *RosterValidator) detectGaps(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	ins := roster.Instance
	severity := SeverityWarning
	if v.config.GapIsError {
		severity = SeverityError
	}
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			cell := roster.Cell(i, j)
			if cell == nil || cell.OnLeave || cell.Assigned() {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictGap,
				Severity: severity,
				Person:   i,
				Day:      j,
				Message:  fmt.Sprintf("人员 %d 第 %d 天既未休假也未排班", i, j),
			})
		}
	}
	return conflicts
}

// detectAmbiguities 转述解码阶段报告的歧义。歧义格在花名册里留空，
// 只能从异常列表得知原始取值。
func (v *RosterValidator) detectAmbiguities(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	for _, a := range roster.Ambiguities() {
		conflicts = append(conflicts, Conflict{
			Type:     ConflictAmbiguity,
			Severity: SeverityError,
			Person:   a.Person,
			Day:      a.Day,
			Message:  fmt.Sprintf("人员 %d 第 %d 天存在 %d 个同时生效的排班组合", a.Person, a.Day, len(a.Duties)),
		})
	}
	return conflicts
}

// detectCoverage 检测每个 (天,片区,班次) 槽位的人数是否等于需求
func (v *RosterValidator) detectCoverage(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	ins := roster.Instance

	assigned := make(map[[3]int]int)
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			cell := roster.Cell(i, j)
			if cell == nil || !cell.Assigned() {
				continue
			}
			assigned[[3]int{j, cell.Duty.Section, cell.Duty.Shift}]++
		}
	}

	for j := 1; j <= ins.Days; j++ {
		for k := 1; k <= ins.Sections; k++ {
			req, ok := ins.Requirement(k)
			if !ok {
				conflicts = append(conflicts, Conflict{
					Type:     ConflictCoverage,
					Severity: SeverityError,
					Day:      j,
					Message:  fmt.Sprintf("片区 %d 缺少需求人数配置", k),
				})
				continue
			}
			for l := 1; l <= ins.Shifts; l++ {
				got := assigned[[3]int{j, k, l}]
				if got == req {
					continue
				}
				conflicts = append(conflicts, Conflict{
					Type:     ConflictCoverage,
					Severity: SeverityError,
					Day:      j,
					Message:  fmt.Sprintf("第 %d 天片区 %d 班次 %d 需求 %d 人，实排 %d 人", j, k, l, req, got),
				})
			}
		}
	}
	return conflicts
}

// detectLeaveWindows 检测每个滚动窗口内的休假天数是否落在区间内
func (v *RosterValidator) detectLeaveWindows(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	ins := roster.Instance
	w := ins.LeaveWindow
	if w <= 0 || ins.Days < w {
		return conflicts
	}

	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days-w+1; j++ {
			leaves := 0
			for d := 0; d < w; d++ {
				if cell := roster.Cell(i, j+d); cell != nil && cell.OnLeave {
					leaves++
				}
			}
			if leaves >= ins.LeaveMin && leaves <= ins.LeaveMax {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictLeaveWindow,
				Severity: SeverityError,
				Person:   i,
				Day:      j,
				Message: fmt.Sprintf("人员 %d 第 %d~%d 天休假 %d 天，超出区间 [%d, %d]",
					i, j, j+w-1, leaves, ins.LeaveMin, ins.LeaveMax),
			})
		}
	}
	return conflicts
}

// detectWorkloadBands 检测每人每个班种的当月班数是否落在区间内
func (v *RosterValidator) detectWorkloadBands(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	ins := roster.Instance

	for i := 1; i <= ins.Personnel; i++ {
		counts := make(map[int]int, ins.Shifts)
		for j := 1; j <= ins.Days; j++ {
			cell := roster.Cell(i, j)
			if cell != nil && cell.Assigned() {
				counts[cell.Duty.Shift]++
			}
		}
		for l := 1; l <= ins.Shifts; l++ {
			n := counts[l]
			if n >= ins.WorkloadMin && n <= ins.WorkloadMax {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictWorkload,
				Severity: SeverityError,
				Person:   i,
				Message: fmt.Sprintf("人员 %d 班种 %d 当月 %d 班，超出区间 [%d, %d]",
					i, l, n, ins.WorkloadMin, ins.WorkloadMax),
			})
		}
	}
	return conflicts
}

// detectNightRest 检测夜班次日接早班。只有一个班种时没有夜班，直接跳过。
func (v *RosterValidator) detectNightRest(roster *model.Roster) []Conflict {
	var conflicts []Conflict
	ins := roster.Instance
	if ins.Shifts < 2 {
		return conflicts
	}
	night := ins.Shifts

	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j < ins.Days; j++ {
			cur := roster.Cell(i, j)
			next := roster.Cell(i, j+1)
			if cur == nil || next == nil || !cur.Assigned() || !next.Assigned() {
				continue
			}
			if cur.Duty.Shift != night || next.Duty.Shift != model.DayShiftID {
				continue
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictNightRest,
				Severity: SeverityError,
				Person:   i,
				Day:      j,
				Message:  fmt.Sprintf("人员 %d 第 %d 天值夜班后第 %d 天接早班", i, j, j+1),
			})
		}
	}
	return conflicts
}

// HasErrors 是否存在 error 级冲突
func HasErrors(conflicts []Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity 按严重级别统计冲突数
func CountBySeverity(conflicts []Conflict) map[string]int {
	counts := make(map[string]int)
	for _, c := range conflicts {
		counts[c.Severity]++
	}
	return counts
}
