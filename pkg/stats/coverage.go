// Package stats 提供排班统计分析功能
package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lunban/lunban/pkg/model"
)

// SlotCoverage 单个 (天, 片区, 班次) 槽位的覆盖情况
type SlotCoverage struct {
	Day      int `json:"day"`
	Section  int `json:"section"`
	Shift    int `json:"shift"`
	Required int `json:"required"`
	Assigned int `json:"assigned"`
}

// Gap 缺口人数，正数缺人、负数超配
func (s SlotCoverage) Gap() int {
	return s.Required - s.Assigned
}

// DayCoverage 单日覆盖汇总
type DayCoverage struct {
	Day          int     `json:"day"`
	Required     int     `json:"required"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"` // 人次覆盖率 (%)
}

// SectionCoverage 单片区当月覆盖汇总
type SectionCoverage struct {
	Section      int     `json:"section"`
	Required     int     `json:"required"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"` // 人次覆盖率 (%)
}

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖率
	TotalSlots       int     `json:"total_slots"`       // 槽位总数 (天×片区×班次)
	RequiredHeads    int     `json:"required_heads"`    // 总需求人次
	AssignedHeads    int     `json:"assigned_heads"`    // 实际排入人次
	OverallCoverage  float64 `json:"overall_coverage"`  // 人次覆盖率 (%)
	SlotSatisfaction float64 `json:"slot_satisfaction"` // 恰好满足需求的槽位占比 (%)

	// 按日期统计
	DailyCoverage map[int]*DayCoverage `json:"daily_coverage"`

	// 按片区统计
	SectionCoverage map[int]*SectionCoverage `json:"section_coverage"`

	// 问题识别
	Understaffed []SlotCoverage `json:"understaffed,omitempty"` // 缺人槽位
	Overstaffed  []SlotCoverage `json:"overstaffed,omitempty"`  // 超配槽位
}

// CoverageAnalyzer 覆盖率分析器。把解码后的花名册与各片区的
// 每班需求人数逐槽位对照，硬约束成立时所有槽位应恰好满足。
type CoverageAnalyzer struct {
	requirements map[int]int // 片区 -> 每班需求人数，空表示取实例配置
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{
		requirements: make(map[int]int),
	}
}

// SetRequirements 覆盖默认需求（片区 -> 每班需求人数）
func (c *CoverageAnalyzer) SetRequirements(reqs map[int]int) {
	c.requirements = reqs
}

// Analyze 对照需求分析花名册覆盖情况
func (c *CoverageAnalyzer) Analyze(roster *model.Roster) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:   make(map[int]*DayCoverage),
		SectionCoverage: make(map[int]*SectionCoverage),
	}
	if roster == nil || roster.Instance == nil {
		return metrics
	}
	ins := roster.Instance

	// 统计每个槽位实际排入的人数
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

	exact := 0
	for j := 1; j <= ins.Days; j++ {
		for k := 1; k <= ins.Sections; k++ {
			req := c.requirement(ins, k)
			for l := 1; l <= ins.Shifts; l++ {
				got := assigned[[3]int{j, k, l}]
				slot := SlotCoverage{Day: j, Section: k, Shift: l, Required: req, Assigned: got}

				metrics.TotalSlots++
				metrics.RequiredHeads += req
				metrics.AssignedHeads += got
				switch {
				case got < req:
					metrics.Understaffed = append(metrics.Understaffed, slot)
				case got > req:
					metrics.Overstaffed = append(metrics.Overstaffed, slot)
				default:
					exact++
				}

				day, ok := metrics.DailyCoverage[j]
				if !ok {
					day = &DayCoverage{Day: j}
					metrics.DailyCoverage[j] = day
				}
				day.Required += req
				day.Assigned += got

				sec, ok := metrics.SectionCoverage[k]
				if !ok {
					sec = &SectionCoverage{Section: k}
					metrics.SectionCoverage[k] = sec
				}
				sec.Required += req
				sec.Assigned += got
			}
		}
	}

	if metrics.RequiredHeads > 0 {
		metrics.OverallCoverage = float64(metrics.AssignedHeads) / float64(metrics.RequiredHeads) * 100
	}
	if metrics.TotalSlots > 0 {
		metrics.SlotSatisfaction = float64(exact) / float64(metrics.TotalSlots) * 100
	}
	for _, day := range metrics.DailyCoverage {
		if day.Required > 0 {
			day.CoverageRate = float64(day.Assigned) / float64(day.Required) * 100
		}
	}
	for _, sec := range metrics.SectionCoverage {
		if sec.Required > 0 {
			sec.CoverageRate = float64(sec.Assigned) / float64(sec.Required) * 100
		}
	}
	return metrics
}

// requirement 取片区需求，分析器覆盖值优先于实例配置
func (c *CoverageAnalyzer) requirement(ins *model.Instance, section int) int {
	if req, ok := c.requirements[section]; ok {
		return req
	}
	return ins.Requirements[section]
}

// GenerateCoverageReport 生成覆盖率文本报告
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	var sb strings.Builder

	sb.WriteString("=== 排班覆盖率报告 ===\n\n")
	sb.WriteString(fmt.Sprintf("槽位总数: %d\n", metrics.TotalSlots))
	sb.WriteString(fmt.Sprintf("需求人次: %d\n", metrics.RequiredHeads))
	sb.WriteString(fmt.Sprintf("排入人次: %d\n", metrics.AssignedHeads))
	sb.WriteString(fmt.Sprintf("人次覆盖率: %.1f%%\n", metrics.OverallCoverage))
	sb.WriteString(fmt.Sprintf("槽位满足率: %.1f%%\n", metrics.SlotSatisfaction))

	if len(metrics.SectionCoverage) > 0 {
		sb.WriteString("\n--- 片区覆盖 ---\n")
		sections := make([]int, 0, len(metrics.SectionCoverage))
		for k := range metrics.SectionCoverage {
			sections = append(sections, k)
		}
		sort.Ints(sections)
		for _, k := range sections {
			sec := metrics.SectionCoverage[k]
			sb.WriteString(fmt.Sprintf("片区 %d: 需求 %d, 排入 %d, 覆盖率 %.1f%%\n",
				sec.Section, sec.Required, sec.Assigned, sec.CoverageRate))
		}
	}

	if len(metrics.Understaffed) > 0 {
		sb.WriteString("\n--- 缺人槽位 ---\n")
		for _, slot := range metrics.Understaffed {
			sb.WriteString(fmt.Sprintf("第 %d 天 片区 %d 班次 %d: 需求 %d, 实排 %d, 缺 %d 人\n",
				slot.Day, slot.Section, slot.Shift, slot.Required, slot.Assigned, slot.Gap()))
		}
	}

	if len(metrics.Overstaffed) > 0 {
		sb.WriteString("\n--- 超配槽位 ---\n")
		for _, slot := range metrics.Overstaffed {
			sb.WriteString(fmt.Sprintf("第 %d 天 片区 %d 班次 %d: 需求 %d, 实排 %d, 超 %d 人\n",
				slot.Day, slot.Section, slot.Shift, slot.Required, slot.Assigned, -slot.Gap()))
		}
	}

	if len(metrics.Understaffed) == 0 && len(metrics.Overstaffed) == 0 && metrics.TotalSlots > 0 {
		sb.WriteString("\n所有槽位均恰好满足需求。\n")
	}

	return sb.String()
}
