// Package constraint 定义排班模型的约束生成器和管理器。
// 每个生成器向模型写入一族线性约束行，行引用变量空间中的列。
package constraint

import (
	"fmt"

	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/vars"
)

// Type 约束类型标识
type Type string

const (
	// 硬约束类型
	TypeCoverage       Type = "coverage"             // 科室人数覆盖
	TypeSingleShift    Type = "single_shift_per_day" // 每日至多一个班次
	TypeLeaveExclusive Type = "leave_exclusivity"    // 休假与上班互斥
	TypeLeaveWindow    Type = "rolling_leave_window" // 滚动休假区间
	TypeWorkloadBand   Type = "shift_workload_band"  // 单班种当月班数区间
	TypeNightMorning   Type = "night_morning_rest"   // 夜班次日不排早班

	// 目标约束类型（软目标以等式加偏差变量实现）
	TypeRestPattern    Type = "rest_pattern_goal"    // 目标1：休-班-休节奏
	TypeDutyPattern    Type = "duty_pattern_goal"    // 目标2：班-休-班节奏
	TypeTotalWorkload  Type = "total_workload_goal"  // 目标3：当月总班数均衡
	TypeSectionQuality Type = "section_quality_goal" // 目标4起：科室质量达标
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategoryGoal Category = "goal" // 目标约束（偏差计入目标函数）
)

// Generator 约束生成器接口
type Generator interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Apply 向上下文中的模型写入本族全部约束行
	Apply(ctx *Context) error
}

// Context 模型构建上下文。所有构建状态由它显式持有，
// 在生成器与目标装配器之间传递，不存在包级单例。
type Context struct {
	Model      *milp.Model
	Space      *vars.Space
	Instance   *model.Instance
	Competency *model.Competency

	rowsByType map[Type]int
}

// NewContext 创建构建上下文
func NewContext(m *milp.Model, sp *vars.Space, ins *model.Instance, comp *model.Competency) *Context {
	return &Context{
		Model:      m,
		Space:      sp,
		Instance:   ins,
		Competency: comp,
		rowsByType: make(map[Type]int),
	}
}

// addRow 写入一行并按类型计数
func (c *Context) addRow(t Type, name string, terms []milp.Term, sense milp.Sense, rhs float64) error {
	if err := c.Model.AddRow(name, terms, sense, rhs); err != nil {
		return err
	}
	c.rowsByType[t]++
	return nil
}

// RowCount 某类型已生成的行数
func (c *Context) RowCount(t Type) int {
	return c.rowsByType[t]
}

// RowCounts 各类型已生成的行数
func (c *Context) RowCounts() map[Type]int {
	out := make(map[Type]int, len(c.rowsByType))
	for t, n := range c.rowsByType {
		out[t] = n
	}
	return out
}

// dutySum 向表达式追加人员 i 第 j 天全部 (科室,班次) 排班变量
func (c *Context) dutySum(expr *milp.Expr, i, j int) error {
	ins := c.Instance
	for k := 1; k <= ins.Sections; k++ {
		for l := 1; l <= ins.Shifts; l++ {
			id, ok := c.Space.X(i, j, k, l)
			if !ok {
				return fmt.Errorf("排班变量 X(%d,%d,%d,%d) 不在变量空间内", i, j, k, l)
			}
			expr.Add(id, 1)
		}
	}
	return nil
}
