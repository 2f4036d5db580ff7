package constraint

import (
	"fmt"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/scheduler/vars"
)

// deviationPair 取目标 g 在指定元组处的 d⁻/d⁺ 列
func deviationPair(ctx *Context, ref vars.VarRef) (under, over milp.ColID, err error) {
	ref.Family = vars.FamilyGoalUnder
	under, ok := ctx.Space.Under(ref)
	if !ok {
		return 0, 0, fmt.Errorf("目标%d在 (%d,%d,%d) 处缺少欠达偏差列", ref.Goal, ref.Person, ref.Day, ref.Shift)
	}
	ref.Family = vars.FamilyGoalOver
	over, ok = ctx.Space.Over(ref)
	if !ok {
		return 0, 0, fmt.Errorf("目标%d在 (%d,%d,%d) 处缺少超达偏差列", ref.Goal, ref.Person, ref.Day, ref.Shift)
	}
	return under, over, nil
}

// RestPattern 目标1：休-班-休节奏。
// 对每个人员和每个起始日，第 j 天休假、第 j+1 天上班、第 j+2 天休假
// 三项之和以2为目标，双向偏差计入目标函数。
// 天数不足三天时无起始日，不生成任何行。
type RestPattern struct{}

// Name 返回约束名称
func (*RestPattern) Name() string { return "休班休节奏目标" }

// Type 返回约束类型
func (*RestPattern) Type() Type { return TypeRestPattern }

// Category 返回约束类别
func (*RestPattern) Category() Category { return CategoryGoal }

// Apply 生成目标1等式
func (*RestPattern) Apply(ctx *Context) error {
	ins := ctx.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days-2; j++ {
			var expr milp.Expr
			h1, ok := ctx.Space.H(i, j)
			if !ok {
				return fmt.Errorf("休假变量 h(%d,%d) 不在变量空间内", i, j)
			}
			expr.Add(h1, 1)
			if err := ctx.dutySum(&expr, i, j+1); err != nil {
				return err
			}
			h2, ok := ctx.Space.H(i, j+2)
			if !ok {
				return fmt.Errorf("休假变量 h(%d,%d) 不在变量空间内", i, j+2)
			}
			expr.Add(h2, 1)

			under, over, err := deviationPair(ctx, vars.VarRef{Goal: 1, Person: i, Day: j})
			if err != nil {
				return err
			}
			expr.Add(under, 1)
			expr.Add(over, -1)

			name := fmt.Sprintf("goal1_%d_%d", i, j)
			if err := ctx.addRow(TypeRestPattern, name, expr.Terms, milp.Equal, 2); err != nil {
				return err
			}
		}
	}
	return nil
}

// DutyPattern 目标2：班-休-班节奏。
// 对每个人员和每个起始日，第 j 天排班数、第 j+1 天休假、第 j+1 天排班数
// 三项之和以2为目标。等式按业务方现行口径逐项照录，
// 其中两个排班求和分别落在第 j 天和第 j+1 天。
type DutyPattern struct{}

// Name 返回约束名称
func (*DutyPattern) Name() string { return "班休班节奏目标" }

// Type 返回约束类型
func (*DutyPattern) Type() Type { return TypeDutyPattern }

// Category 返回约束类别
func (*DutyPattern) Category() Category { return CategoryGoal }

// Apply 生成目标2等式
func (*DutyPattern) Apply(ctx *Context) error {
	ins := ctx.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days-2; j++ {
			var expr milp.Expr
			if err := ctx.dutySum(&expr, i, j); err != nil {
				return err
			}
			h, ok := ctx.Space.H(i, j+1)
			if !ok {
				return fmt.Errorf("休假变量 h(%d,%d) 不在变量空间内", i, j+1)
			}
			expr.Add(h, 1)
			if err := ctx.dutySum(&expr, i, j+1); err != nil {
				return err
			}

			under, over, err := deviationPair(ctx, vars.VarRef{Goal: 2, Person: i, Day: j})
			if err != nil {
				return err
			}
			expr.Add(under, 1)
			expr.Add(over, -1)

			name := fmt.Sprintf("goal2_%d_%d", i, j)
			if err := ctx.addRow(TypeDutyPattern, name, expr.Terms, milp.Equal, 2); err != nil {
				return err
			}
		}
	}
	return nil
}

// TotalWorkload 目标3：当月总班数均衡。
// 每个人员当月全部排班数以 TotalWorkloadTarget 为目标，双向偏差计入目标函数。
type TotalWorkload struct{}

// Name 返回约束名称
func (*TotalWorkload) Name() string { return "总班数均衡目标" }

// Type 返回约束类型
func (*TotalWorkload) Type() Type { return TypeTotalWorkload }

// Category 返回约束类别
func (*TotalWorkload) Category() Category { return CategoryGoal }

// Apply 生成目标3等式
func (*TotalWorkload) Apply(ctx *Context) error {
	ins := ctx.Instance
	for i := 1; i <= ins.Personnel; i++ {
		var expr milp.Expr
		for j := 1; j <= ins.Days; j++ {
			if err := ctx.dutySum(&expr, i, j); err != nil {
				return err
			}
		}

		under, over, err := deviationPair(ctx, vars.VarRef{Goal: 3, Person: i})
		if err != nil {
			return err
		}
		expr.Add(under, 1)
		expr.Add(over, -1)

		name := fmt.Sprintf("goal3_%d", i)
		if err := ctx.addRow(TypeTotalWorkload, name, expr.Terms, milp.Equal, float64(ins.TotalWorkloadTarget)); err != nil {
			return err
		}
	}
	return nil
}

// SectionQuality 目标4起：科室质量达标。
// 科室 k 对应目标 k+3。对每个 (天,班次)，当班人员的胜任度加权和
// 以该科室的质量目标为目标值。引用到缺失的胜任度评分即报错中止，
// 绝不把缺失当作零分。
type SectionQuality struct{}

// Name 返回约束名称
func (*SectionQuality) Name() string { return "科室质量达标目标" }

// Type 返回约束类型
func (*SectionQuality) Type() Type { return TypeSectionQuality }

// Category 返回约束类别
func (*SectionQuality) Category() Category { return CategoryGoal }

// Apply 生成各科室的质量目标等式
func (*SectionQuality) Apply(ctx *Context) error {
	ins := ctx.Instance
	if ctx.Competency == nil {
		return fmt.Errorf("缺少胜任度评分表，无法生成质量目标约束")
	}
	for k := 1; k <= ins.Sections; k++ {
		goal := k + 3
		target, ok := ins.QualityTarget(k)
		if !ok {
			return fmt.Errorf("科室 %d 缺少质量目标配置", k)
		}
		for j := 1; j <= ins.Days; j++ {
			for l := 1; l <= ins.Shifts; l++ {
				var expr milp.Expr
				for i := 1; i <= ins.Personnel; i++ {
					score, ok := ctx.Competency.Score(i, k)
					if !ok {
						return apperrors.MissingCompetency(i, k)
					}
					id, ok := ctx.Space.X(i, j, k, l)
					if !ok {
						return fmt.Errorf("排班变量 X(%d,%d,%d,%d) 不在变量空间内", i, j, k, l)
					}
					expr.Add(id, score)
				}

				under, over, err := deviationPair(ctx, vars.VarRef{Goal: goal, Day: j, Shift: l})
				if err != nil {
					return err
				}
				expr.Add(under, 1)
				expr.Add(over, -1)

				name := fmt.Sprintf("goal%d_%d_%d", goal, j, l)
				if err := ctx.addRow(TypeSectionQuality, name, expr.Terms, milp.Equal, target); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
