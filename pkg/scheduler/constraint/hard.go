package constraint

import (
	"fmt"

	"github.com/lunban/lunban/pkg/milp"
)

// Coverage 科室人数覆盖：每个 (天,科室,班次) 的排班人数等于该科室的需求人数。
// 每个科室的覆盖行只引用本科室自己的排班变量与需求值。
type Coverage struct{}

// Name 返回约束名称
func (*Coverage) Name() string { return "科室人数覆盖" }

// Type 返回约束类型
func (*Coverage) Type() Type { return TypeCoverage }

// Category 返回约束类别
func (*Coverage) Category() Category { return CategoryHard }

// Apply 生成覆盖约束
func (*Coverage) Apply(ctx *Context) error {
	ins := ctx.Instance
	for j := 1; j <= ins.Days; j++ {
		for k := 1; k <= ins.Sections; k++ {
			req, ok := ins.Requirement(k)
			if !ok {
				return fmt.Errorf("科室 %d 缺少需求人数配置", k)
			}
			for l := 1; l <= ins.Shifts; l++ {
				var expr milp.Expr
				for i := 1; i <= ins.Personnel; i++ {
					id, ok := ctx.Space.X(i, j, k, l)
					if !ok {
						return fmt.Errorf("排班变量 X(%d,%d,%d,%d) 不在变量空间内", i, j, k, l)
					}
					expr.Add(id, 1)
				}
				name := fmt.Sprintf("cover_%d_%d_%d", j, k, l)
				if err := ctx.addRow(TypeCoverage, name, expr.Terms, milp.Equal, float64(req)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// SingleShift 每日至多一个班次：每人每天最多排一个 (科室,班次)。
type SingleShift struct{}

// Name 返回约束名称
func (*SingleShift) Name() string { return "每日至多一个班次" }

// Type 返回约束类型
func (*SingleShift) Type() Type { return TypeSingleShift }

// Category 返回约束类别
func (*SingleShift) Category() Category { return CategoryHard }

// Apply 生成单班次约束
func (*SingleShift) Apply(ctx *Context) error {
	ins := ctx.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			var expr milp.Expr
			if err := ctx.dutySum(&expr, i, j); err != nil {
				return err
			}
			name := fmt.Sprintf("single_%d_%d", i, j)
			if err := ctx.addRow(TypeSingleShift, name, expr.Terms, milp.LessEqual, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// LeaveExclusive 休假与上班互斥：每人每天排班数加休假标记不超过1。
type LeaveExclusive struct{}

// Name 返回约束名称
func (*LeaveExclusive) Name() string { return "休假与上班互斥" }

// Type 返回约束类型
func (*LeaveExclusive) Type() Type { return TypeLeaveExclusive }

// Category 返回约束类别
func (*LeaveExclusive) Category() Category { return CategoryHard }

// Apply 生成互斥约束
func (*LeaveExclusive) Apply(ctx *Context) error {
	ins := ctx.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			var expr milp.Expr
			if err := ctx.dutySum(&expr, i, j); err != nil {
				return err
			}
			h, ok := ctx.Space.H(i, j)
			if !ok {
				return fmt.Errorf("休假变量 h(%d,%d) 不在变量空间内", i, j)
			}
			expr.Add(h, 1)
			name := fmt.Sprintf("excl_%d_%d", i, j)
			if err := ctx.addRow(TypeLeaveExclusive, name, expr.Terms, milp.LessEqual, 1); err != nil {
				return err
			}
		}
	}
	return nil
}

// LeaveWindow 滚动休假区间：每人每个连续窗口内的休假天数落在 [LeaveMin, LeaveMax]。
// 每个窗口生成上下界两行。天数不足一个窗口时不生成任何行。
type LeaveWindow struct{}

// Name 返回约束名称
func (*LeaveWindow) Name() string { return "滚动休假区间" }

// Type 返回约束类型
func (*LeaveWindow) Type() Type { return TypeLeaveWindow }

// Category 返回约束类别
func (*LeaveWindow) Category() Category { return CategoryHard }

// Apply 生成滚动窗口约束
func (*LeaveWindow) Apply(ctx *Context) error {
	ins := ctx.Instance
	w := ins.LeaveWindow
	if w <= 0 || ins.Days < w {
		return nil
	}
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days-w+1; j++ {
			var expr milp.Expr
			for d := 0; d < w; d++ {
				h, ok := ctx.Space.H(i, j+d)
				if !ok {
					return fmt.Errorf("休假变量 h(%d,%d) 不在变量空间内", i, j+d)
				}
				expr.Add(h, 1)
			}
			lo := fmt.Sprintf("leavewin_lo_%d_%d", i, j)
			if err := ctx.addRow(TypeLeaveWindow, lo, expr.Terms, milp.GreaterEqual, float64(ins.LeaveMin)); err != nil {
				return err
			}
			hi := fmt.Sprintf("leavewin_hi_%d_%d", i, j)
			if err := ctx.addRow(TypeLeaveWindow, hi, expr.Terms, milp.LessEqual, float64(ins.LeaveMax)); err != nil {
				return err
			}
		}
	}
	return nil
}

// WorkloadBand 单班种当月班数区间：每人每个班种当月的班数落在 [WorkloadMin, WorkloadMax]。
// 每个 (人员,班次) 生成上下界两行。
type WorkloadBand struct{}

// Name 返回约束名称
func (*WorkloadBand) Name() string { return "单班种班数区间" }

// Type 返回约束类型
func (*WorkloadBand) Type() Type { return TypeWorkloadBand }

// Category 返回约束类别
func (*WorkloadBand) Category() Category { return CategoryHard }

// Apply 生成班数区间约束
func (*WorkloadBand) Apply(ctx *Context) error {
	ins := ctx.Instance
	for i := 1; i <= ins.Personnel; i++ {
		for l := 1; l <= ins.Shifts; l++ {
			var expr milp.Expr
			for j := 1; j <= ins.Days; j++ {
				for k := 1; k <= ins.Sections; k++ {
					id, ok := ctx.Space.X(i, j, k, l)
					if !ok {
						return fmt.Errorf("排班变量 X(%d,%d,%d,%d) 不在变量空间内", i, j, k, l)
					}
					expr.Add(id, 1)
				}
			}
			lo := fmt.Sprintf("load_lo_%d_%d", i, l)
			if err := ctx.addRow(TypeWorkloadBand, lo, expr.Terms, milp.GreaterEqual, float64(ins.WorkloadMin)); err != nil {
				return err
			}
			hi := fmt.Sprintf("load_hi_%d_%d", i, l)
			if err := ctx.addRow(TypeWorkloadBand, hi, expr.Terms, milp.LessEqual, float64(ins.WorkloadMax)); err != nil {
				return err
			}
		}
	}
	return nil
}

// NightMorning 夜班次日不排早班：当晚值夜班的人不得在次日值早班。
// 夜班取末位班次，早班取首位班次；只有一个班种时无夜班，不生成任何行。
type NightMorning struct{}

// Name 返回约束名称
func (*NightMorning) Name() string { return "夜班次日不排早班" }

// Type 返回约束类型
func (*NightMorning) Type() Type { return TypeNightMorning }

// Category 返回约束类别
func (*NightMorning) Category() Category { return CategoryHard }

// Apply 生成夜转早约束
func (*NightMorning) Apply(ctx *Context) error {
	ins := ctx.Instance
	if ins.Shifts < 2 {
		return nil
	}
	night := ins.Shifts
	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j < ins.Days; j++ {
			var expr milp.Expr
			for k := 1; k <= ins.Sections; k++ {
				id, ok := ctx.Space.X(i, j, k, night)
				if !ok {
					return fmt.Errorf("排班变量 X(%d,%d,%d,%d) 不在变量空间内", i, j, k, night)
				}
				expr.Add(id, 1)
			}
			for k := 1; k <= ins.Sections; k++ {
				id, ok := ctx.Space.X(i, j+1, k, 1)
				if !ok {
					return fmt.Errorf("排班变量 X(%d,%d,%d,1) 不在变量空间内", i, j+1, k)
				}
				expr.Add(id, 1)
			}
			name := fmt.Sprintf("night_%d_%d", i, j)
			if err := ctx.addRow(TypeNightMorning, name, expr.Terms, milp.LessEqual, 1); err != nil {
				return err
			}
		}
	}
	return nil
}
