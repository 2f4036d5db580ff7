package vars

import (
	"fmt"

	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/model"
)

// Space 决策变量空间：每个变量族一块按偏移寻址的稠密列表。
// 构建确定且全量，域内每个元组恰有一列，域外元组从不创建；
// 空域（如 m≤2 时目标1、2无索引）得到空集而非错误。
type Space struct {
	inst *model.Instance

	x     []milp.ColID   // (((i-1)·m+(j-1))·s+(k-1))·t+(l-1)
	h     []milp.ColID   // (i-1)·m+(j-1)
	under [][]milp.ColID // [目标-1][域内偏移]
	over  [][]milp.ColID
}

// Build 在模型上创建全部四个变量族并返回变量空间。
// 同一实例上的构建次序固定，列编号因此可复现。
func Build(m *milp.Model, inst *model.Instance) (*Space, error) {
	n, days, s, t := inst.Personnel, inst.Days, inst.Sections, inst.Shifts

	sp := &Space{
		inst: inst,
		x:    make([]milp.ColID, n*days*s*t),
		h:    make([]milp.ColID, n*days),
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= days; j++ {
			for k := 1; k <= s; k++ {
				for l := 1; l <= t; l++ {
					ref := VarRef{Family: FamilyAssignment, Person: i, Day: j, Section: k, Shift: l}
					id, err := m.AddBinary(ref.Name())
					if err != nil {
						return nil, fmt.Errorf("创建排班变量失败: %w", err)
					}
					sp.x[sp.xOffset(i, j, k, l)] = id
				}
			}
		}
	}

	for i := 1; i <= n; i++ {
		for j := 1; j <= days; j++ {
			ref := VarRef{Family: FamilyLeave, Person: i, Day: j}
			id, err := m.AddBinary(ref.Name())
			if err != nil {
				return nil, fmt.Errorf("创建休假变量失败: %w", err)
			}
			sp.h[sp.hOffset(i, j)] = id
		}
	}

	goals := sp.NumGoals()
	sp.under = make([][]milp.ColID, goals)
	sp.over = make([][]milp.ColID, goals)
	for g := 1; g <= goals; g++ {
		size := sp.goalDomainSize(g)
		sp.under[g-1] = make([]milp.ColID, 0, size)
		sp.over[g-1] = make([]milp.ColID, 0, size)
		if err := sp.buildGoalPairs(m, g); err != nil {
			return nil, err
		}
	}

	return sp, nil
}

// buildGoalPairs 按目标的索引域逐元组创建 d⁻/d⁺ 列（相邻成对）
func (sp *Space) buildGoalPairs(m *milp.Model, goal int) error {
	add := func(ref VarRef) error {
		under := ref
		under.Family = FamilyGoalUnder
		idU, err := m.AddContinuous(under.Name(), 0, milp.Inf)
		if err != nil {
			return fmt.Errorf("创建目标%d欠达偏差失败: %w", goal, err)
		}
		over := ref
		over.Family = FamilyGoalOver
		idO, err := m.AddContinuous(over.Name(), 0, milp.Inf)
		if err != nil {
			return fmt.Errorf("创建目标%d超达偏差失败: %w", goal, err)
		}
		sp.under[goal-1] = append(sp.under[goal-1], idU)
		sp.over[goal-1] = append(sp.over[goal-1], idO)
		return nil
	}

	switch {
	case goal <= 2:
		for i := 1; i <= sp.inst.Personnel; i++ {
			for j := 1; j <= sp.inst.Days-2; j++ {
				if err := add(VarRef{Goal: goal, Person: i, Day: j}); err != nil {
					return err
				}
			}
		}
	case goal == 3:
		for i := 1; i <= sp.inst.Personnel; i++ {
			if err := add(VarRef{Goal: goal, Person: i}); err != nil {
				return err
			}
		}
	default:
		for j := 1; j <= sp.inst.Days; j++ {
			for l := 1; l <= sp.inst.Shifts; l++ {
				if err := add(VarRef{Goal: goal, Day: j, Shift: l}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Instance 返回变量空间对应的实例
func (sp *Space) Instance() *model.Instance { return sp.inst }

// NumGoals 目标数：模式目标1、2，总量目标3，以及每科室一个质量目标
func (sp *Space) NumGoals() int { return 3 + sp.inst.Sections }

// NumAssignment 排班变量总数 n·m·s·t
func (sp *Space) NumAssignment() int { return len(sp.x) }

// NumLeave 休假变量总数 n·m
func (sp *Space) NumLeave() int { return len(sp.h) }

func (sp *Space) xOffset(i, j, k, l int) int {
	m, s, t := sp.inst.Days, sp.inst.Sections, sp.inst.Shifts
	return (((i-1)*m+(j-1))*s+(k-1))*t + (l - 1)
}

func (sp *Space) hOffset(i, j int) int {
	return (i-1)*sp.inst.Days + (j - 1)
}

// goalDomainSize 目标索引域的元组数
func (sp *Space) goalDomainSize(goal int) int {
	n, m, t := sp.inst.Personnel, sp.inst.Days, sp.inst.Shifts
	switch {
	case goal <= 2:
		if m <= 2 {
			return 0
		}
		return n * (m - 2)
	case goal == 3:
		return n
	default:
		return m * t
	}
}

// X 返回排班变量 X(i,j,k,l) 的列编号
func (sp *Space) X(i, j, k, l int) (milp.ColID, bool) {
	if i < 1 || i > sp.inst.Personnel || j < 1 || j > sp.inst.Days ||
		k < 1 || k > sp.inst.Sections || l < 1 || l > sp.inst.Shifts {
		return 0, false
	}
	return sp.x[sp.xOffset(i, j, k, l)], true
}

// H 返回休假变量 h(i,j) 的列编号
func (sp *Space) H(i, j int) (milp.ColID, bool) {
	if i < 1 || i > sp.inst.Personnel || j < 1 || j > sp.inst.Days {
		return 0, false
	}
	return sp.h[sp.hOffset(i, j)], true
}

// goalOffset 目标元组在其稠密域内的偏移
func (sp *Space) goalOffset(ref VarRef) (int, bool) {
	m, t := sp.inst.Days, sp.inst.Shifts
	switch {
	case ref.Goal <= 2:
		if ref.Person < 1 || ref.Person > sp.inst.Personnel || ref.Day < 1 || ref.Day > m-2 {
			return 0, false
		}
		return (ref.Person-1)*(m-2) + (ref.Day - 1), true
	case ref.Goal == 3:
		if ref.Person < 1 || ref.Person > sp.inst.Personnel {
			return 0, false
		}
		return ref.Person - 1, true
	default:
		if ref.Day < 1 || ref.Day > m || ref.Shift < 1 || ref.Shift > t {
			return 0, false
		}
		return (ref.Day-1)*t + (ref.Shift - 1), true
	}
}

// Under 返回目标 g 在指定元组处的 d⁻ 列编号
func (sp *Space) Under(ref VarRef) (milp.ColID, bool) {
	if ref.Goal < 1 || ref.Goal > sp.NumGoals() {
		return 0, false
	}
	off, ok := sp.goalOffset(ref)
	if !ok {
		return 0, false
	}
	return sp.under[ref.Goal-1][off], true
}

// Over 返回目标 g 在指定元组处的 d⁺ 列编号
func (sp *Space) Over(ref VarRef) (milp.ColID, bool) {
	if ref.Goal < 1 || ref.Goal > sp.NumGoals() {
		return 0, false
	}
	off, ok := sp.goalOffset(ref)
	if !ok {
		return 0, false
	}
	return sp.over[ref.Goal-1][off], true
}

// UnderCols 返回目标 g 的全部 d⁻ 列（域内构建序）
func (sp *Space) UnderCols(goal int) []milp.ColID {
	if goal < 1 || goal > sp.NumGoals() {
		return nil
	}
	return sp.under[goal-1]
}

// OverCols 返回目标 g 的全部 d⁺ 列（域内构建序）
func (sp *Space) OverCols(goal int) []milp.ColID {
	if goal < 1 || goal > sp.NumGoals() {
		return nil
	}
	return sp.over[goal-1]
}

// Resolve 解析变量名并校验索引落在本空间的域内，
// 返回结构化标识与对应列编号。
func (sp *Space) Resolve(name string) (VarRef, milp.ColID, error) {
	ref, err := Parse(name)
	if err != nil {
		return VarRef{}, 0, err
	}

	var (
		id milp.ColID
		ok bool
	)
	switch ref.Family {
	case FamilyAssignment:
		id, ok = sp.X(ref.Person, ref.Day, ref.Section, ref.Shift)
	case FamilyLeave:
		id, ok = sp.H(ref.Person, ref.Day)
	case FamilyGoalUnder:
		id, ok = sp.Under(ref)
	case FamilyGoalOver:
		id, ok = sp.Over(ref)
	}
	if !ok {
		return VarRef{}, 0, fmt.Errorf("变量 %s 的索引越出实例维度", name)
	}
	return ref, id, nil
}
