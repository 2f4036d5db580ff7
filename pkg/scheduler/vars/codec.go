// Package vars 构建决策变量空间：四个变量族的稠密索引存储，
// 以及求解器边界使用的变量名编解码。
package vars

import (
	"fmt"
	"strconv"
	"strings"
)

// Family 变量族
type Family uint8

const (
	// FamilyAssignment 排班变量 X(i,j,k,l)
	FamilyAssignment Family = iota
	// FamilyLeave 休假变量 h(i,j)
	FamilyLeave
	// FamilyGoalUnder 目标欠达偏差 d⁻
	FamilyGoalUnder
	// FamilyGoalOver 目标超达偏差 d⁺
	FamilyGoalOver
)

// String 返回变量族的名称前缀
func (f Family) String() string {
	switch f {
	case FamilyAssignment:
		return "X"
	case FamilyLeave:
		return "h"
	case FamilyGoalUnder:
		return "dminus"
	case FamilyGoalOver:
		return "dplus"
	default:
		return "?"
	}
}

// VarRef 结构化变量标识：(变量族, 索引元组)。
// 内部逻辑一律携带该结构，字符串名只在求解器边界出现。
type VarRef struct {
	Family  Family
	Goal    int // 偏差族的目标编号；其余族为0
	Person  int // i
	Day     int // j
	Section int // k
	Shift   int // l
}

// Name 编码变量名。与索引元组构成双射：
//
//	X_i_j_k_l  h_i_j  dminus_g_…  dplus_g_…
//
// 目标1、2的索引为 (i,j)，目标3为 (i)，目标4起为 (j,l)。
func (r VarRef) Name() string {
	switch r.Family {
	case FamilyAssignment:
		return fmt.Sprintf("X_%d_%d_%d_%d", r.Person, r.Day, r.Section, r.Shift)
	case FamilyLeave:
		return fmt.Sprintf("h_%d_%d", r.Person, r.Day)
	case FamilyGoalUnder, FamilyGoalOver:
		prefix := r.Family.String()
		switch {
		case r.Goal <= 2:
			return fmt.Sprintf("%s_%d_%d_%d", prefix, r.Goal, r.Person, r.Day)
		case r.Goal == 3:
			return fmt.Sprintf("%s_%d_%d", prefix, r.Goal, r.Person)
		default:
			return fmt.Sprintf("%s_%d_%d_%d", prefix, r.Goal, r.Day, r.Shift)
		}
	default:
		return ""
	}
}

// Parse 解析变量名为结构化标识。形状不合法即报错，
// 索引是否落在实例维度内由 Space.Resolve 判定。
func Parse(name string) (VarRef, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return VarRef{}, fmt.Errorf("无法解析的变量名: %s", name)
	}

	ints := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		v, err := strconv.Atoi(p)
		if err != nil {
			return VarRef{}, fmt.Errorf("变量名 %s 含非数字索引: %s", name, p)
		}
		ints = append(ints, v)
	}

	switch parts[0] {
	case "X":
		if len(ints) != 4 {
			return VarRef{}, fmt.Errorf("排班变量名 %s 应有4个索引", name)
		}
		return VarRef{
			Family: FamilyAssignment,
			Person: ints[0], Day: ints[1], Section: ints[2], Shift: ints[3],
		}, nil
	case "h":
		if len(ints) != 2 {
			return VarRef{}, fmt.Errorf("休假变量名 %s 应有2个索引", name)
		}
		return VarRef{Family: FamilyLeave, Person: ints[0], Day: ints[1]}, nil
	case "dminus", "dplus":
		family := FamilyGoalUnder
		if parts[0] == "dplus" {
			family = FamilyGoalOver
		}
		return parseDeviation(name, family, ints)
	default:
		return VarRef{}, fmt.Errorf("未知变量族: %s", name)
	}
}

func parseDeviation(name string, family Family, ints []int) (VarRef, error) {
	if len(ints) < 2 {
		return VarRef{}, fmt.Errorf("偏差变量名 %s 缺少索引", name)
	}
	goal := ints[0]
	if goal < 1 {
		return VarRef{}, fmt.Errorf("偏差变量名 %s 的目标编号无效: %d", name, goal)
	}
	rest := ints[1:]

	ref := VarRef{Family: family, Goal: goal}
	switch {
	case goal <= 2:
		if len(rest) != 2 {
			return VarRef{}, fmt.Errorf("目标%d的偏差变量名 %s 应有索引 (i,j)", goal, name)
		}
		ref.Person, ref.Day = rest[0], rest[1]
	case goal == 3:
		if len(rest) != 1 {
			return VarRef{}, fmt.Errorf("目标3的偏差变量名 %s 应有索引 (i)", name)
		}
		ref.Person = rest[0]
	default:
		if len(rest) != 2 {
			return VarRef{}, fmt.Errorf("目标%d的偏差变量名 %s 应有索引 (j,l)", goal, name)
		}
		ref.Day, ref.Shift = rest[0], rest[1]
	}
	return ref, nil
}
