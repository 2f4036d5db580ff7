package optimizer

import (
	"fmt"
	"math"

	"github.com/lunban/lunban/pkg/milp"
)

// violTol 判定违反量为零的浮点容差
const violTol = 1e-6

// point 一组完整的列取值，按列编号索引
type point []float64

func (p point) clone() point {
	q := make(point, len(p))
	copy(q, p)
	return q
}

// goalRow 目标等式行：二值部分 + 欠达偏差 − 超达偏差 = 右端。
// 偏差列不参与搜索，由二值部分的缺口唯一回填。
type goalRow struct {
	row   int
	under milp.ColID
	over  milp.ColID
	terms []milp.Term
}

// objTerm 目标函数中的一项
type objTerm struct {
	col  milp.ColID
	coef float64
}

// rowRef 列在硬约束行中的出现
type rowRef struct {
	row  int
	coef float64
}

// evaluator 在完整取值点上计算目标值与硬约束违反量。
// 面向本系统装配的模型结构：0/1 决策列，目标等式中每行恰好
// 一对系数为 ±1 的非负偏差列，其余行只含 0/1 列。
type evaluator struct {
	m        *milp.Model
	binaries []milp.ColID
	goals    []goalRow
	hards    []int
	objCols  []objTerm
	colRows  map[milp.ColID][]rowRef
	penalty  float64
}

// newEvaluator 校验模型结构并装配评估状态
func newEvaluator(m *milp.Model, penalty float64) (*evaluator, error) {
	ev := &evaluator{
		m:       m,
		colRows: make(map[milp.ColID][]rowRef),
		penalty: penalty,
	}

	cols := m.Cols()
	for id := range cols {
		col := &cols[id]
		switch col.Kind {
		case milp.Binary:
			ev.binaries = append(ev.binaries, milp.ColID(id))
		case milp.Continuous:
			if col.Lower != 0 {
				return nil, fmt.Errorf("连续列 %s 下界为 %v，仅支持非负偏差列", col.Name, col.Lower)
			}
			if col.Objective < 0 {
				return nil, fmt.Errorf("连续列 %s 目标系数为负，不受支持", col.Name)
			}
		}
		if col.Objective != 0 {
			ev.objCols = append(ev.objCols, objTerm{col: milp.ColID(id), coef: col.Objective})
		}
	}

	claimed := make(map[milp.ColID]bool)
	rows := m.Rows()
	for ri := range rows {
		if g, ok := classifyGoalRow(m, &rows[ri], claimed); ok {
			g.row = ri
			claimed[g.under] = true
			claimed[g.over] = true
			ev.goals = append(ev.goals, g)
			continue
		}
		for _, t := range rows[ri].Terms {
			if m.Col(t.Col).Kind == milp.Continuous {
				return nil, fmt.Errorf("约束 %s: 连续列 %s 不构成偏差对，不受支持",
					rows[ri].Name, m.Col(t.Col).Name)
			}
			ev.colRows[t.Col] = append(ev.colRows[t.Col], rowRef{row: ri, coef: t.Coef})
		}
		ev.hards = append(ev.hards, ri)
	}

	return ev, nil
}

// classifyGoalRow 识别"二值项 + 欠达 − 超达 = 右端"形状的行。
// 偏差列已被其他行占用时不再识别，该行按硬约束处理。
func classifyGoalRow(m *milp.Model, row *milp.Row, claimed map[milp.ColID]bool) (goalRow, bool) {
	g := goalRow{under: -1, over: -1}
	if row.Sense != milp.Equal {
		return g, false
	}
	for _, t := range row.Terms {
		col := m.Col(t.Col)
		if col == nil {
			return g, false
		}
		if col.Kind == milp.Binary {
			g.terms = append(g.terms, t)
			continue
		}
		if claimed[t.Col] {
			return g, false
		}
		switch t.Coef {
		case 1:
			if g.under >= 0 {
				return g, false
			}
			g.under = t.Col
		case -1:
			if g.over >= 0 {
				return g, false
			}
			g.over = t.Col
		default:
			return g, false
		}
	}
	if g.under < 0 || g.over < 0 {
		return g, false
	}
	return g, true
}

// newPoint 分配全零取值点
func (ev *evaluator) newPoint() point {
	return make(point, ev.m.NumCols())
}

// complete 按二值部分的缺口回填全部目标行的偏差列
func (ev *evaluator) complete(p point) {
	rows := ev.m.Rows()
	for _, g := range ev.goals {
		sum := 0.0
		for _, t := range g.terms {
			sum += p[t.Col] * t.Coef
		}
		gap := rows[g.row].RHS - sum
		var under, over float64
		if gap > 0 {
			under = gap
		} else if gap < 0 {
			over = -gap
		}
		p[g.under] = under
		p[g.over] = over
	}
}

// violation 硬约束违反量之和
func (ev *evaluator) violation(p point) float64 {
	rows := ev.m.Rows()
	total := 0.0
	for _, ri := range ev.hards {
		row := &rows[ri]
		lhs := 0.0
		for _, t := range row.Terms {
			lhs += p[t.Col] * t.Coef
		}
		switch row.Sense {
		case milp.Equal:
			total += math.Abs(lhs - row.RHS)
		case milp.LessEqual:
			if lhs > row.RHS {
				total += lhs - row.RHS
			}
		case milp.GreaterEqual:
			if lhs < row.RHS {
				total += row.RHS - lhs
			}
		}
	}
	return total
}

// objective 目标函数取值
func (ev *evaluator) objective(p point) float64 {
	obj := 0.0
	for _, t := range ev.objCols {
		obj += p[t.col] * t.coef
	}
	return obj
}

// assess 回填偏差后给出 (目标值, 违反量, 罚分)
func (ev *evaluator) assess(p point) (obj, viol, score float64) {
	ev.complete(p)
	obj = ev.objective(p)
	viol = ev.violation(p)
	return obj, viol, obj + ev.penalty*viol
}

// initialPoint 从全零出发做一轮贪心修复：对欠达的 ≥/= 行
// 依序翻入正系数列，翻入以不越破其他 ≤/= 行为前提。
func (ev *evaluator) initialPoint() point {
	p := ev.newPoint()
	rows := ev.m.Rows()

	lhs := make([]float64, len(rows))
	for _, ri := range ev.hards {
		row := &rows[ri]
		if row.Sense == milp.LessEqual {
			continue
		}
		for _, t := range row.Terms {
			if lhs[ri] >= row.RHS-violTol {
				break
			}
			if t.Coef <= 0 || p[t.Col] != 0 {
				continue
			}
			if !ev.canRaise(t.Col, lhs) {
				continue
			}
			p[t.Col] = 1
			for _, ref := range ev.colRows[t.Col] {
				lhs[ref.row] += ref.coef
			}
		}
	}

	ev.complete(p)
	return p
}

// canRaise 将某列从0翻到1是否会越破任何 ≤/= 行的右端
func (ev *evaluator) canRaise(col milp.ColID, lhs []float64) bool {
	rows := ev.m.Rows()
	for _, ref := range ev.colRows[col] {
		if ref.coef <= 0 {
			continue
		}
		row := &rows[ref.row]
		if row.Sense == milp.GreaterEqual {
			continue
		}
		if lhs[ref.row]+ref.coef > row.RHS+violTol {
			return false
		}
	}
	return true
}

// solution 将取值点导出为求解结果
func (ev *evaluator) solution(p point, obj float64, status milp.Status) *milp.Solution {
	values := make(map[string]float64, ev.m.NumCols())
	for id, col := range ev.m.Cols() {
		values[col.Name] = p[id]
	}
	return &milp.Solution{Status: status, Objective: obj, Values: values}
}
