package solver

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/milp"
)

// eps 判定活动值与界比较时的浮点容差
const eps = 1e-6

var errNodeBudget = errors.New("搜索节点预算耗尽")

// BranchBoundSolver 进程内分支定界求解器。
// 面向本系统装配的模型结构：0/1 决策列，目标等式中每行至多
// 一对系数为 ±1 的非负偏差列。0/1 列逐个定值深度优先搜索，
// 行的活动窗越界即回溯；叶子上按各目标行的缺口直接解出偏差值。
// 小规模实例可精确求解，适合测试与无外部求解器的环境。
type BranchBoundSolver struct {
	maxNodes int
}

// NewBranchBoundSolver 创建分支定界求解器
func NewBranchBoundSolver() *BranchBoundSolver {
	return &BranchBoundSolver{maxNodes: 4 << 20}
}

// SetMaxNodes 设置搜索节点上限
func (s *BranchBoundSolver) SetMaxNodes(n int) {
	if n > 0 {
		s.maxNodes = n
	}
}

// Name 返回求解器名称
func (s *BranchBoundSolver) Name() string { return "branch_bound" }

// Solve 穷尽搜索返回最优解；节点预算耗尽时返回当前最好的可行解。
func (s *BranchBoundSolver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := newBBProblem(m, s.maxNodes)
	if err != nil {
		return nil, apperrors.SolverFailed(s.Name(), err)
	}

	searchErr := p.dfs(ctx, 0)
	switch {
	case searchErr == nil:
		if !p.hasBest {
			return &milp.Solution{Status: milp.StatusInfeasible, Values: map[string]float64{}}, nil
		}
		return p.solution(milp.StatusOptimal), nil
	case errors.Is(searchErr, errNodeBudget):
		if p.hasBest {
			return p.solution(milp.StatusFeasible), nil
		}
		return nil, apperrors.SolverFailed(s.Name(), searchErr)
	default:
		return nil, searchErr
	}
}

// colRef 0/1 列在某行中的出现
type colRef struct {
	row  int32
	coef float64
}

// bbRow 行的搜索期状态。活动窗 [fixed+freeNeg, fixed+freePos]
// 是未定列取任意值时 0/1 部分可达的活动范围。
type bbRow struct {
	sense milp.Sense
	rhs   float64

	underCol, overCol   milp.ColID // 偏差列，-1 表示无
	underCost, overCost float64
	underMax, overMax   float64

	fixed   float64
	freePos float64
	freeNeg float64
}

// window 判定本行在当前活动窗下是否仍可满足，
// 并给出补齐缺口所需的最小偏差代价。
func (r *bbRow) window() (feasible bool, minCost float64) {
	wlo := r.fixed + r.freeNeg
	whi := r.fixed + r.freePos
	switch r.sense {
	case milp.LessEqual:
		return wlo <= r.rhs+eps, 0
	case milp.GreaterEqual:
		return whi >= r.rhs-eps, 0
	}
	if wlo > r.rhs+r.overMax+eps || whi < r.rhs-r.underMax-eps {
		return false, 0
	}
	if wlo > r.rhs+eps {
		return true, r.overCost * (wlo - r.rhs)
	}
	if whi < r.rhs-eps {
		return true, r.underCost * (r.rhs - whi)
	}
	return true, 0
}

func (r *bbRow) isGoal() bool { return r.underCol >= 0 || r.overCol >= 0 }

// bbProblem 一次求解的全部搜索状态
type bbProblem struct {
	m        *milp.Model
	maxNodes int
	nodes    int

	binCols []milp.ColID
	binObj  []float64
	refs    [][]colRef
	rows    []bbRow

	vals       []float64
	fixedObj   float64
	freeObjMin float64

	hasBest  bool
	bestObj  float64
	bestVals []float64
}

// newBBProblem 校验模型结构并装配搜索状态
func newBBProblem(m *milp.Model, maxNodes int) (*bbProblem, error) {
	p := &bbProblem{m: m, maxNodes: maxNodes}

	cols := m.Cols()
	contRow := make([]int, len(cols))
	for id := range cols {
		contRow[id] = -1
		col := &cols[id]
		switch col.Kind {
		case milp.Binary:
			p.binCols = append(p.binCols, milp.ColID(id))
		case milp.Continuous:
			if col.Lower != 0 {
				return nil, fmt.Errorf("连续列 %s 下界为 %v，仅支持非负偏差列", col.Name, col.Lower)
			}
			if col.Objective < 0 {
				return nil, fmt.Errorf("连续列 %s 目标系数为负，不受支持", col.Name)
			}
		}
	}

	rows := m.Rows()
	p.rows = make([]bbRow, len(rows))
	for ri := range rows {
		row := &rows[ri]
		br := &p.rows[ri]
		br.sense = row.Sense
		br.rhs = row.RHS
		br.underCol, br.overCol = -1, -1

		for _, t := range row.Terms {
			col := m.Col(t.Col)
			if col.Kind == milp.Binary {
				if t.Coef > 0 {
					br.freePos += t.Coef
				} else {
					br.freeNeg += t.Coef
				}
				continue
			}
			if row.Sense != milp.Equal {
				return nil, fmt.Errorf("约束 %s: 不等式中的连续列不受支持", row.Name)
			}
			if contRow[t.Col] >= 0 {
				return nil, fmt.Errorf("连续列 %s 出现在多行，不受支持", col.Name)
			}
			contRow[t.Col] = ri
			switch t.Coef {
			case 1:
				if br.underCol >= 0 {
					return nil, fmt.Errorf("约束 %s: 重复的欠达偏差列", row.Name)
				}
				br.underCol = t.Col
				br.underCost = col.Objective
				br.underMax = col.Upper
			case -1:
				if br.overCol >= 0 {
					return nil, fmt.Errorf("约束 %s: 重复的超达偏差列", row.Name)
				}
				br.overCol = t.Col
				br.overCost = col.Objective
				br.overMax = col.Upper
			default:
				return nil, fmt.Errorf("约束 %s: 连续列系数 %v 不受支持", row.Name, t.Coef)
			}
		}
	}

	p.refs = make([][]colRef, len(p.binCols))
	p.binObj = make([]float64, len(p.binCols))
	p.vals = make([]float64, len(p.binCols))
	p.bestVals = make([]float64, len(cols))

	pos := make(map[milp.ColID]int, len(p.binCols))
	for i, id := range p.binCols {
		pos[id] = i
		p.binObj[i] = m.Col(id).Objective
		if p.binObj[i] < 0 {
			p.freeObjMin += p.binObj[i]
		}
	}
	for ri := range rows {
		for _, t := range rows[ri].Terms {
			if i, ok := pos[t.Col]; ok {
				p.refs[i] = append(p.refs[i], colRef{row: int32(ri), coef: t.Coef})
			}
		}
	}
	return p, nil
}

func (p *bbProblem) assign(i int, v float64) {
	p.vals[i] = v
	for _, ref := range p.refs[i] {
		r := &p.rows[ref.row]
		r.fixed += ref.coef * v
		if ref.coef > 0 {
			r.freePos -= ref.coef
		} else {
			r.freeNeg -= ref.coef
		}
	}
	p.fixedObj += p.binObj[i] * v
	if p.binObj[i] < 0 {
		p.freeObjMin -= p.binObj[i]
	}
}

func (p *bbProblem) unassign(i int, v float64) {
	for _, ref := range p.refs[i] {
		r := &p.rows[ref.row]
		r.fixed -= ref.coef * v
		if ref.coef > 0 {
			r.freePos += ref.coef
		} else {
			r.freeNeg += ref.coef
		}
	}
	p.fixedObj -= p.binObj[i] * v
	if p.binObj[i] < 0 {
		p.freeObjMin += p.binObj[i]
	}
}

// dfs 深度优先定值搜索。返回错误仅用于中断（取消或预算耗尽），
// 分支不可行或无改进时静默回溯。
func (p *bbProblem) dfs(ctx context.Context, pos int) error {
	p.nodes++
	if p.nodes&1023 == 0 && ctx.Err() != nil {
		return ctx.Err()
	}
	if p.nodes > p.maxNodes {
		return errNodeBudget
	}

	bound := p.fixedObj + p.freeObjMin
	for i := range p.rows {
		ok, cost := p.rows[i].window()
		if !ok {
			return nil
		}
		bound += cost
	}
	if p.hasBest && bound >= p.bestObj-eps {
		return nil
	}

	if pos == len(p.binCols) {
		p.capture(bound)
		return nil
	}

	for _, v := range [2]float64{0, 1} {
		p.assign(pos, v)
		err := p.dfs(ctx, pos+1)
		p.unassign(pos, v)
		if err != nil {
			return err
		}
	}
	return nil
}

// capture 记录一个更优的完整解。所有 0/1 列已定值，
// 每个目标行的偏差值由缺口唯一确定。
func (p *bbProblem) capture(obj float64) {
	p.hasBest = true
	p.bestObj = obj

	for i := range p.bestVals {
		p.bestVals[i] = 0
	}
	for i, id := range p.binCols {
		p.bestVals[id] = p.vals[i]
	}
	for ri := range p.rows {
		r := &p.rows[ri]
		if !r.isGoal() {
			continue
		}
		gap := r.rhs - r.fixed
		var under, over float64
		if gap > eps {
			under = gap
		} else if gap < -eps {
			over = -gap
		}
		if r.underCol >= 0 {
			p.bestVals[r.underCol] = under
		}
		if r.overCol >= 0 {
			p.bestVals[r.overCol] = over
		}
	}
}

func (p *bbProblem) solution(status milp.Status) *milp.Solution {
	values := make(map[string]float64, p.m.NumCols())
	for id, col := range p.m.Cols() {
		values[col.Name] = p.bestVals[id]
	}
	return &milp.Solution{Status: status, Objective: p.bestObj, Values: values}
}
