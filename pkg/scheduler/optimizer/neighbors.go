package optimizer

import (
	"math/rand"

	"github.com/lunban/lunban/pkg/milp"
)

// moveKind 邻域移动类型
type moveKind uint8

const (
	moveFlip   moveKind = iota // 翻转单个 0/1 列
	moveSwap                   // 行内交换一对取值相异的 0/1 列
	moveDouble                 // 翻转两个 0/1 列
)

// weightedMove 按权重参与选取的移动类型
type weightedMove struct {
	kind   moveKind
	weight float64
}

// neighborhood 邻域生成器。移动类型按固定顺序的权重表选取，
// 同一种子下生成序列可复现。
type neighborhood struct {
	ev       *evaluator
	rng      *rand.Rand
	moves    []weightedMove
	total    float64
	swapRows [][]milp.Term
}

func newNeighborhood(ev *evaluator, rng *rand.Rand) *neighborhood {
	nb := &neighborhood{
		ev:  ev,
		rng: rng,
		moves: []weightedMove{
			{kind: moveFlip, weight: 0.50},
			{kind: moveSwap, weight: 0.35},
			{kind: moveDouble, weight: 0.15},
		},
	}
	for _, w := range nb.moves {
		nb.total += w.weight
	}

	// 硬约束行只含 0/1 列，行内交换保持该行活动值不变
	rows := nb.ev.m.Rows()
	for _, ri := range nb.ev.hards {
		if terms := rows[ri].Terms; len(terms) >= 2 {
			nb.swapRows = append(nb.swapRows, terms)
		}
	}
	return nb
}

// batch 基于当前点生成一批邻域解
func (nb *neighborhood) batch(current point, count int) []point {
	if count <= 0 {
		count = 1
	}
	out := make([]point, count)
	for i := range out {
		p := current.clone()
		nb.apply(p, nb.pick())
		out[i] = p
	}
	return out
}

// pick 按权重选取移动类型
func (nb *neighborhood) pick() moveKind {
	r := nb.rng.Float64() * nb.total
	for _, w := range nb.moves {
		if r < w.weight {
			return w.kind
		}
		r -= w.weight
	}
	return nb.moves[len(nb.moves)-1].kind
}

func (nb *neighborhood) apply(p point, kind moveKind) {
	switch kind {
	case moveSwap:
		if nb.trySwap(p) {
			return
		}
		nb.flip(p)
	case moveDouble:
		nb.flip(p)
		nb.flip(p)
	default:
		nb.flip(p)
	}
}

// flip 随机翻转一个 0/1 列
func (nb *neighborhood) flip(p point) {
	if len(nb.ev.binaries) == 0 {
		return
	}
	id := nb.ev.binaries[nb.rng.Intn(len(nb.ev.binaries))]
	if p[id] >= 0.5 {
		p[id] = 0
	} else {
		p[id] = 1
	}
}

// trySwap 在随机挑选的行内互换一个 1 值列与一个 0 值列。
// 行内取值全同时放弃，由调用方退化为翻转。
func (nb *neighborhood) trySwap(p point) bool {
	if len(nb.swapRows) == 0 {
		return false
	}
	terms := nb.swapRows[nb.rng.Intn(len(nb.swapRows))]

	var ones, zeros []milp.ColID
	for _, t := range terms {
		if p[t.Col] >= 0.5 {
			ones = append(ones, t.Col)
		} else {
			zeros = append(zeros, t.Col)
		}
	}
	if len(ones) == 0 || len(zeros) == 0 {
		return false
	}
	p[ones[nb.rng.Intn(len(ones))]] = 0
	p[zeros[nb.rng.Intn(len(zeros))]] = 1
	return true
}
