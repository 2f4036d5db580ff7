// Package optimizer 提供基于模拟退火的启发式求解器。
// 不保证最优，适合规模超出分支定界承受范围、又不便部署外部
// 求解器的场合。搜索只在 0/1 列上进行，目标行的偏差列由缺口
// 回填，找到的可行解以 StatusFeasible 返回。
package optimizer

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/milp"
)

// Config 退火搜索参数
type Config struct {
	MaxIterations    int           // 单岛最大迭代次数
	MaxTime          time.Duration // 搜索时长上限，零值不限制
	InitialTemp      float64       // 初始温度
	CoolingRate      float64       // 降温系数，每轮温度乘以该值
	TabuSize         int           // 禁忌表容量
	NeighborhoodSize int           // 每轮生成的邻域解数量
	Workers          int           // 邻域评估并发数
	Islands          int           // 并行岛数量，各岛独立退火取全局最优
	StopOnPlateau    bool          // 连续无改进时提前停止
	PlateauThreshold int           // 触发平台停止的无改进轮数
	PenaltyWeight    float64       // 硬约束违反量的罚权
	Seed             int64         // 随机种子，零值取当前时间
}

// DefaultConfig 返回默认搜索参数
func DefaultConfig() Config {
	return Config{
		MaxIterations:    2000,
		MaxTime:          30 * time.Second,
		InitialTemp:      100,
		CoolingRate:      0.995,
		TabuSize:         64,
		NeighborhoodSize: 24,
		Workers:          4,
		Islands:          2,
		StopOnPlateau:    true,
		PlateauThreshold: 300,
		PenaltyWeight:    1e6,
		Seed:             0,
	}
}

// normalized 以默认值补齐零值字段，保证搜索参数可用
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = def.MaxIterations
	}
	if c.InitialTemp <= 0 {
		c.InitialTemp = def.InitialTemp
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		c.CoolingRate = def.CoolingRate
	}
	if c.TabuSize <= 0 {
		c.TabuSize = def.TabuSize
	}
	if c.NeighborhoodSize <= 0 {
		c.NeighborhoodSize = def.NeighborhoodSize
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Islands <= 0 {
		c.Islands = 1
	}
	if c.PlateauThreshold <= 0 {
		c.PlateauThreshold = def.PlateauThreshold
	}
	if c.PenaltyWeight <= 0 {
		c.PenaltyWeight = def.PenaltyWeight
	}
	return c
}

// AnnealSolver 进程内模拟退火求解器
type AnnealSolver struct {
	cfg Config
}

// NewAnnealSolver 创建默认参数的退火求解器
func NewAnnealSolver() *AnnealSolver {
	return &AnnealSolver{cfg: DefaultConfig()}
}

// SetConfig 替换搜索参数
func (s *AnnealSolver) SetConfig(cfg Config) {
	s.cfg = cfg
}

// SetMaxTime 设置搜索时长上限
func (s *AnnealSolver) SetMaxTime(d time.Duration) {
	if d > 0 {
		s.cfg.MaxTime = d
	}
}

// Name 返回求解器名称
func (s *AnnealSolver) Name() string { return "anneal" }

// Solve 多岛退火搜索。返回各岛中罚分最低的可行解；
// 全程未触及可行域时状态为 Unknown，由调用方按无可行解处理。
func (s *AnnealSolver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := s.cfg.normalized()

	ev, err := newEvaluator(m, cfg.PenaltyWeight)
	if err != nil {
		return nil, apperrors.SolverFailed(s.Name(), err)
	}

	logger.Debug().
		Str("solver", s.Name()).
		Int("columns", m.NumCols()).
		Int("rows", m.NumRows()).
		Int("islands", cfg.Islands).
		Msg("启动退火搜索")

	best := runIslands(ctx, ev, cfg)
	if best.feasible() {
		return ev.solution(best.point, best.objective, milp.StatusFeasible), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &milp.Solution{Status: milp.StatusUnknown, Values: map[string]float64{}}, nil
}

// islandResult 单岛搜索的最好结果
type islandResult struct {
	point     point
	objective float64
	violation float64
	score     float64
}

func (r islandResult) feasible() bool {
	return r.point != nil && r.violation < violTol
}

// localSearch 单岛退火主循环：批量生成邻域并行评估，
// 更优则接受，变差按玻尔兹曼概率接受且受禁忌表约束。
func localSearch(ctx context.Context, ev *evaluator, cfg Config, seed int64) islandResult {
	rng := rand.New(rand.NewSource(seed))
	nb := newNeighborhood(ev, rng)
	pe := newParallelEvaluator(ev, cfg.Workers)
	tabu := newTabuList(cfg.TabuSize)

	current := ev.initialPoint()
	curObj, curViol, curScore := ev.assess(current)
	best := islandResult{point: current.clone(), objective: curObj, violation: curViol, score: curScore}

	var deadline time.Time
	if cfg.MaxTime > 0 {
		deadline = time.Now().Add(cfg.MaxTime)
	}

	temp := cfg.InitialTemp
	plateau := 0
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		batch := nb.batch(current, cfg.NeighborhoodSize)
		cand := findBest(pe.evaluateBatch(ctx, batch))
		if cand == nil {
			break
		}

		key := hashPoint(ev.binaries, cand.point)
		delta := cand.score - curScore
		accept := delta < 0
		if !accept && !tabu.Contains(key) {
			accept = rng.Float64() < boltzmannProbability(delta, temp)
		}

		improved := false
		if accept {
			current = cand.point
			curScore = cand.score
			tabu.Add(key)
			if cand.score < best.score-violTol {
				best = islandResult{
					point:     cand.point.clone(),
					objective: cand.objective,
					violation: cand.violation,
					score:     cand.score,
				}
				improved = true
				logger.Debug().
					Int("iteration", iter).
					Float64("objective", cand.objective).
					Float64("violation", cand.violation).
					Msg("退火搜索发现更优解")
			}
		}
		if improved {
			plateau = 0
		} else {
			plateau++
		}
		if cfg.StopOnPlateau && plateau >= cfg.PlateauThreshold {
			break
		}
		temp *= cfg.CoolingRate
	}
	return best
}

// boltzmannProbability 接受变差解的概率 exp(-Δ/T)
func boltzmannProbability(delta, temp float64) float64 {
	if delta <= 0 {
		return 1
	}
	if temp <= 0 {
		return 0
	}
	return math.Exp(-delta / temp)
}

// hashPoint 对 0/1 列的取整取值做 FNV-1a 哈希，作禁忌表键
func hashPoint(binaries []milp.ColID, p point) uint64 {
	h := fnv.New64a()
	buf := make([]byte, len(binaries))
	for i, id := range binaries {
		if p[id] >= 0.5 {
			buf[i] = 1
		}
	}
	h.Write(buf)
	return h.Sum64()
}

// TabuList 定长禁忌表，容量满后先进先出淘汰
type TabuList struct {
	mu   sync.RWMutex
	keys []uint64
	set  map[uint64]struct{}
	size int
}

func newTabuList(size int) *TabuList {
	if size <= 0 {
		size = 1
	}
	return &TabuList{
		keys: make([]uint64, 0, size),
		set:  make(map[uint64]struct{}, size),
		size: size,
	}
}

// Add 记录一个键，容量满时淘汰最早的键
func (t *TabuList) Add(key uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.set[key]; ok {
		return
	}
	if len(t.keys) >= t.size {
		oldest := t.keys[0]
		t.keys = t.keys[1:]
		delete(t.set, oldest)
	}
	t.keys = append(t.keys, key)
	t.set[key] = struct{}{}
}

// Contains 判断键是否在禁忌表中
func (t *TabuList) Contains(key uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.set[key]
	return ok
}

// Clear 清空禁忌表
func (t *TabuList) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys = t.keys[:0]
	t.set = make(map[uint64]struct{}, t.size)
}
