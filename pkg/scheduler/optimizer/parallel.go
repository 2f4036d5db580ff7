package optimizer

import (
	"context"
	"sync"
	"time"

	"github.com/lunban/lunban/pkg/logger"
)

// batchResult 单个邻域解的评估结果。point 为空表示该槽位
// 因取消未被评估。
type batchResult struct {
	index     int
	point     point
	objective float64
	violation float64
	score     float64
}

// parallelEvaluator 工作池并行评估一批取值点
type parallelEvaluator struct {
	ev      *evaluator
	workers int
}

func newParallelEvaluator(ev *evaluator, workers int) *parallelEvaluator {
	if workers <= 0 {
		workers = 4
	}
	return &parallelEvaluator{ev: ev, workers: workers}
}

// evaluateBatch 并行回填偏差并评估。结果按输入顺序排列。
func (pe *parallelEvaluator) evaluateBatch(ctx context.Context, points []point) []batchResult {
	if len(points) == 0 {
		return nil
	}

	jobChan := make(chan int, len(points))
	resultChan := make(chan batchResult, len(points))

	var wg sync.WaitGroup
	for w := 0; w < pe.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					p := points[i]
					obj, viol, score := pe.ev.assess(p)
					resultChan <- batchResult{
						index:     i,
						point:     p,
						objective: obj,
						violation: viol,
						score:     score,
					}
				}
			}
		}()
	}

	for i := range points {
		jobChan <- i
	}
	close(jobChan)
	wg.Wait()
	close(resultChan)

	results := make([]batchResult, len(points))
	for r := range resultChan {
		results[r.index] = r
	}
	return results
}

// findBest 返回罚分最低的评估结果，跳过取消后未评估的空槽
func findBest(results []batchResult) *batchResult {
	var best *batchResult
	for i := range results {
		r := &results[i]
		if r.point == nil {
			continue
		}
		if best == nil || r.score < best.score {
			best = r
		}
	}
	return best
}

// runIslands 并行运行多个独立退火岛，各岛种子错开，
// 汇取罚分最低的结果。
func runIslands(ctx context.Context, ev *evaluator, cfg Config) islandResult {
	islands := cfg.Islands
	if islands < 1 {
		islands = 1
	}
	seedBase := cfg.Seed
	if seedBase == 0 {
		seedBase = time.Now().UnixNano()
	}

	var (
		mu   sync.Mutex
		best islandResult
		wg   sync.WaitGroup
	)
	for i := 0; i < islands; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := localSearch(ctx, ev, cfg, seed)
			mu.Lock()
			if best.point == nil || r.score < best.score {
				best = r
			}
			mu.Unlock()
		}(seedBase + int64(i)*7919)
	}
	wg.Wait()

	logger.Debug().
		Int("islands", islands).
		Float64("objective", best.objective).
		Float64("violation", best.violation).
		Msg("退火搜索完成")
	return best
}
