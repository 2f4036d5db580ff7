package swap

import (
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// Recommender 调班推荐器
type Recommender struct {
	evaluator *Evaluator
}

// NewRecommender 创建调班推荐器
func NewRecommender() *Recommender {
	return &Recommender{
		evaluator: NewEvaluator(),
	}
}

// Recommendation 调班推荐
type Recommendation struct {
	Target      int     `json:"target"`
	ExchangeDay int     `json:"exchange_day,omitempty"`
	Score       float64 `json:"score"`
	SwapType    string  `json:"swap_type"` // take_over/exchange
	Reason      string  `json:"reason"`
	Rank        int     `json:"rank"`
}

// Options 推荐选项
type Options struct {
	MaxResults    int     // 最大推荐数量
	Preferred     []int   // 优先考虑的人员
	Excluded      []int   // 排除的人员
	AllowExchange bool    // 是否允许互换
	MinScore      float64 // 最低得分
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		MaxResults:    5,
		AllowExchange: true,
		MinScore:      60,
	}
}

// RecommendTargets 为某人某天的执勤推荐接替人选
func (r *Recommender) RecommendTargets(
	roster *model.Roster,
	comp *model.Competency,
	person, day int,
	options *Options,
) []Recommendation {
	if options == nil {
		options = DefaultOptions()
	}
	if roster == nil || roster.Instance == nil {
		return nil
	}

	// 排除源人员本人
	excludeSet := make(map[int]bool)
	excludeSet[person] = true
	for _, id := range options.Excluded {
		excludeSet[id] = true
	}

	preferredSet := make(map[int]bool)
	for _, id := range options.Preferred {
		preferredSet[id] = true
	}

	var candidates []Recommendation

	for target := 1; target <= roster.Instance.Personnel; target++ {
		if excludeSet[target] {
			continue
		}

		// 评估接替
		evaluation := r.evaluator.Evaluate(roster, comp, &Request{
			Person: person,
			Day:    day,
			Target: target,
		})

		if evaluation.Feasible && evaluation.Score >= options.MinScore {
			candidate := Recommendation{
				Target:   target,
				Score:    evaluation.Score,
				SwapType: "take_over",
				Reason:   generateReason(evaluation),
			}
			// 优先人员加分
			if preferredSet[target] {
				candidate.Score += 10
			}
			candidates = append(candidates, candidate)
		}

		// 允许互换时遍历该人员的其他执勤日
		if options.AllowExchange {
			candidates = append(candidates,
				r.findExchangeCandidates(roster, comp, person, day, target, options)...)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > options.MaxResults {
		candidates = candidates[:options.MaxResults]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}

	return candidates
}

// findExchangeCandidates 查找与某人员的互换方案
func (r *Recommender) findExchangeCandidates(
	roster *model.Roster,
	comp *model.Competency,
	person, day, target int,
	options *Options,
) []Recommendation {
	var candidates []Recommendation

	for exDay := 1; exDay <= roster.Instance.Days; exDay++ {
		if exDay == day {
			continue
		}
		cell := roster.Cell(target, exDay)
		if cell == nil || cell.Duty == nil {
			continue
		}

		evaluation := r.evaluator.Evaluate(roster, comp, &Request{
			Person:      person,
			Day:         day,
			Target:      target,
			ExchangeDay: exDay,
		})

		if !evaluation.Feasible || evaluation.Score < options.MinScore {
			continue
		}

		candidates = append(candidates, Recommendation{
			Target:      target,
			ExchangeDay: exDay,
			Score:       evaluation.Score,
			SwapType:    "exchange",
			Reason:      "互换执勤，双方班数保持均衡",
		})
	}

	return candidates
}

// generateReason 生成推荐原因
func generateReason(evaluation *Evaluation) string {
	if len(evaluation.Issues) == 0 {
		if evaluation.Impact != nil && evaluation.Impact.TargetCompetency >= 4 {
			return "无新增冲突，科室胜任力高"
		}
		return "无新增冲突"
	}

	warnings := 0
	for _, issue := range evaluation.Issues {
		if issue.Severity == "warning" {
			warnings++
		}
	}
	if warnings > 0 && warnings <= 2 {
		return "仅有少量软性提醒"
	}

	return "可以接替此执勤"
}

// FindBestReplacement 为某人某天的执勤找出最佳接替人选，无可行人选时返回 nil
func (r *Recommender) FindBestReplacement(
	roster *model.Roster,
	comp *model.Competency,
	person, day int,
) *Recommendation {
	if roster == nil {
		return nil
	}
	cell := roster.Cell(person, day)
	if cell == nil || cell.Duty == nil {
		return nil
	}

	recommendations := r.RecommendTargets(roster, comp, person, day, &Options{
		MaxResults: 1,
		MinScore:   50,
	})
	if len(recommendations) == 0 {
		return nil
	}
	return &recommendations[0]
}
