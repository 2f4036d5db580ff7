// Package relief 提供顶班候选推荐引擎。
// 针对花名册中某个待补位的 (天, 科室, 班次)，按约束集合评估全员
// 并给出最佳人选与备选名单。
package relief

import (
	"sort"

	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

// Slot 待补位的 (天, 科室, 班次)
type Slot struct {
	Day     int `json:"day"`
	Section int `json:"section"`
	Shift   int `json:"shift"`
}

// Request 顶班评估请求
type Request struct {
	Roster     *model.Roster
	Competency *model.Competency
	Slot       Slot
	Candidates []int // 为空时评估全员
	MaxResults int
}

// CandidateScore 候选人评分（分数越低越好）
type CandidateScore struct {
	Person       int      `json:"person"`
	Score        float64  `json:"score"`
	Feasible     bool     `json:"feasible"`
	Violations   []string `json:"violations,omitempty"`
	MatchReasons []string `json:"match_reasons,omitempty"`
	Competency   float64  `json:"competency,omitempty"`
}

// Response 顶班评估响应
type Response struct {
	Slot         Slot             `json:"slot"`
	Success      bool             `json:"success"`
	BestMatch    *CandidateScore  `json:"best_match,omitempty"`
	Alternatives []CandidateScore `json:"alternatives,omitempty"`
	Reason       string           `json:"reason,omitempty"`
}

// Engine 顶班推荐引擎
type Engine struct {
	constraints []Constraint
}

// NewEngine 创建带默认约束集合的顶班引擎
func NewEngine() *Engine {
	return &Engine{
		constraints: DefaultConstraints(),
	}
}

// NewEngineWithConstraints 创建带自定义约束的顶班引擎
func NewEngineWithConstraints(constraints []Constraint) *Engine {
	return &Engine{
		constraints: constraints,
	}
}

// Dispatch 评估候选人并给出顶班推荐
func (e *Engine) Dispatch(req *Request) *Response {
	if req == nil || req.Roster == nil || req.Roster.Instance == nil {
		return &Response{
			Success: false,
			Reason:  "缺少花名册",
		}
	}

	ins := req.Roster.Instance
	slot := req.Slot
	if slot.Day < 1 || slot.Day > ins.Days ||
		slot.Section < 1 || slot.Section > ins.Sections ||
		slot.Shift < 1 || slot.Shift > ins.Shifts {
		return &Response{
			Slot:    slot,
			Success: false,
			Reason:  "补位坐标超出实例范围",
		}
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = make([]int, 0, ins.Personnel)
		for i := 1; i <= ins.Personnel; i++ {
			candidates = append(candidates, i)
		}
	}

	logger.Debug().
		Int("day", slot.Day).
		Int("section", slot.Section).
		Int("shift", slot.Shift).
		Int("candidates", len(candidates)).
		Msg("开始评估顶班候选")

	// 评估所有候选人
	scores := e.evaluateCandidates(candidates, req)

	// 按分数排序（分数越低越好），可行解优先
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Feasible != scores[j].Feasible {
			return scores[i].Feasible
		}
		return scores[i].Score < scores[j].Score
	})

	var feasibleScores []CandidateScore
	for _, s := range scores {
		if s.Feasible {
			feasibleScores = append(feasibleScores, s)
		}
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	if len(feasibleScores) == 0 {
		return &Response{
			Slot:         slot,
			Success:      false,
			Reason:       "没有可行的顶班人选",
			Alternatives: limitCandidates(scores, maxResults),
		}
	}

	response := &Response{
		Slot:      slot,
		Success:   true,
		BestMatch: &feasibleScores[0],
	}
	if len(feasibleScores) > 1 {
		response.Alternatives = limitCandidates(feasibleScores[1:], maxResults-1)
	}

	logger.Debug().
		Int("best", feasibleScores[0].Person).
		Float64("score", feasibleScores[0].Score).
		Int("alternatives", len(response.Alternatives)).
		Msg("顶班评估完成")

	return response
}

// evaluateCandidates 评估所有候选人
func (e *Engine) evaluateCandidates(candidates []int, req *Request) []CandidateScore {
	scores := make([]CandidateScore, 0, len(candidates))
	for _, person := range candidates {
		scores = append(scores, e.evaluateCandidate(person, req))
	}
	return scores
}

// evaluateCandidate 评估单个候选人
func (e *Engine) evaluateCandidate(person int, req *Request) CandidateScore {
	score := CandidateScore{
		Person:   person,
		Feasible: true,
	}
	if req.Competency != nil {
		if v, ok := req.Competency.Score(person, req.Slot.Section); ok {
			score.Competency = v
		}
	}

	for _, c := range e.constraints {
		valid, penalty, violation := c.Evaluate(person, req)

		if !valid {
			score.Feasible = false
			score.Violations = append(score.Violations, violation)
			score.Score += penalty
		} else if penalty != 0 {
			score.Score += penalty
			if penalty < 0 {
				// 奖励转为匹配原因
				score.MatchReasons = append(score.MatchReasons, c.Name()+": 匹配")
			}
		}
	}

	return score
}

// limitCandidates 限制候选人数量
func limitCandidates(scores []CandidateScore, max int) []CandidateScore {
	if max < 0 {
		max = 0
	}
	if len(scores) <= max {
		return scores
	}
	return scores[:max]
}
