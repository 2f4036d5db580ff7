// Package swap 提供调班评估与推荐。
// 在已解码的花名册上模拟接替或互换执勤，复核硬性规则并给出影响分析，
// 不回写花名册本身。
package swap

import (
	"fmt"

	"github.com/lunban/lunban/pkg/model"
	rosterval "github.com/lunban/lunban/pkg/validator"
)

// Evaluator 调班评估器
type Evaluator struct {
	detector *rosterval.RosterValidator
}

// NewEvaluator 创建调班评估器
func NewEvaluator() *Evaluator {
	return &Evaluator{
		detector: rosterval.NewRosterValidator(nil),
	}
}

// Request 调班请求。ExchangeDay 为 0 时为接替：接替人员顶下源人员的执勤，
// 源人员当日按休假处理；大于 0 时为互换：源人员同时接手接替人员
// 第 ExchangeDay 天的执勤。
type Request struct {
	Person      int `json:"person"`
	Day         int `json:"day"`
	Target      int `json:"target"`
	ExchangeDay int `json:"exchange_day,omitempty"`
}

// Issue 调班问题
type Issue struct {
	Type     string `json:"type"`
	Severity string `json:"severity"` // error/warning
	Message  string `json:"message"`
}

// Impact 调班影响
type Impact struct {
	SourceDutyChange int     `json:"source_duty_change"`
	TargetDutyChange int     `json:"target_duty_change"`
	TargetCompetency float64 `json:"target_competency,omitempty"`
	NewConflicts     int     `json:"new_conflicts"`
}

// Evaluation 调班评估结果
type Evaluation struct {
	Feasible       bool    `json:"feasible"`
	Score          float64 `json:"score"` // 0-100
	Issues         []Issue `json:"issues"`
	Impact         *Impact `json:"impact"`
	Recommendation string  `json:"recommendation"`
}

// Evaluate 评估调班可行性
func (e *Evaluator) Evaluate(roster *model.Roster, comp *model.Competency, req *Request) *Evaluation {
	result := &Evaluation{
		Feasible: true,
		Score:    100,
		Issues:   make([]Issue, 0),
		Impact:   &Impact{},
	}

	// 1. 基础检查
	if roster == nil || roster.Instance == nil || req == nil {
		return infeasible(result, "invalid_request", "无效的调班请求")
	}
	source := roster.Cell(req.Person, req.Day)
	if source == nil {
		return infeasible(result, "invalid_request", "调班请求超出花名册范围")
	}
	if source.Duty == nil {
		return infeasible(result, "no_duty", fmt.Sprintf("人员 %d 第 %d 天没有执勤", req.Person, req.Day))
	}
	if req.Target == req.Person {
		return infeasible(result, "invalid_request", "接替人员不能是本人")
	}
	targetCell := roster.Cell(req.Target, req.Day)
	if targetCell == nil {
		return infeasible(result, "invalid_request", "接替人员编号超出范围")
	}

	// 2. 检查接替人员胜任力
	if comp != nil {
		score, ok := comp.Score(req.Target, source.Duty.Section)
		if !ok || score <= 0 {
			return infeasible(result, "competency",
				fmt.Sprintf("接替人员不具备科室 %d 的胜任力", source.Duty.Section))
		}
		result.Impact.TargetCompetency = score
	}

	// 3. 检查接替人员当日状态
	if targetCell.OnLeave {
		return infeasible(result, "target_on_leave", fmt.Sprintf("接替人员第 %d 天休假", req.Day))
	}
	if targetCell.Assigned() {
		return infeasible(result, "target_busy", fmt.Sprintf("接替人员第 %d 天已有执勤", req.Day))
	}

	// 4. 互换场景的额外检查
	var exchange *model.Cell
	if req.ExchangeDay > 0 {
		if req.ExchangeDay == req.Day {
			return infeasible(result, "invalid_request", "互换日不能与原执勤日相同")
		}
		exchange = roster.Cell(req.Target, req.ExchangeDay)
		if exchange == nil {
			return infeasible(result, "invalid_request", "互换日超出花名册范围")
		}
		if exchange.Duty == nil {
			return infeasible(result, "no_duty",
				fmt.Sprintf("接替人员第 %d 天没有可互换的执勤", req.ExchangeDay))
		}
		if comp != nil {
			score, ok := comp.Score(req.Person, exchange.Duty.Section)
			if !ok || score <= 0 {
				return infeasible(result, "competency",
					fmt.Sprintf("源人员不具备科室 %d 的胜任力", exchange.Duty.Section))
			}
		}
		sourceEx := roster.Cell(req.Person, req.ExchangeDay)
		if sourceEx.OnLeave {
			return infeasible(result, "source_on_leave", fmt.Sprintf("源人员第 %d 天休假", req.ExchangeDay))
		}
		if sourceEx.Assigned() {
			return infeasible(result, "source_busy", fmt.Sprintf("源人员第 %d 天已有执勤", req.ExchangeDay))
		}
	}

	// 5. 模拟调班后复核硬性规则，只统计新增冲突
	sim := e.simulate(roster, req)
	before := conflictSet(e.detector.Validate(roster))
	for _, c := range e.detector.Validate(sim) {
		if c.Person != 0 && c.Person != req.Person && c.Person != req.Target {
			continue
		}
		if before[conflictKey(c)] {
			continue
		}
		result.Issues = append(result.Issues, Issue{
			Type:     string(c.Type),
			Severity: c.Severity,
			Message:  c.Message,
		})
		result.Impact.NewConflicts++
		if c.Severity == rosterval.SeverityError {
			result.Feasible = false
		}
	}

	// 6. 计算影响与得分
	result.Impact.SourceDutyChange = sim.Summary(req.Person).DutyDays - roster.Summary(req.Person).DutyDays
	result.Impact.TargetDutyChange = sim.Summary(req.Target).DutyDays - roster.Summary(req.Target).DutyDays
	result.Score = e.score(sim, req, result)

	// 7. 生成建议
	result.Recommendation = recommendation(result)

	return result
}

// CanSwap 快速检查是否可调班
func (e *Evaluator) CanSwap(roster *model.Roster, comp *model.Competency, req *Request) (bool, string) {
	result := e.Evaluate(roster, comp, req)
	if !result.Feasible {
		if len(result.Issues) > 0 {
			return false, result.Issues[0].Message
		}
		return false, "无法进行调班"
	}
	return true, ""
}

// simulate 在花名册副本上应用调班
func (e *Evaluator) simulate(roster *model.Roster, req *Request) *model.Roster {
	sim := cloneRoster(roster)
	source := sim.Cell(req.Person, req.Day)
	target := sim.Cell(req.Target, req.Day)

	duty := *source.Duty
	target.Duty = &duty
	source.Duty = nil

	if req.ExchangeDay > 0 {
		exchange := sim.Cell(req.Target, req.ExchangeDay)
		sourceEx := sim.Cell(req.Person, req.ExchangeDay)
		exDuty := *exchange.Duty
		sourceEx.Duty = &exDuty
		exchange.Duty = nil
	} else {
		// 让出的执勤日按休假处理
		source.OnLeave = true
	}

	return sim
}

// score 计算调班得分。新增 error 扣 15 分、warning 扣 8 分，
// 再按胜任力与调班后班数均衡微调。
func (e *Evaluator) score(sim *model.Roster, req *Request, result *Evaluation) float64 {
	score := 100.0
	for _, issue := range result.Issues {
		switch issue.Severity {
		case rosterval.SeverityError:
			score -= 15
		case rosterval.SeverityWarning:
			score -= 8
		}
	}

	if result.Impact.TargetCompetency > 0 {
		score += (result.Impact.TargetCompetency - 3) * 2
	}

	ins := sim.Instance
	if ins.Personnel > 0 {
		total := 0
		for i := 1; i <= ins.Personnel; i++ {
			total += sim.Summary(i).DutyDays
		}
		avg := float64(total) / float64(ins.Personnel)
		score -= (float64(sim.Summary(req.Target).DutyDays) - avg) * 2
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// recommendation 生成调班建议
func recommendation(result *Evaluation) string {
	if !result.Feasible {
		return "不建议执行此调班，存在硬性冲突"
	}

	switch {
	case result.Score >= 90:
		return "强烈推荐，调班后整体影响很小"
	case result.Score >= 70:
		return "可以执行，存在少量软性提醒"
	case result.Score >= 50:
		return "谨慎执行，可能影响排班质量"
	default:
		return "不推荐，虽然可行但会明显降低排班质量"
	}
}

// infeasible 记录硬性问题并终止评估
func infeasible(result *Evaluation, issueType, message string) *Evaluation {
	result.Feasible = false
	result.Score = 0
	result.Issues = append(result.Issues, Issue{
		Type:     issueType,
		Severity: rosterval.SeverityError,
		Message:  message,
	})
	result.Recommendation = recommendation(result)
	return result
}

// cloneRoster 深拷贝花名册的休假与执勤标记
func cloneRoster(r *model.Roster) *model.Roster {
	sim := model.NewRoster(r.Instance)
	for i := range r.Cells {
		for j := range r.Cells[i] {
			src := &r.Cells[i][j]
			dst := &sim.Cells[i][j]
			dst.OnLeave = src.OnLeave
			if src.Duty != nil {
				duty := *src.Duty
				dst.Duty = &duty
			}
		}
	}
	return sim
}

// conflictSet 以键集合表示冲突列表
func conflictSet(conflicts []rosterval.Conflict) map[string]bool {
	set := make(map[string]bool, len(conflicts))
	for _, c := range conflicts {
		set[conflictKey(c)] = true
	}
	return set
}

func conflictKey(c rosterval.Conflict) string {
	return fmt.Sprintf("%s|%d|%d|%s", c.Type, c.Person, c.Day, c.Message)
}
