package stats

import (
	"math"
	"sort"

	"github.com/lunban/lunban/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 执勤天数公平性
	DutyGini     float64 `json:"duty_gini"`      // 执勤天数基尼系数 (0=完全公平, 1=完全不公平)
	DutyVariance float64 `json:"duty_variance"`  // 执勤天数方差
	DutyStdDev   float64 `json:"duty_std_dev"`   // 执勤天数标准差
	AvgDutyDays  float64 `json:"avg_duty_days"`  // 人均执勤天数
	MaxDutyDays  int     `json:"max_duty_days"`  // 最大执勤天数
	MinDutyDays  int     `json:"min_duty_days"`  // 最小执勤天数
	DutyRange    int     `json:"duty_range"`     // 执勤天数极差

	// 班种与休假公平性
	NightShiftGini float64 `json:"night_shift_gini"` // 夜班分配基尼系数
	LeaveGini      float64 `json:"leave_gini"`       // 休假分配基尼系数

	// 人员级别统计
	PersonStats []PersonStat `json:"person_stats"`

	// 综合评分
	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合公平性评分 (0-100)
}

// PersonStat 单人统计
type PersonStat struct {
	Person      int     `json:"person"`
	DutyDays    int     `json:"duty_days"`
	LeaveDays   int     `json:"leave_days"`
	DayShifts   int     `json:"day_shifts"`
	NightShifts int     `json:"night_shifts"`
	Deviation   float64 `json:"deviation"` // 执勤天数与均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析花名册的负荷分配公平性
func (f *FairnessAnalyzer) Analyze(roster *model.Roster) *FairnessMetrics {
	if roster == nil || len(roster.Cells) == 0 {
		return &FairnessMetrics{OverallFairnessScore: 100}
	}

	summaries := roster.Summaries()
	stats := make([]PersonStat, len(summaries))
	duty := make([]float64, len(summaries))
	night := make([]float64, len(summaries))
	leave := make([]float64, len(summaries))
	for i, s := range summaries {
		stats[i] = PersonStat{
			Person:      s.Person,
			DutyDays:    s.DutyDays,
			LeaveDays:   s.LeaveDays,
			DayShifts:   s.DayShifts,
			NightShifts: s.NightShifts,
		}
		duty[i] = float64(s.DutyDays)
		night[i] = float64(s.NightShifts)
		leave[i] = float64(s.LeaveDays)
	}

	avgDuty := f.calculateMean(duty)
	variance := f.calculateVariance(duty, avgDuty)
	stdDev := math.Sqrt(variance)
	maxDuty, minDuty := f.calculateRange(duty)

	for i := range stats {
		if avgDuty > 0 {
			stats[i].Deviation = (float64(stats[i].DutyDays) - avgDuty) / avgDuty * 100
		}
	}

	// 按执勤天数降序，负荷最重的人排前面
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].DutyDays != stats[j].DutyDays {
			return stats[i].DutyDays > stats[j].DutyDays
		}
		return stats[i].Person < stats[j].Person
	})

	dutyGini := f.calculateGini(duty)
	nightGini := f.calculateGini(night)
	leaveGini := f.calculateGini(leave)

	return &FairnessMetrics{
		DutyGini:             dutyGini,
		DutyVariance:         variance,
		DutyStdDev:           stdDev,
		AvgDutyDays:          avgDuty,
		MaxDutyDays:          int(maxDuty),
		MinDutyDays:          int(minDuty),
		DutyRange:            int(maxDuty - minDuty),
		NightShiftGini:       nightGini,
		LeaveGini:            leaveGini,
		PersonStats:          stats,
		OverallFairnessScore: f.calculateOverallScore(dutyGini, nightGini, leaveGini, stdDev, avgDuty),
	}
}

// calculateMean 计算平均值
func (f *FairnessAnalyzer) calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateVariance 计算方差
func (f *FairnessAnalyzer) calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// calculateRange 计算极值
func (f *FairnessAnalyzer) calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini 计算基尼系数
func (f *FairnessAnalyzer) calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// calculateOverallScore 计算综合公平性评分
func (f *FairnessAnalyzer) calculateOverallScore(dutyGini, nightGini, leaveGini, stdDev, avgDuty float64) float64 {
	// 各项权重
	const (
		dutyWeight   = 0.4
		nightWeight  = 0.25
		leaveWeight  = 0.25
		stdDevWeight = 0.1
	)

	// 基尼系数转换为分数 (0=100分, 1=0分)
	dutyScore := (1 - dutyGini) * 100
	nightScore := (1 - nightGini) * 100
	leaveScore := (1 - leaveGini) * 100

	// 标准差评分，变异系数越低分数越高
	cvScore := 100.0
	if avgDuty > 0 {
		cv := stdDev / avgDuty
		cvScore = math.Max(0, 100-cv*200)
	}

	score := dutyWeight*dutyScore +
		nightWeight*nightScore +
		leaveWeight*leaveScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// CompareRosters 比较两个排班方案的公平性
func (f *FairnessAnalyzer) CompareRosters(a, b *model.Roster) map[string]float64 {
	ma := f.Analyze(a)
	mb := f.Analyze(b)

	return map[string]float64{
		"duty_gini_diff":       mb.DutyGini - ma.DutyGini,
		"night_gini_diff":      mb.NightShiftGini - ma.NightShiftGini,
		"leave_gini_diff":      mb.LeaveGini - ma.LeaveGini,
		"overall_score_diff":   mb.OverallFairnessScore - ma.OverallFairnessScore,
		"first_overall_score":  ma.OverallFairnessScore,
		"second_overall_score": mb.OverallFairnessScore,
	}
}
