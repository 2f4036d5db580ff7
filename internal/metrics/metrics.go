// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 应用专用的指标注册表，避免默认注册表的全局污染
var Registry = prometheus.NewRegistry()

// factory 直接向 Registry 注册指标
var factory = promauto.With(Registry)

// =====================================================
// HTTP 指标
// =====================================================

// HTTPRequestsTotal HTTP请求总数
var HTTPRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lunban",
	Name:      "http_requests_total",
	Help:      "HTTP请求总数",
}, []string{"method", "path", "status"})

// HTTPRequestDuration HTTP请求延迟
var HTTPRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lunban",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP请求延迟",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
}, []string{"method", "path"})

// =====================================================
// 求解流水线指标
// =====================================================

// RosterBuildsTotal 模型构建次数
var RosterBuildsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lunban",
	Name:      "roster_builds_total",
	Help:      "排班模型构建次数",
}, []string{"department", "status"})

// RosterSolvesTotal 求解次数，按求解器和结果状态区分
var RosterSolvesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "lunban",
	Name:      "roster_solves_total",
	Help:      "排班求解次数",
}, []string{"department", "solver", "status"})

// BuildDuration 模型构建耗时
var BuildDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lunban",
	Name:      "build_duration_seconds",
	Help:      "排班模型构建耗时",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
}, []string{"department"})

// SolveDuration 求解耗时
var SolveDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lunban",
	Name:      "solve_duration_seconds",
	Help:      "排班求解耗时",
	Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 15.0, 60.0, 180.0, 600.0},
}, []string{"department", "solver"})

// DecodeDuration 解码耗时
var DecodeDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lunban",
	Name:      "decode_duration_seconds",
	Help:      "排班结果解码耗时",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
}, []string{"department"})

// ModelColumns 模型变量规模
var ModelColumns = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lunban",
	Name:      "model_columns",
	Help:      "排班模型变量数",
	Buckets:   []float64{1000, 5000, 10000, 50000, 100000, 500000},
}, []string{"department"})

// ModelRows 模型约束规模
var ModelRows = factory.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "lunban",
	Name:      "model_rows",
	Help:      "排班模型约束行数",
	Buckets:   []float64{1000, 5000, 10000, 50000, 100000, 500000},
}, []string{"department"})

// ActiveSolves 当前正在求解的任务数
var ActiveSolves = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "lunban",
	Name:      "active_solves",
	Help:      "当前正在求解的任务数",
})

// DBConnections 数据库连接数
var DBConnections = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lunban",
	Name:      "db_connections",
	Help:      "数据库连接数",
}, []string{"state"})

// =====================================================
// 方案质量指标
// =====================================================

// SolutionObjective 最近一次求解的目标函数值
var SolutionObjective = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lunban",
	Name:      "solution_objective",
	Help:      "最近一次求解的目标函数值",
}, []string{"department"})

// FairnessGini 公平性基尼系数
var FairnessGini = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lunban",
	Name:      "fairness_gini",
	Help:      "公平性基尼系数",
}, []string{"department", "metric_type"})

// CoverageRate 班次覆盖率
var CoverageRate = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lunban",
	Name:      "coverage_rate",
	Help:      "班次覆盖率",
}, []string{"department"})

// =====================================================
// 辅助函数
// =====================================================

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRequest 记录请求指标
func RecordRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordBuild 记录模型构建指标
func RecordBuild(department string, success bool, duration time.Duration, columns, rows int) {
	status := "built"
	if !success {
		status = "failed"
	}
	RosterBuildsTotal.WithLabelValues(department, status).Inc()
	BuildDuration.WithLabelValues(department).Observe(duration.Seconds())
	if success {
		ModelColumns.WithLabelValues(department).Observe(float64(columns))
		ModelRows.WithLabelValues(department).Observe(float64(rows))
	}
}

// RecordSolve 记录求解指标
func RecordSolve(department, solver, status string, duration time.Duration) {
	RosterSolvesTotal.WithLabelValues(department, solver, status).Inc()
	SolveDuration.WithLabelValues(department, solver).Observe(duration.Seconds())
}

// RecordDecode 记录解码指标
func RecordDecode(department string, duration time.Duration) {
	DecodeDuration.WithLabelValues(department).Observe(duration.Seconds())
}

// SetSolutionObjective 设置目标函数值
func SetSolutionObjective(department string, objective float64) {
	SolutionObjective.WithLabelValues(department).Set(objective)
}

// SetFairnessGini 设置公平性基尼系数
func SetFairnessGini(department, metricType string, gini float64) {
	FairnessGini.WithLabelValues(department, metricType).Set(gini)
}

// SetCoverageRate 设置覆盖率
func SetCoverageRate(department string, rate float64) {
	CoverageRate.WithLabelValues(department).Set(rate)
}

// SetDBConnections 设置数据库连接数
func SetDBConnections(inUse, idle int) {
	DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	DBConnections.WithLabelValues("idle").Set(float64(idle))
}
