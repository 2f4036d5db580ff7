package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lunban/lunban/internal/department"
	"github.com/lunban/lunban/internal/repository"
	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/stats"
	"github.com/lunban/lunban/pkg/writer"
)

// ListRunsResponse 运行列表响应
type ListRunsResponse struct {
	Runs   []*model.RosterRun `json:"runs"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// ListRuns 按过滤条件列出排班运行
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.DefaultListFilter()
	filter.Department = q.Get("department")
	// 已认证请求只能看本科室的运行
	if dept, ok := department.FromContext(r.Context()); ok {
		filter.Department = dept.Code
	}
	filter.Status = q.Get("status")
	filter.StartDate = q.Get("start_date")
	filter.EndDate = q.Get("end_date")
	filter.OrderBy = q.Get("order_by")
	filter.OrderDir = q.Get("order_dir")
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter = filter.WithLimit(limit)
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		filter = filter.WithOffset(offset)
	}

	runs, total, err := h.runs.List(r.Context(), filter)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if runs == nil {
		runs = []*model.RosterRun{}
	}

	respondJSON(w, http.StatusOK, ListRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// RunDetailResponse 单次运行详情
type RunDetailResponse struct {
	Run       *model.RosterRun      `json:"run"`
	Summaries []model.PersonSummary `json:"summaries,omitempty"`
	Anomalies []model.Anomaly       `json:"anomalies,omitempty"`
}

// GetRun 查询单次运行，成功求解的运行附带个人汇总与解码异常
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if run == nil {
		respondError(w, apperrors.NotFound("排班运行", id.String()))
		return
	}

	resp := RunDetailResponse{Run: run}
	if run.Status == model.RunStatusSolved {
		roster, err := h.runs.GetRoster(r.Context(), id)
		if err != nil {
			respondAppError(w, err)
			return
		}
		if roster != nil {
			resp.Summaries = roster.Summaries()
			resp.Anomalies = roster.Anomalies
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// DeleteRun 删除运行记录及其花名册数据
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if run == nil {
		respondError(w, apperrors.NotFound("排班运行", id.String()))
		return
	}

	if err := h.runs.Delete(r.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
		"id":      id.String(),
	})
}

// GetRunTable 输出日历排班表，format 取 text、csv 或 json
func (h *Handler) GetRunTable(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	roster, err := h.runs.GetRoster(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if roster == nil {
		respondError(w, apperrors.NotFound("排班运行", id.String()))
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename=roster_"+id.String()+".csv")
		w.Write([]byte(writer.FormatCSV(roster)))
	case "json":
		respondJSON(w, http.StatusOK, writer.BuildTable(roster))
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(writer.FormatText(roster)))
	}
}

// GetRunAudit 输出求解结果的原始变量审计表
func (h *Handler) GetRunAudit(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if run == nil {
		respondError(w, apperrors.NotFound("排班运行", id.String()))
		return
	}

	audit, err := h.runs.GetAudit(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if audit == "" {
		respondError(w, apperrors.New(apperrors.CodeNotFound, "该运行没有审计数据").
			WithDetails("仅成功求解的运行保留变量审计表"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=audit_"+id.String()+".csv")
	w.Write([]byte(audit))
}

// RunStatsResponse 运行统计响应
type RunStatsResponse struct {
	Coverage *stats.CoverageMetrics `json:"coverage"`
	Fairness *stats.FairnessMetrics `json:"fairness"`
}

// GetRunStats 输出覆盖率与公平性统计，format=text 输出文本报告
func (h *Handler) GetRunStats(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	roster, err := h.runs.GetRoster(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if roster == nil {
		respondError(w, apperrors.NotFound("排班运行", id.String()))
		return
	}

	analyzer := stats.NewCoverageAnalyzer()
	coverage := analyzer.Analyze(roster)

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(analyzer.GenerateCoverageReport(coverage)))
		return
	}

	respondJSON(w, http.StatusOK, RunStatsResponse{
		Coverage: coverage,
		Fairness: stats.NewFairnessAnalyzer().Analyze(roster),
	})
}

// runID 解析路径中的运行ID
func (h *Handler) runID(r *http.Request) (uuid.UUID, *apperrors.AppError) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的运行ID格式")
	}
	return id, nil
}
