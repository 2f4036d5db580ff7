package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/relief"
)

// GetRunRelief 为已求解运行的某个 (天, 片区, 班次) 推荐顶班人选。
// 胜任力评分取科室存量评分表，缺失时按统一评分处理。
func (h *Handler) GetRunRelief(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	q := r.URL.Query()
	day, appErr := queryPositiveInt(q, "day")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	section, appErr := queryPositiveInt(q, "section")
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	shift, appErr := queryPositiveInt(q, "shift")
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

	roster, err := h.runs.GetRoster(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if roster == nil {
		respondError(w, apperrors.New(apperrors.CodeNotFound, "该运行没有花名册数据").
			WithDetails("仅成功求解的运行支持顶班推荐"))
		return
	}

	comp, err := h.resolveCompetency(r.Context(), run.Department, roster.Instance, nil)
	if err != nil {
		respondAppError(w, err)
		return
	}

	req := &relief.Request{
		Roster:     roster,
		Competency: comp,
		Slot:       relief.Slot{Day: day, Section: section, Shift: shift},
	}
	if max, err := strconv.Atoi(q.Get("max")); err == nil {
		req.MaxResults = max
	}

	respondJSON(w, http.StatusOK, h.relief.Dispatch(req))
}

// queryPositiveInt 解析必填的正整数查询参数
func queryPositiveInt(q url.Values, name string) (int, *apperrors.AppError) {
	v, err := strconv.Atoi(q.Get(name))
	if err != nil || v < 1 {
		return 0, apperrors.New(apperrors.CodeInvalidInput,
			fmt.Sprintf("查询参数 %s 必须为正整数", name))
	}
	return v, nil
}
