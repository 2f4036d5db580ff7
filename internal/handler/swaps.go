package handler

import (
	"net/http"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/swap"
)

// SwapRequest 调班评估/推荐请求。给定 target 时评估指定调班，
// 否则按选项为源执勤推荐接替人选。
type SwapRequest struct {
	Person      int          `json:"person" validate:"required,min=1"`
	Day         int          `json:"day" validate:"required,min=1"`
	Target      int          `json:"target,omitempty" validate:"omitempty,min=1"`
	ExchangeDay int          `json:"exchange_day,omitempty" validate:"omitempty,min=1"`
	Options     *SwapOptions `json:"options,omitempty"`
}

// SwapOptions 推荐模式选项
type SwapOptions struct {
	MaxResults    int     `json:"max_results,omitempty" validate:"omitempty,min=1,max=50"`
	Preferred     []int   `json:"preferred,omitempty"`
	Excluded      []int   `json:"excluded,omitempty"`
	AllowExchange *bool   `json:"allow_exchange,omitempty"`
	MinScore      float64 `json:"min_score,omitempty" validate:"omitempty,min=0,max=100"`
}

// SwapResponse 调班评估/推荐响应
type SwapResponse struct {
	Mode            string                `json:"mode"` // evaluate/recommend
	Evaluation      *swap.Evaluation      `json:"evaluation,omitempty"`
	Recommendations []swap.Recommendation `json:"recommendations,omitempty"`
}

// EvaluateSwaps 调班评估与推荐。评估在花名册副本上模拟，
// 不回写运行数据。
func (h *Handler) EvaluateSwaps(w http.ResponseWriter, r *http.Request) {
	id, appErr := h.runID(r)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	var req SwapRequest
	if appErr := h.readJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if appErr := h.checkStruct(&req); appErr != nil {
		respondError(w, appErr)
		return
	}
	if req.ExchangeDay > 0 && req.Target == 0 {
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "互换评估必须给定接替人员"))
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
			WithDetails("仅成功求解的运行支持调班评估"))
		return
	}

	comp, err := h.resolveCompetency(r.Context(), run.Department, roster.Instance, nil)
	if err != nil {
		respondAppError(w, err)
		return
	}

	if req.Target > 0 {
		eval := h.swapEval.Evaluate(roster, comp, &swap.Request{
			Person:      req.Person,
			Day:         req.Day,
			Target:      req.Target,
			ExchangeDay: req.ExchangeDay,
		})
		respondJSON(w, http.StatusOK, SwapResponse{Mode: "evaluate", Evaluation: eval})
		return
	}

	opts := swap.DefaultOptions()
	if req.Options != nil {
		if req.Options.MaxResults > 0 {
			opts.MaxResults = req.Options.MaxResults
		}
		opts.Preferred = req.Options.Preferred
		opts.Excluded = req.Options.Excluded
		if req.Options.AllowExchange != nil {
			opts.AllowExchange = *req.Options.AllowExchange
		}
		if req.Options.MinScore > 0 {
			opts.MinScore = req.Options.MinScore
		}
	}

	recs := h.swaps.RecommendTargets(roster, comp, req.Person, req.Day, opts)
	if recs == nil {
		recs = []swap.Recommendation{}
	}
	respondJSON(w, http.StatusOK, SwapResponse{Mode: "recommend", Recommendations: recs})
}
