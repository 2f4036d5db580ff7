package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
	rosterval "github.com/lunban/lunban/pkg/validator"
)

// ValidateRosterRequest 花名册验证请求。两种来源二选一：
// run_id 复核已入库的运行，或直接提交实例与单元格
// （外部导入、人工改动过的方案）。
type ValidateRosterRequest struct {
	RunID    string          `json:"run_id,omitempty"`
	Instance *model.Instance `json:"instance,omitempty"`
	Cells    []CellInput     `json:"cells,omitempty"`
	Checks   *CheckOptions   `json:"checks,omitempty"`
}

// CellInput 单元格输入。排班时 section 与 shift 必须同时给出。
type CellInput struct {
	Person  int  `json:"person" validate:"required,min=1"`
	Day     int  `json:"day" validate:"required,min=1"`
	OnLeave bool `json:"on_leave,omitempty"`
	Section int  `json:"section,omitempty"`
	Shift   int  `json:"shift,omitempty"`
}

// CheckOptions 检测项开关，nil 字段沿用默认配置
type CheckOptions struct {
	Coverage  *bool `json:"coverage,omitempty"`
	Bands     *bool `json:"bands,omitempty"`
	NightRest *bool `json:"night_rest,omitempty"`
	GapError  bool  `json:"gap_is_error,omitempty"`
}

// ValidateRosterResponse 验证响应
type ValidateRosterResponse struct {
	Valid     bool                 `json:"valid"`
	Conflicts []rosterval.Conflict `json:"conflicts"`
	Counts    map[string]int       `json:"counts"`
}

// ValidateRoster 复核花名册是否满足全部硬性规则
func (h *Handler) ValidateRoster(w http.ResponseWriter, r *http.Request) {
	var req ValidateRosterRequest
	if appErr := h.readJSON(r, &req); appErr != nil {
		respondError(w, appErr)
		return
	}

	var roster *model.Roster
	switch {
	case req.RunID != "":
		id, err := uuid.Parse(req.RunID)
		if err != nil {
			respondError(w, apperrors.Wrap(err, apperrors.CodeInvalidInput, "无效的运行ID格式"))
			return
		}
		stored, err := h.runs.GetRoster(r.Context(), id)
		if err != nil {
			respondAppError(w, err)
			return
		}
		if stored == nil {
			respondError(w, apperrors.NotFound("排班运行", req.RunID))
			return
		}
		roster = stored

	case req.Instance != nil:
		built, appErr := h.buildRoster(req.Instance, req.Cells)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		roster = built

	default:
		respondError(w, apperrors.New(apperrors.CodeInvalidInput, "需要 run_id 或 instance 之一"))
		return
	}

	conflicts := rosterval.NewRosterValidator(detectorConfig(req.Checks)).Validate(roster)
	if conflicts == nil {
		conflicts = []rosterval.Conflict{}
	}

	respondJSON(w, http.StatusOK, ValidateRosterResponse{
		Valid:     !rosterval.HasErrors(conflicts),
		Conflicts: conflicts,
		Counts:    rosterval.CountBySeverity(conflicts),
	})
}

// buildRoster 把提交的实例与单元格组装成花名册。
// 天数缺省时按年月的日历推算。
func (h *Handler) buildRoster(ins *model.Instance, cells []CellInput) (*model.Roster, *apperrors.AppError) {
	if ins.Days == 0 && ins.Year != 0 {
		ins.Days = model.NewInstance(ins.Year, ins.Month).Days
	}
	if ve := ins.Validate(); ve != nil {
		return nil, ve.ToAppError()
	}

	roster := model.NewRoster(ins)
	for _, c := range cells {
		if appErr := h.checkStruct(&c); appErr != nil {
			return nil, appErr
		}
		cell := roster.Cell(c.Person, c.Day)
		if cell == nil {
			return nil, apperrors.New(apperrors.CodeInvalidInput,
				fmt.Sprintf("单元格 (%d, %d) 超出实例维度", c.Person, c.Day))
		}
		cell.OnLeave = c.OnLeave
		if c.Section != 0 || c.Shift != 0 {
			if c.Section < 1 || c.Section > ins.Sections || c.Shift < 1 || c.Shift > ins.Shifts {
				return nil, apperrors.New(apperrors.CodeInvalidInput,
					fmt.Sprintf("单元格 (%d, %d) 的排班组合 (%d, %d) 超出实例维度", c.Person, c.Day, c.Section, c.Shift))
			}
			cell.Duty = &model.Duty{Section: c.Section, Shift: c.Shift}
		}
	}
	return roster, nil
}

// detectorConfig 套用请求开关生成检测配置
func detectorConfig(opts *CheckOptions) *rosterval.DetectorConfig {
	config := rosterval.DefaultDetectorConfig()
	if opts == nil {
		return config
	}
	if opts.Coverage != nil {
		config.CheckCoverage = *opts.Coverage
	}
	if opts.Bands != nil {
		config.CheckBands = *opts.Bands
	}
	if opts.NightRest != nil {
		config.CheckNightRest = *opts.NightRest
	}
	config.GapIsError = opts.GapError
	return config
}
