// Package decode 把求解器返回的扁平取值表还原为结构化花名册。
// 解码逻辑全程携带结构化变量标识 (变量族, 索引元组)，
// 字符串列名只在查询取值表的一步出现。
package decode

import (
	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/scheduler/vars"
)

// Decoder 花名册解码器
type Decoder struct {
	threshold milp.Threshold
}

// NewDecoder 创建解码器，0/1 判定使用默认判定点
func NewDecoder() *Decoder {
	return &Decoder{threshold: milp.DefaultThreshold}
}

// SetThreshold 设置浮点取值的 0/1 判定器
func (d *Decoder) SetThreshold(t milp.Threshold) {
	d.threshold = t
}

// Decode 把一次可行求解的结果还原为花名册。
// 逐 (人员, 天) 解码：休假变量生效则标记休假，否则扫描全部
// (科室, 班次) 组合取唯一生效的排班变量。单格异常只记录在
// 花名册上，不中断整体解码，以免一条坏记录掩盖其余结果。
func (d *Decoder) Decode(ins *model.Instance, sol *milp.Solution) (*model.Roster, error) {
	if ins == nil {
		return nil, apperrors.New(apperrors.CodeDecodeFailed, "缺少问题实例，无法解码")
	}
	if sol == nil || !sol.Feasible() {
		return nil, apperrors.New(apperrors.CodeDecodeFailed, "没有可解码的求解结果")
	}

	roster := model.NewRoster(ins)
	roster.Objective = sol.Objective

	for i := 1; i <= ins.Personnel; i++ {
		for j := 1; j <= ins.Days; j++ {
			cell := roster.Cell(i, j)
			if d.active(sol, vars.VarRef{Family: vars.FamilyLeave, Person: i, Day: j}) {
				cell.OnLeave = true
				continue
			}
			duties := d.activeDuties(sol, ins, i, j)
			switch len(duties) {
			case 1:
				cell.Duty = &duties[0]
			case 0:
				// 休假也未生效时的空档，通常是容差边界上的松弛
				roster.Anomalies = append(roster.Anomalies, model.Anomaly{
					Kind: model.AnomalyGap, Person: i, Day: j,
				})
			default:
				// 结构性违规，只报告，绝不自行挑选其一
				roster.Anomalies = append(roster.Anomalies, model.Anomaly{
					Kind: model.AnomalyAmbiguity, Person: i, Day: j, Duties: duties,
				})
			}
		}
	}
	return roster, nil
}

// active 查询并判定一个0/1变量。取值表中缺失按0处理。
func (d *Decoder) active(sol *milp.Solution, ref vars.VarRef) bool {
	v, ok := sol.Value(ref.Name())
	return ok && d.threshold.Active(v)
}

// activeDuties 收集某 (人员, 天) 全部判定生效的排班组合
func (d *Decoder) activeDuties(sol *milp.Solution, ins *model.Instance, i, j int) []model.Duty {
	var duties []model.Duty
	for k := 1; k <= ins.Sections; k++ {
		for l := 1; l <= ins.Shifts; l++ {
			ref := vars.VarRef{Family: vars.FamilyAssignment, Person: i, Day: j, Section: k, Shift: l}
			if d.active(sol, ref) {
				duties = append(duties, model.Duty{Section: k, Shift: l})
			}
		}
	}
	return duties
}
