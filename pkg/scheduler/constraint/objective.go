package constraint

// balancedGoals 前三个目标双向计入偏差，之后的科室质量目标只计超达方向。
const balancedGoals = 3

// AssembleObjective 装配目标函数：最小化各目标偏差的无权重之和。
// 目标1~3同时惩罚欠达与超达；目标4起仅惩罚超出质量目标的部分。
// TODO: 质量目标的单向惩罚沿用护理部现行口径，是否需要同时惩罚欠达待与护理部确认。
func AssembleObjective(ctx *Context) error {
	for g := 1; g <= ctx.Space.NumGoals(); g++ {
		if g <= balancedGoals {
			for _, id := range ctx.Space.UnderCols(g) {
				if err := ctx.Model.SetObjective(id, 1); err != nil {
					return err
				}
			}
		}
		for _, id := range ctx.Space.OverCols(g) {
			if err := ctx.Model.SetObjective(id, 1); err != nil {
				return err
			}
		}
	}
	return nil
}
