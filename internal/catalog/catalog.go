// Package catalog 约束目录。
// 以机器可读的形式描述模型的全部约束族：索引域、数学形式、
// 行名前缀与可调参数，供目录接口和前端展示使用。
// 目录只描述形状，不参与模型构建；行数随实例维度变化。
package catalog

// Param 约束参数定义
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, map
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// Family 约束族定义
type Family struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Kind        string  `json:"kind"` // hard 硬约束, goal 目标约束
	Category    string  `json:"category"`
	Description string  `json:"description"`
	IndexDomain string  `json:"index_domain"`
	Expression  string  `json:"expression"`
	RowPrefix   string  `json:"row_prefix"`
	Objective   string  `json:"objective,omitempty"` // 目标约束偏差的计入方式
	Params      []Param `json:"params"`
}

// Response 约束目录响应
type Response struct {
	Catalog []Family `json:"catalog"`
}

// GetCatalog 获取完整的约束目录
func GetCatalog() []Family {
	return []Family{
		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        "coverage",
			DisplayName: "科室人数覆盖",
			Kind:        "hard",
			Category:    "覆盖保障",
			Description: "每个 (天, 片区, 班次) 槽位的当班人数必须恰好等于该片区的需求人数。",
			IndexDomain: "(天 j, 片区 k, 班次 l)",
			Expression:  "Σ_i X(i,j,k,l) = R(k)",
			RowPrefix:   "cover_",
			Params: []Param{
				{Name: "requirements", Type: "map", Description: "各片区需求人数 R(k)", Default: "1:3 2:4 3:4 4:4 5:6 6:8 7:5"},
			},
		},
		{
			Name:        "single_shift_per_day",
			DisplayName: "每日至多一个班次",
			Kind:        "hard",
			Category:    "排班模式",
			Description: "同一人员同一天至多承担一个 (片区, 班次) 组合。",
			IndexDomain: "(人员 i, 天 j)",
			Expression:  "Σ_{k,l} X(i,j,k,l) <= 1",
			RowPrefix:   "single_",
			Params:      []Param{},
		},
		{
			Name:        "leave_exclusivity",
			DisplayName: "休假与上班互斥",
			Kind:        "hard",
			Category:    "休息保障",
			Description: "休假当天不得再安排任何班次。",
			IndexDomain: "(人员 i, 天 j)",
			Expression:  "Σ_{k,l} X(i,j,k,l) + h(i,j) <= 1",
			RowPrefix:   "excl_",
			Params:      []Param{},
		},
		{
			Name:        "rolling_leave_window",
			DisplayName: "滚动休假区间",
			Kind:        "hard",
			Category:    "休息保障",
			Description: "任意连续 w 天内的休假天数必须落在给定区间；窗口长于当月天数时本族不生成。",
			IndexDomain: "(人员 i, 起始日 j)，j = 1 ~ 天数-w+1",
			Expression:  "LeaveMin <= Σ_{t=j}^{j+w-1} h(i,t) <= LeaveMax，按上下界拆成两行",
			RowPrefix:   "leavewin_lo_ / leavewin_hi_",
			Params: []Param{
				{Name: "leave_window", Type: "int", Description: "滚动窗口长度 w (天)", Default: "7", Min: "1"},
				{Name: "leave_min", Type: "int", Description: "窗口内最少休假天数", Default: "1", Min: "0"},
				{Name: "leave_max", Type: "int", Description: "窗口内最多休假天数", Default: "2", Min: "0"},
			},
		},
		{
			Name:        "shift_workload_band",
			DisplayName: "单班种班数区间",
			Kind:        "hard",
			Category:    "工作量限制",
			Description: "每个人员每个班种的当月班数必须落在给定区间。",
			IndexDomain: "(人员 i, 班次 l)",
			Expression:  "WorkloadMin <= Σ_{j,k} X(i,j,k,l) <= WorkloadMax，按上下界拆成两行",
			RowPrefix:   "load_lo_ / load_hi_",
			Params: []Param{
				{Name: "workload_min", Type: "int", Description: "单班种最少班数", Default: "10", Min: "0"},
				{Name: "workload_max", Type: "int", Description: "单班种最多班数", Default: "12", Min: "0"},
			},
		},
		{
			Name:        "night_morning_rest",
			DisplayName: "夜班次日不排早班",
			Kind:        "hard",
			Category:    "休息保障",
			Description: "值夜班的次日不得安排早班；班次种类不足两种时本族不生成。",
			IndexDomain: "(人员 i, 天 j)，j = 1 ~ 天数-1",
			Expression:  "Σ_k X(i,j,k,夜班) + Σ_k X(i,j+1,k,早班) <= 1",
			RowPrefix:   "night_",
			Params:      []Param{},
		},

		// =====================================================
		// 目标约束（软目标以等式加偏差变量实现）
		// =====================================================
		{
			Name:        "rest_pattern_goal",
			DisplayName: "休班休节奏目标",
			Kind:        "goal",
			Category:    "节奏目标",
			Description: "第 j 天休假、第 j+1 天上班、第 j+2 天休假三项之和以2为目标，鼓励休-班-休的作息节奏。",
			IndexDomain: "(人员 i, 起始日 j)，j = 1 ~ 天数-2",
			Expression:  "h(i,j) + Σ_{k,l} X(i,j+1,k,l) + h(i,j+2) + d⁻ - d⁺ = 2",
			RowPrefix:   "goal1_",
			Objective:   "欠达与超达偏差均计入目标函数",
			Params:      []Param{},
		},
		{
			Name:        "duty_pattern_goal",
			DisplayName: "班休班节奏目标",
			Kind:        "goal",
			Category:    "节奏目标",
			Description: "第 j 天排班数、第 j+1 天休假、第 j+1 天排班数三项之和以2为目标，等式按业务方现行口径逐项照录。",
			IndexDomain: "(人员 i, 起始日 j)，j = 1 ~ 天数-2",
			Expression:  "Σ_{k,l} X(i,j,k,l) + h(i,j+1) + Σ_{k,l} X(i,j+1,k,l) + d⁻ - d⁺ = 2",
			RowPrefix:   "goal2_",
			Objective:   "欠达与超达偏差均计入目标函数",
			Params:      []Param{},
		},
		{
			Name:        "total_workload_goal",
			DisplayName: "总班数均衡目标",
			Kind:        "goal",
			Category:    "均衡目标",
			Description: "每个人员当月的全部排班数以统一目标值为目标，使总工作量在人员之间均衡。",
			IndexDomain: "(人员 i)",
			Expression:  "Σ_{j,k,l} X(i,j,k,l) + d⁻ - d⁺ = TotalWorkloadTarget",
			RowPrefix:   "goal3_",
			Objective:   "欠达与超达偏差均计入目标函数",
			Params: []Param{
				{Name: "total_workload_target", Type: "int", Description: "当月总班数目标值", Default: "22", Min: "0"},
			},
		},
		{
			Name:        "section_quality_goal",
			DisplayName: "科室质量达标目标",
			Kind:        "goal",
			Category:    "质量目标",
			Description: "每个 (天, 班次) 槽位上当班人员的胜任度加权和以该片区的质量目标为目标值；引用到缺失评分即报错中止。",
			IndexDomain: "片区 k 对应目标 k+3，索引 (天 j, 班次 l)",
			Expression:  "Σ_i s(i,k)·X(i,j,k,l) + d⁻ - d⁺ = Q(k)",
			RowPrefix:   "goal4_ 起，按 goal{k+3}_ 递增",
			Objective:   "仅超达偏差计入目标函数",
			Params: []Param{
				{Name: "quality_targets", Type: "map", Description: "各片区质量目标 Q(k)", Default: "1:3 2:4 3:4 4:4 5:6 6:8 7:5"},
			},
		},
	}
}
