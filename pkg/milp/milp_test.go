package milp

import "testing"

func TestModelColumns(t *testing.T) {
	m := NewModel("test")

	x, err := m.AddBinary("x_1")
	if err != nil {
		t.Fatalf("添加二值列失败: %v", err)
	}
	d, err := m.AddContinuous("d_1", 0, Inf)
	if err != nil {
		t.Fatalf("添加连续列失败: %v", err)
	}

	if m.NumCols() != 2 {
		t.Errorf("列数 = %d, 期望 2", m.NumCols())
	}
	if col := m.Col(x); col == nil || col.Kind != Binary || col.Upper != 1 {
		t.Errorf("二值列属性错误: %+v", col)
	}
	if col := m.Col(d); col == nil || col.Kind != Continuous || col.Lower != 0 {
		t.Errorf("连续列属性错误: %+v", col)
	}

	if id, ok := m.ColByName("d_1"); !ok || id != d {
		t.Errorf("ColByName(d_1) = %d, %v", id, ok)
	}
	if m.Col(ColID(99)) != nil {
		t.Error("越界列应返回 nil")
	}
}

func TestModelDuplicateName(t *testing.T) {
	m := NewModel("test")
	if _, err := m.AddBinary("x"); err != nil {
		t.Fatalf("首次添加失败: %v", err)
	}
	if _, err := m.AddBinary("x"); err == nil {
		t.Error("重名列应报错")
	}
	if _, err := m.AddContinuous("", 0, 1); err == nil {
		t.Error("空列名应报错")
	}
}

func TestModelRows(t *testing.T) {
	m := NewModel("test")
	x, _ := m.AddBinary("x")
	y, _ := m.AddBinary("y")

	var e Expr
	e.Add(x, 1)
	e.Add(y, 2)

	if err := m.AddRow("r1", e.Terms, LessEqual, 2); err != nil {
		t.Fatalf("添加约束失败: %v", err)
	}
	if m.NumRows() != 1 {
		t.Errorf("行数 = %d, 期望 1", m.NumRows())
	}

	row := m.Rows()[0]
	if row.Sense != LessEqual || row.RHS != 2 || len(row.Terms) != 2 {
		t.Errorf("约束属性错误: %+v", row)
	}

	if err := m.AddRow("r2", []Term{{Col: 99, Coef: 1}}, Equal, 0); err == nil {
		t.Error("引用越界列应报错")
	}
}

func TestSetObjective(t *testing.T) {
	m := NewModel("test")
	x, _ := m.AddBinary("x")

	if err := m.SetObjective(x, 3.5); err != nil {
		t.Fatalf("设置目标系数失败: %v", err)
	}
	if m.Col(x).Objective != 3.5 {
		t.Errorf("目标系数 = %v, 期望 3.5", m.Col(x).Objective)
	}
	if err := m.SetObjective(ColID(42), 1); err == nil {
		t.Error("越界列设置目标应报错")
	}
}

func TestSolutionFeasible(t *testing.T) {
	testCases := []struct {
		name     string
		status   Status
		feasible bool
	}{
		{"最优解可用", StatusOptimal, true},
		{"可行解可用", StatusFeasible, true},
		{"无可行解不可用", StatusInfeasible, false},
		{"无界不可用", StatusUnbounded, false},
		{"未知不可用", StatusUnknown, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Solution{Status: tc.status}
			if got := s.Feasible(); got != tc.feasible {
				t.Errorf("Feasible() = %v, 期望 %v", got, tc.feasible)
			}
		})
	}
}

func TestThreshold(t *testing.T) {
	testCases := []struct {
		value  float64
		active bool
	}{
		{1.0, true},
		{0.999997, true},
		{0.5, true},
		{0.499999, false},
		{1e-6, false},
		{0, false},
		{-1e-9, false},
		{1.000001, true},
	}

	for _, tc := range testCases {
		if got := DefaultThreshold.Active(tc.value); got != tc.active {
			t.Errorf("Active(%v) = %v, 期望 %v", tc.value, got, tc.active)
		}
	}

	strict := NewThreshold(0.9)
	if strict.Active(0.8) {
		t.Error("0.8 在 0.9 判定点下不应生效")
	}
}

func TestSenseString(t *testing.T) {
	if Equal.String() != "=" || LessEqual.String() != "<=" || GreaterEqual.String() != ">=" {
		t.Error("关系符号错误")
	}
}

func TestStatusString(t *testing.T) {
	testCases := []struct {
		status Status
		want   string
	}{
		{StatusOptimal, "optimal"},
		{StatusFeasible, "feasible"},
		{StatusInfeasible, "infeasible"},
		{StatusUnbounded, "unbounded"},
		{StatusUnknown, "unknown"},
	}
	for _, tc := range testCases {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, 期望 %q", tc.status, got, tc.want)
		}
	}
}
