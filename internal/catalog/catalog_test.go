package catalog

import (
	"testing"

	"github.com/lunban/lunban/pkg/scheduler/constraint"
)

func TestCatalogMatchesConstraintTypes(t *testing.T) {
	families := GetCatalog()
	byName := make(map[string]Family, len(families))
	for _, f := range families {
		if _, dup := byName[f.Name]; dup {
			t.Errorf("约束目录存在重复条目: %s", f.Name)
		}
		byName[f.Name] = f
	}

	tests := []struct {
		typ  constraint.Type
		kind string
	}{
		{constraint.TypeCoverage, "hard"},
		{constraint.TypeSingleShift, "hard"},
		{constraint.TypeLeaveExclusive, "hard"},
		{constraint.TypeLeaveWindow, "hard"},
		{constraint.TypeWorkloadBand, "hard"},
		{constraint.TypeNightMorning, "hard"},
		{constraint.TypeRestPattern, "goal"},
		{constraint.TypeDutyPattern, "goal"},
		{constraint.TypeTotalWorkload, "goal"},
		{constraint.TypeSectionQuality, "goal"},
	}

	if len(families) != len(tests) {
		t.Errorf("约束目录条目数 = %d, 期望 %d", len(families), len(tests))
	}

	for _, tt := range tests {
		f, ok := byName[string(tt.typ)]
		if !ok {
			t.Errorf("约束目录缺少 %s", tt.typ)
			continue
		}
		if f.Kind != tt.kind {
			t.Errorf("%s 的类别 = %s, 期望 %s", f.Name, f.Kind, tt.kind)
		}
	}
}

func TestCatalogEntriesComplete(t *testing.T) {
	for _, f := range GetCatalog() {
		if f.DisplayName == "" || f.Description == "" || f.IndexDomain == "" || f.Expression == "" || f.RowPrefix == "" {
			t.Errorf("约束目录条目 %s 缺少描述字段", f.Name)
		}
		switch f.Kind {
		case "hard":
			if f.Objective != "" {
				t.Errorf("硬约束 %s 不应携带目标计入方式", f.Name)
			}
		case "goal":
			if f.Objective == "" {
				t.Errorf("目标约束 %s 缺少偏差计入方式", f.Name)
			}
		default:
			t.Errorf("约束目录条目 %s 的类别非法: %s", f.Name, f.Kind)
		}
		if f.Params == nil {
			t.Errorf("约束目录条目 %s 的参数列表为 nil", f.Name)
		}
	}
}
