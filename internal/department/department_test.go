package department

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDepartment_IsActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		dept     *Department
		expected bool
	}{
		{
			name:     "活跃科室",
			dept:     &Department{Status: "active"},
			expected: true,
		},
		{
			name:     "暂停科室",
			dept:     &Department{Status: "suspended"},
			expected: false,
		},
		{
			name:     "未过期科室",
			dept:     &Department{Status: "active", ExpiredAt: &future},
			expected: true,
		},
		{
			name:     "已过期科室",
			dept:     &Department{Status: "active", ExpiredAt: &past},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := tt.dept.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestDepartment_HasFeature(t *testing.T) {
	dept := &Department{
		Settings: Settings{
			Features: []string{"solve", "runs"},
		},
	}

	if !dept.HasFeature("solve") {
		t.Error("应有solve功能")
	}
	if !dept.HasFeature("runs") {
		t.Error("应有runs功能")
	}
	if dept.HasFeature("stats") {
		t.Error("不应有stats功能")
	}

	// 测试通配符
	dept2 := &Department{
		Settings: Settings{
			Features: []string{"*"},
		},
	}
	if !dept2.HasFeature("anything") {
		t.Error("通配符应匹配任何功能")
	}
}

func TestDepartment_HasPolicy(t *testing.T) {
	dept := &Department{
		Settings: Settings{
			AllowedPolicies: []string{"hospital", "ward"},
		},
	}

	if !dept.HasPolicy("hospital") {
		t.Error("应允许hospital预设")
	}
	if dept.HasPolicy("clinic") {
		t.Error("不应允许clinic预设")
	}
}

func TestManager_RegisterAndGet(t *testing.T) {
	manager := NewManager()

	dept := &Department{
		ID:     uuid.New(),
		Code:   "icu",
		Name:   "重症监护病区",
		Status: "active",
	}

	// 注册
	err := manager.Register(dept)
	if err != nil {
		t.Errorf("Register failed: %v", err)
	}

	// 获取
	got, err := manager.Get("icu")
	if err != nil {
		t.Errorf("Get failed: %v", err)
	}
	if got.Code != "icu" {
		t.Errorf("Got wrong department: %v", got)
	}

	// 获取不存在的
	_, err = manager.Get("nonexistent")
	if err != ErrDepartmentNotFound {
		t.Errorf("Expected ErrDepartmentNotFound, got: %v", err)
	}
}

func TestManager_GetDisabled(t *testing.T) {
	manager := NewManager()
	manager.Register(&Department{Code: "icu", Status: "suspended"})

	_, err := manager.Get("icu")
	if err != ErrDepartmentDisabled {
		t.Errorf("Expected ErrDepartmentDisabled, got: %v", err)
	}
}

func TestManager_GetByID(t *testing.T) {
	manager := NewManager()
	id := uuid.New()

	dept := &Department{
		ID:     id,
		Code:   "icu",
		Status: "active",
	}
	manager.Register(dept)

	got, err := manager.GetByID(id)
	if err != nil {
		t.Errorf("GetByID failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("Got wrong department")
	}
}

func TestDepartmentContext(t *testing.T) {
	dept := &Department{Code: "icu"}
	ctx := WithDepartment(context.Background(), dept)

	got, ok := FromContext(ctx)
	if !ok {
		t.Error("FromContext should return true")
	}
	if got.Code != "icu" {
		t.Error("Got wrong department from context")
	}

	// 空上下文
	_, ok = FromContext(context.Background())
	if ok {
		t.Error("Empty context should return false")
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.MaxPersonnel != 200 {
		t.Errorf("Expected MaxPersonnel=200, got %d", settings.MaxPersonnel)
	}
	if len(settings.Features) != 4 {
		t.Errorf("Expected 4 features, got %d", len(settings.Features))
	}
}

func TestCreateDefaultDepartment(t *testing.T) {
	dept := CreateDefaultDepartment()

	if dept.Code != "default" {
		t.Errorf("Expected code='default', got %s", dept.Code)
	}
	if dept.Status != "active" {
		t.Errorf("Expected status='active', got %s", dept.Status)
	}
	if !dept.HasPolicy("hospital") {
		t.Error("默认科室应允许任意预设")
	}
}
