// Package department 提供科室注册与隔离支持。
// 每个 API 密钥归属一个科室，排班运行、胜任力评分都按科室编码隔离。
package department

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDepartmentNotFound = errors.New("科室不存在")
	ErrInvalidDepartment  = errors.New("无效的科室")
	ErrDepartmentDisabled = errors.New("科室已停用")
)

// Department 科室
type Department struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`   // 科室编码
	Name      string     `json:"name"`   // 科室名称
	Status    string     `json:"status"` // active/suspended/expired
	Settings  Settings   `json:"settings"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// Settings 科室配置
type Settings struct {
	MaxPersonnel    int      `json:"max_personnel"`      // 实例人员数上限
	AllowedPolicies []string `json:"allowed_policies"`   // 允许使用的排班预设
	Features        []string `json:"features"`           // 启用的功能
	APIRateLimit    int      `json:"api_rate_limit"`     // API速率限制
	RunRetention    int      `json:"run_retention_days"` // 运行记录保留天数
}

// IsActive 检查科室是否可用
func (d *Department) IsActive() bool {
	if d.Status != "active" {
		return false
	}
	if d.ExpiredAt != nil && d.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasFeature 检查科室是否启用某功能
func (d *Department) HasFeature(feature string) bool {
	for _, f := range d.Settings.Features {
		if f == feature || f == "*" {
			return true
		}
	}
	return false
}

// HasPolicy 检查科室是否允许使用某排班预设
func (d *Department) HasPolicy(policy string) bool {
	for _, p := range d.Settings.AllowedPolicies {
		if p == policy || p == "*" {
			return true
		}
	}
	return false
}

// Manager 科室注册表
type Manager struct {
	departments map[string]*Department // code -> department
	mu          sync.RWMutex
}

// NewManager 创建科室注册表
func NewManager() *Manager {
	return &Manager{
		departments: make(map[string]*Department),
	}
}

// Register 注册科室
func (m *Manager) Register(dept *Department) error {
	if dept == nil || dept.Code == "" {
		return ErrInvalidDepartment
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.departments[dept.Code] = dept
	return nil
}

// Get 按编码获取科室
func (m *Manager) Get(code string) (*Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dept, exists := m.departments[code]
	if !exists {
		return nil, ErrDepartmentNotFound
	}

	if !dept.IsActive() {
		return nil, ErrDepartmentDisabled
	}

	return dept, nil
}

// GetByID 按ID获取科室
func (m *Manager) GetByID(id uuid.UUID) (*Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, dept := range m.departments {
		if dept.ID == id {
			if !dept.IsActive() {
				return nil, ErrDepartmentDisabled
			}
			return dept, nil
		}
	}

	return nil, ErrDepartmentNotFound
}

// List 列出所有科室
func (m *Manager) List() []*Department {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Department, 0, len(m.departments))
	for _, d := range m.departments {
		result = append(result, d)
	}
	return result
}

// Remove 移除科室
func (m *Manager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.departments, code)
}

type departmentContextKey struct{}

// WithDepartment 将科室添加到上下文
func WithDepartment(ctx context.Context, dept *Department) context.Context {
	return context.WithValue(ctx, departmentContextKey{}, dept)
}

// FromContext 从上下文获取科室
func FromContext(ctx context.Context) (*Department, bool) {
	dept, ok := ctx.Value(departmentContextKey{}).(*Department)
	return dept, ok
}

// DefaultSettings 默认科室配置
func DefaultSettings() Settings {
	return Settings{
		MaxPersonnel:    200,
		AllowedPolicies: []string{"*"},
		Features:        []string{"solve", "runs", "stats", "export"},
		APIRateLimit:    100,
		RunRetention:    365,
	}
}

// CreateDefaultDepartment 创建默认科室（开发测试用）
func CreateDefaultDepartment() *Department {
	return &Department{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认科室",
		Status:    "active",
		Settings:  DefaultSettings(),
		CreatedAt: time.Now(),
	}
}
