package constraint

import (
	"sort"
	"sync"

	"github.com/lunban/lunban/pkg/logger"
)

// Manager 约束生成器管理器
type Manager struct {
	generators []Generator
	mu         sync.RWMutex
	logger     *logger.RosterLogger
}

// NewManager 创建空管理器
func NewManager() *Manager {
	return &Manager{
		generators: make([]Generator, 0),
		logger:     logger.NewRosterLogger(),
	}
}

// DefaultManager 创建注册了全部内置约束族的管理器
func DefaultManager() *Manager {
	m := NewManager()
	m.Register(&Coverage{})
	m.Register(&SingleShift{})
	m.Register(&LeaveExclusive{})
	m.Register(&LeaveWindow{})
	m.Register(&WorkloadBand{})
	m.Register(&NightMorning{})
	m.Register(&RestPattern{})
	m.Register(&DutyPattern{})
	m.Register(&TotalWorkload{})
	m.Register(&SectionQuality{})
	return m
}

// Register 注册生成器。同类型已存在时替换，
// 注册后保持硬约束在前、目标约束在后的应用顺序。
func (m *Manager) Register(g Generator) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.generators {
		if existing.Type() == g.Type() {
			m.generators[i] = g
			return
		}
	}

	m.generators = append(m.generators, g)

	sort.SliceStable(m.generators, func(i, j int) bool {
		gi, gj := m.generators[i], m.generators[j]
		if gi.Category() != gj.Category() {
			return gi.Category() == CategoryHard
		}
		return false
	})
}

// Unregister 注销生成器
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, g := range m.generators {
		if g.Type() == t {
			m.generators = append(m.generators[:i], m.generators[i+1:]...)
			return
		}
	}
}

// Get 按类型获取生成器
func (m *Manager) Get(t Type) Generator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.generators {
		if g.Type() == t {
			return g
		}
	}
	return nil
}

// GetAll 获取所有生成器（应用顺序）
func (m *Manager) GetAll() []Generator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Generator, len(m.generators))
	copy(result, m.generators)
	return result
}

// GetByCategory 按类别获取生成器
func (m *Manager) GetByCategory(cat Category) []Generator {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Generator
	for _, g := range m.generators {
		if g.Category() == cat {
			result = append(result, g)
		}
	}
	return result
}

// Apply 按注册顺序应用所有生成器，硬约束先于目标约束。
// 任一生成器出错即中止，不写入后续约束。
func (m *Manager) Apply(ctx *Context) error {
	m.mu.RLock()
	generators := make([]Generator, len(m.generators))
	copy(generators, m.generators)
	m.mu.RUnlock()

	for _, g := range generators {
		before := ctx.Model.NumRows()
		if err := g.Apply(ctx); err != nil {
			return err
		}
		m.logger.ConstraintApplied(g.Name(), ctx.Model.NumRows()-before)
	}
	return nil
}

// Count 返回生成器数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.generators)
}

// Summary 返回生成器摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hard := 0
	goal := 0
	for _, g := range m.generators {
		if g.Category() == CategoryHard {
			hard++
		} else {
			goal++
		}
	}

	return map[string]interface{}{
		"total": len(m.generators),
		"hard":  hard,
		"goal":  goal,
	}
}
