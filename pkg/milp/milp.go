// Package milp 定义混合整数线性模型的中间表示。
// 构建器逐列逐行装配模型，求解适配器只读遍历，互不依赖对方实现。
package milp

import (
	"fmt"
	"math"
)

// ColID 列编号（从0开始）
type ColID int32

// VarKind 变量类型
type VarKind uint8

const (
	// Binary 0/1 变量
	Binary VarKind = iota
	// Continuous 连续变量
	Continuous
)

// Column 一列（决策变量）
type Column struct {
	Name      string  `json:"name"`
	Kind      VarKind `json:"kind"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"` // +Inf 表示无上界
	Objective float64 `json:"objective"`
}

// Sense 行的关系方向
type Sense uint8

const (
	// Equal 等式
	Equal Sense = iota
	// LessEqual 小于等于
	LessEqual
	// GreaterEqual 大于等于
	GreaterEqual
)

// String 返回关系符号
func (s Sense) String() string {
	switch s {
	case Equal:
		return "="
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// Term 线性项
type Term struct {
	Col  ColID   `json:"col"`
	Coef float64 `json:"coef"`
}

// Expr 线性表达式
type Expr struct {
	Terms []Term `json:"terms"`
}

// Add 追加一项
func (e *Expr) Add(col ColID, coef float64) {
	e.Terms = append(e.Terms, Term{Col: col, Coef: coef})
}

// Row 一行（线性约束）
type Row struct {
	Name  string  `json:"name"`
	Terms []Term  `json:"terms"`
	Sense Sense   `json:"sense"`
	RHS   float64 `json:"rhs"`
}

// Model 完整的线性模型。所有状态由显式持有它的构建上下文拥有，
// 不存在包级可变单例。
type Model struct {
	Name string

	cols      []Column
	rows      []Row
	colByName map[string]ColID
}

// NewModel 创建空模型
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		colByName: make(map[string]ColID),
	}
}

// AddBinary 添加0/1变量列。列名必须与索引元组构成双射，重名即报错。
func (m *Model) AddBinary(name string) (ColID, error) {
	return m.addColumn(Column{Name: name, Kind: Binary, Lower: 0, Upper: 1})
}

// AddContinuous 添加连续变量列
func (m *Model) AddContinuous(name string, lower, upper float64) (ColID, error) {
	return m.addColumn(Column{Name: name, Kind: Continuous, Lower: lower, Upper: upper})
}

func (m *Model) addColumn(col Column) (ColID, error) {
	if col.Name == "" {
		return 0, fmt.Errorf("列名不能为空")
	}
	if _, exists := m.colByName[col.Name]; exists {
		return 0, fmt.Errorf("列名重复: %s", col.Name)
	}
	id := ColID(len(m.cols))
	m.cols = append(m.cols, col)
	m.colByName[col.Name] = id
	return id, nil
}

// SetObjective 设置某列的目标系数
func (m *Model) SetObjective(col ColID, coef float64) error {
	if int(col) < 0 || int(col) >= len(m.cols) {
		return fmt.Errorf("列编号越界: %d", col)
	}
	m.cols[col].Objective = coef
	return nil
}

// AddRow 添加一行约束
func (m *Model) AddRow(name string, terms []Term, sense Sense, rhs float64) error {
	for _, t := range terms {
		if int(t.Col) < 0 || int(t.Col) >= len(m.cols) {
			return fmt.Errorf("约束 %s 引用了越界列: %d", name, t.Col)
		}
	}
	m.rows = append(m.rows, Row{Name: name, Terms: terms, Sense: sense, RHS: rhs})
	return nil
}

// NumCols 列数
func (m *Model) NumCols() int { return len(m.cols) }

// NumRows 行数
func (m *Model) NumRows() int { return len(m.rows) }

// Col 按编号取列；越界返回 nil
func (m *Model) Col(id ColID) *Column {
	if int(id) < 0 || int(id) >= len(m.cols) {
		return nil
	}
	return &m.cols[id]
}

// ColByName 按列名取编号
func (m *Model) ColByName(name string) (ColID, bool) {
	id, ok := m.colByName[name]
	return id, ok
}

// Cols 只读遍历全部列
func (m *Model) Cols() []Column { return m.cols }

// Rows 只读遍历全部行
func (m *Model) Rows() []Row { return m.rows }

// Status 求解状态
type Status uint8

const (
	// StatusUnknown 未知（求解中断或无法判定）
	StatusUnknown Status = iota
	// StatusOptimal 已证明最优
	StatusOptimal
	// StatusFeasible 找到可行解但未证明最优
	StatusFeasible
	// StatusInfeasible 无可行解
	StatusInfeasible
	// StatusUnbounded 无界
	StatusUnbounded
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Solution 求解结果：状态、目标值与全部变量的扁平取值表。
// 取值表以列名为键，这是求解边界唯一使用名字的地方。
type Solution struct {
	Status    Status             `json:"status"`
	Objective float64            `json:"objective"`
	Values    map[string]float64 `json:"values"`
}

// Feasible 是否存在可用的解
func (s *Solution) Feasible() bool {
	return s.Status == StatusOptimal || s.Status == StatusFeasible
}

// Value 按列名取值
func (s *Solution) Value(name string) (float64, bool) {
	v, ok := s.Values[name]
	return v, ok
}

// Threshold 浮点→布尔判定。求解器返回的二值变量带有浮点余差
// （如 0.999997 或 1e-6），所有二值判定统一经过这一个函数。
type Threshold struct {
	cutoff float64
}

// NewThreshold 创建指定判定点的判定器
func NewThreshold(cutoff float64) Threshold {
	return Threshold{cutoff: cutoff}
}

// DefaultThreshold 默认在 0.5 处判定
var DefaultThreshold = NewThreshold(0.5)

// Active 判定取值是否视为1
func (t Threshold) Active(value float64) bool {
	return value >= t.cutoff
}

// Inf 正无穷（连续变量的默认上界）
var Inf = math.Inf(1)
