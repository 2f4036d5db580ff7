// Package solver 提供线性模型的求解适配器。
// 适配器只消费装配完成的模型并返回终态结果，
// 不感知排班语义，也不重试或放松约束。
package solver

import (
	"context"

	"github.com/lunban/lunban/pkg/milp"
)

// Solver 求解器接口。无可行解不是适配器层错误，
// 以 Solution.Status 报出，由调用方决定如何呈现；
// error 只用于进程级故障（不可用、执行失败、解文件损坏）。
type Solver interface {
	// Solve 求解模型
	Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error)

	// Name 返回求解器名称
	Name() string
}
