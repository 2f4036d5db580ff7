package solver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/milp"
)

// GlpsolSolver 通过 GLPK 的命令行工具 glpsol 求解。
// 模型以 LP 文件落盘交给子进程，结果从 --output 写出的解文件读回，
// 临时文件随求解结束清理。
type GlpsolSolver struct {
	path      string
	timeLimit time.Duration
}

// NewGlpsolSolver 创建 glpsol 适配器，默认从 PATH 查找可执行文件
func NewGlpsolSolver() *GlpsolSolver {
	return &GlpsolSolver{path: "glpsol"}
}

// SetPath 指定 glpsol 可执行文件路径
func (s *GlpsolSolver) SetPath(path string) {
	if path != "" {
		s.path = path
	}
}

// SetTimeLimit 设置求解时限，零值表示不限制。
// 到时后 glpsol 返回当前最优可行解，状态为非最优。
func (s *GlpsolSolver) SetTimeLimit(d time.Duration) {
	s.timeLimit = d
}

// Name 返回求解器名称
func (s *GlpsolSolver) Name() string { return "glpsol" }

// Solve 落盘并调用子进程求解
func (s *GlpsolSolver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	dir, err := os.MkdirTemp("", "lunban-glpsol-*")
	if err != nil {
		return nil, apperrors.SolverFailed(s.Name(), err)
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "model.sol")

	f, err := os.Create(lpPath)
	if err != nil {
		return nil, apperrors.SolverFailed(s.Name(), err)
	}
	if err := WriteLP(f, m); err != nil {
		f.Close()
		return nil, apperrors.SolverFailed(s.Name(), err)
	}
	if err := f.Close(); err != nil {
		return nil, apperrors.SolverFailed(s.Name(), err)
	}

	args := []string{"--lp", lpPath, "--output", solPath}
	if s.timeLimit > 0 {
		secs := int(s.timeLimit / time.Second)
		if secs < 1 {
			secs = 1
		}
		args = append(args, "--tmlim", strconv.Itoa(secs))
	}

	logger.Debug().
		Str("solver", s.Name()).
		Int("columns", m.NumCols()).
		Int("rows", m.NumRows()).
		Msg("调用外部求解器")

	cmd := exec.CommandContext(ctx, s.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, apperrors.New(apperrors.CodeSolverUnavailable,
				fmt.Sprintf("找不到求解器可执行文件: %s", s.path)).WithCause(err)
		}
		return nil, apperrors.SolverFailed(s.Name(), fmt.Errorf("%w: %s", err, lastLine(&stderr)))
	}

	sf, err := os.Open(solPath)
	if err != nil {
		// 个别版本判定无可行解后不写解文件，从求解日志兜底判定
		if logIndicatesInfeasible(stdout.String()) {
			return &milp.Solution{Status: milp.StatusInfeasible, Values: map[string]float64{}}, nil
		}
		return nil, apperrors.SolverFailed(s.Name(), err)
	}
	defer sf.Close()

	sol, err := parseGlpsolOutput(sf)
	if err != nil {
		return nil, apperrors.SolverFailed(s.Name(), err)
	}
	return sol, nil
}

type solSection uint8

const (
	sectionNone solSection = iota
	sectionRows
	sectionColumns
)

// parseGlpsolOutput 解析 glpsol --output 写出的解文件。
// 只消费列段：取每列的活动值；列名超宽时值折到下一行，需两行拼一条。
func parseGlpsolOutput(r io.Reader) (*milp.Solution, error) {
	sol := &milp.Solution{Status: milp.StatusUnknown, Values: make(map[string]float64)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	section := sectionNone
	pending := ""
	for sc.Scan() {
		trimmed := strings.TrimSpace(sc.Text())

		switch {
		case strings.HasPrefix(trimmed, "Status:"):
			sol.Status = parseSolutionStatus(strings.TrimPrefix(trimmed, "Status:"))
			continue
		case strings.HasPrefix(trimmed, "Objective:"):
			if v, ok := parseObjectiveLine(trimmed); ok {
				sol.Objective = v
			}
			continue
		}

		if strings.HasPrefix(trimmed, "No.") {
			switch {
			case strings.Contains(trimmed, "Column name"):
				section = sectionColumns
			case strings.Contains(trimmed, "Row name"):
				section = sectionRows
			}
			pending = ""
			continue
		}
		if section != sectionColumns || trimmed == "" || strings.HasPrefix(trimmed, "---") {
			continue
		}

		fields := strings.Fields(trimmed)
		if pending != "" {
			if v, ok := firstNumber(fields); ok {
				sol.Values[pending] = v
			}
			pending = ""
			continue
		}
		if len(fields) < 2 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		name := fields[1]
		if v, ok := firstNumber(fields[2:]); ok {
			sol.Values[name] = v
		} else {
			pending = name
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sol, nil
}

// firstNumber 返回首个可解析为数值的字段，跳过基状态等字母标记
func firstNumber(fields []string) (float64, bool) {
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func parseObjectiveLine(line string) (float64, bool) {
	fields := strings.Fields(line)
	for i, f := range fields {
		if f == "=" && i+1 < len(fields) {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			return v, err == nil
		}
	}
	return 0, false
}

func parseSolutionStatus(s string) milp.Status {
	u := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(u, "EMPTY"), strings.Contains(u, "INFEASIBLE"):
		return milp.StatusInfeasible
	case strings.Contains(u, "UNBOUNDED"):
		return milp.StatusUnbounded
	case strings.Contains(u, "NON-OPTIMAL"):
		return milp.StatusFeasible
	case strings.Contains(u, "OPTIMAL"):
		return milp.StatusOptimal
	case strings.Contains(u, "FEASIBLE"):
		return milp.StatusFeasible
	default:
		return milp.StatusUnknown
	}
}

func logIndicatesInfeasible(log string) bool {
	u := strings.ToUpper(log)
	return strings.Contains(u, "NO PRIMAL FEASIBLE SOLUTION") ||
		strings.Contains(u, "NO INTEGER FEASIBLE SOLUTION") ||
		strings.Contains(u, "PROBLEM HAS NO FEASIBLE SOLUTION")
}

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
