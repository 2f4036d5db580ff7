package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/lunban/lunban/pkg/milp"
)

// termsPerLine 约束行过长时按固定项数折行，避免超出 LP 格式的行长限制
const termsPerLine = 8

// WriteLP 以 CPLEX LP 格式写出模型，供命令行求解器读取。
// 列名即变量的对外标识，求解结果按同名往返。
func WriteLP(w io.Writer, m *milp.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\* %s *\\\n", m.Name)
	fmt.Fprintln(bw, "Minimize")
	writeObjective(bw, m)

	fmt.Fprintln(bw, "Subject To")
	for _, row := range m.Rows() {
		writeRow(bw, m, &row)
	}

	writeBounds(bw, m)
	writeBinaries(bw, m)

	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

func writeObjective(bw *bufio.Writer, m *milp.Model) {
	fmt.Fprint(bw, " obj:")
	count := 0
	for _, col := range m.Cols() {
		if col.Objective == 0 {
			continue
		}
		if count > 0 && count%termsPerLine == 0 {
			fmt.Fprint(bw, "\n     ")
		}
		fmt.Fprintf(bw, " %s %s", signedCoef(col.Objective), col.Name)
		count++
	}
	if count == 0 {
		fmt.Fprint(bw, " 0")
	}
	fmt.Fprintln(bw)
}

func writeRow(bw *bufio.Writer, m *milp.Model, row *milp.Row) {
	fmt.Fprintf(bw, " %s:", row.Name)
	for i, t := range row.Terms {
		if i > 0 && i%termsPerLine == 0 {
			fmt.Fprint(bw, "\n     ")
		}
		fmt.Fprintf(bw, " %s %s", signedCoef(t.Coef), m.Col(t.Col).Name)
	}
	fmt.Fprintf(bw, " %s %s\n", row.Sense, trimFloat(row.RHS))
}

// writeBounds 只为偏离默认界（下界0、上界无穷）的连续列写界
func writeBounds(bw *bufio.Writer, m *milp.Model) {
	header := false
	for _, col := range m.Cols() {
		if col.Kind != milp.Continuous {
			continue
		}
		if col.Lower == 0 && math.IsInf(col.Upper, 1) {
			continue
		}
		if !header {
			fmt.Fprintln(bw, "Bounds")
			header = true
		}
		switch {
		case math.IsInf(col.Lower, -1) && math.IsInf(col.Upper, 1):
			fmt.Fprintf(bw, " %s free\n", col.Name)
		case math.IsInf(col.Upper, 1):
			fmt.Fprintf(bw, " %s >= %s\n", col.Name, trimFloat(col.Lower))
		case math.IsInf(col.Lower, -1):
			fmt.Fprintf(bw, " %s <= %s\n", col.Name, trimFloat(col.Upper))
		default:
			fmt.Fprintf(bw, " %s <= %s <= %s\n", trimFloat(col.Lower), col.Name, trimFloat(col.Upper))
		}
	}
}

func writeBinaries(bw *bufio.Writer, m *milp.Model) {
	header := false
	count := 0
	for _, col := range m.Cols() {
		if col.Kind != milp.Binary {
			continue
		}
		if !header {
			fmt.Fprintln(bw, "Binary")
			header = true
		}
		if count > 0 && count%termsPerLine == 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, " %s", col.Name)
		count++
	}
	if header {
		fmt.Fprintln(bw)
	}
}

// signedCoef 把系数写成带显式符号的形式
func signedCoef(c float64) string {
	if c < 0 {
		return "- " + trimFloat(-c)
	}
	return "+ " + trimFloat(c)
}

// trimFloat 去掉无意义的小数位
func trimFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
