package writer

import (
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/lunban/lunban/pkg/milp"
)

// AuditCSV 输出全部变量名与最终取值的原始审计表，按模型列序排列。
// 取值表中缺失的列按0计。
func AuditCSV(m *milp.Model, sol *milp.Solution) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"variable", "value"})
	for _, col := range m.Cols() {
		v := sol.Values[col.Name]
		w.Write([]string{col.Name, strconv.FormatFloat(v, 'g', -1, 64)})
	}
	w.Flush()
	return sb.String()
}
