// Package writer 把解码后的花名册渲染成日历式报表。
// 布局与护理部沿用的月度排班表一致：每人占连续若干周行，
// 列为星期一至星期日，行内按当月1号的星期偏移排布日期，
// 末两列为该人当月白班与夜班天数。
package writer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lunban/lunban/pkg/model"
)

// PersonBlock 一名人员在日历表中的整块行
type PersonBlock struct {
	Label string     `json:"label"` // P1, P2, …
	Rows  [][]string `json:"rows"`  // 每周一行，7列
	Day   int        `json:"day"`   // 白班天数
	Night int        `json:"night"` // 夜班天数
}

// Table 日历式排班表
type Table struct {
	Header []string      `json:"header"`
	Blocks []PersonBlock `json:"blocks"`
}

// BuildTable 把花名册排布成日历表。
// 首行自当月1号的星期列开始，日期逐列推进、逐行换周。
func BuildTable(roster *model.Roster) *Table {
	ins := roster.Instance
	rowsPerPerson := ins.RowsPerPerson()
	firstWeekday := ins.FirstWeekday()
	dayTallies := roster.DayShiftTallies()
	nightTallies := roster.NightShiftTallies()

	header := make([]string, 0, len(model.Weekdays)+3)
	header = append(header, "Personnel")
	header = append(header, model.Weekdays[:]...)
	header = append(header, "Day", "Night")

	t := &Table{Header: header}
	for i := 1; i <= ins.Personnel; i++ {
		block := PersonBlock{
			Label: fmt.Sprintf("P%d", i),
			Day:   dayTallies[i],
			Night: nightTallies[i],
		}
		day := 1
		for row := 0; row < rowsPerPerson; row++ {
			cells := make([]string, len(model.Weekdays))
			for col := range cells {
				if row == 0 && col < firstWeekday {
					continue
				}
				if day > ins.Days {
					break
				}
				cells[col] = roster.Cell(i, day).Text()
				day++
			}
			block.Rows = append(block.Rows, cells)
		}
		t.Blocks = append(t.Blocks, block)
	}
	return t
}

// FormatCSV 返回日历表的CSV文本。
// 人员标签与白班夜班天数只落在每块的首行，对应合并单元格。
func FormatCSV(roster *model.Roster) string {
	t := BuildTable(roster)
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write(t.Header)
	for _, block := range t.Blocks {
		for r, cells := range block.Rows {
			record := make([]string, 0, len(t.Header))
			if r == 0 {
				record = append(record, block.Label)
			} else {
				record = append(record, "")
			}
			record = append(record, cells...)
			if r == 0 {
				record = append(record, fmt.Sprintf("%d", block.Day), fmt.Sprintf("%d", block.Night))
			} else {
				record = append(record, "", "")
			}
			w.Write(record)
		}
	}
	w.Flush()
	return sb.String()
}

// FormatText 返回定宽文本版日历表
func FormatText(roster *model.Roster) string {
	t := BuildTable(roster)
	var sb strings.Builder

	for _, h := range t.Header {
		fmt.Fprintf(&sb, "%-10s", h)
	}
	sb.WriteString("\n")

	for _, block := range t.Blocks {
		for r, cells := range block.Rows {
			if r == 0 {
				fmt.Fprintf(&sb, "%-10s", block.Label)
			} else {
				fmt.Fprintf(&sb, "%-10s", "")
			}
			for _, c := range cells {
				fmt.Fprintf(&sb, "%-10s", c)
			}
			if r == 0 {
				fmt.Fprintf(&sb, "%-10d%-10d", block.Day, block.Night)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatJSON 返回日历表的JSON文本
func FormatJSON(roster *model.Roster) (string, error) {
	t := BuildTable(roster)
	out, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
