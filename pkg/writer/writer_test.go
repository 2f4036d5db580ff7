package writer

import (
	"strings"
	"testing"
	"time"

	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/model"
)

func calendarInstance(year int, month time.Month, n int) *model.Instance {
	ins := model.NewInstance(year, month)
	ins.Personnel = n
	ins.Sections = 1
	ins.Shifts = 2
	return ins
}

func TestBuildTableMondayStart(t *testing.T) {
	// 2019年4月1日是星期一，30天占5个周行
	ins := calendarInstance(2019, time.April, 2)
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}
	roster.Cell(1, 2).OnLeave = true
	roster.Cell(1, 8).Duty = &model.Duty{Section: 1, Shift: 2}
	roster.Cell(1, 30).Duty = &model.Duty{Section: 1, Shift: 1}

	table := BuildTable(roster)
	if len(table.Blocks) != 2 {
		t.Fatalf("人员块数 = %d, 期望 2", len(table.Blocks))
	}

	b := table.Blocks[0]
	if b.Label != "P1" {
		t.Errorf("标签 = %s, 期望 P1", b.Label)
	}
	if len(b.Rows) != 5 {
		t.Fatalf("周行数 = %d, 期望 5", len(b.Rows))
	}
	if got := b.Rows[0][0]; got != "1(1)" {
		t.Errorf("第1天 = %q, 期望 1(1)", got)
	}
	if got := b.Rows[0][1]; got != "X" {
		t.Errorf("第2天 = %q, 期望 X", got)
	}
	if got := b.Rows[1][0]; got != "1(2)" {
		t.Errorf("第8天 = %q, 期望 1(2)", got)
	}
	if got := b.Rows[4][1]; got != "1(1)" {
		t.Errorf("第30天 = %q, 期望 1(1)", got)
	}
	if got := b.Rows[4][2]; got != "" {
		t.Errorf("月末之后应为空白, 实际 %q", got)
	}
	if b.Day != 2 || b.Night != 1 {
		t.Errorf("白班/夜班 = %d/%d, 期望 2/1", b.Day, b.Night)
	}

	empty := table.Blocks[1]
	if empty.Day != 0 || empty.Night != 0 {
		t.Errorf("未排班人员的班数应为0, 实际 %d/%d", empty.Day, empty.Night)
	}
}

func TestBuildTableOffsetMonth(t *testing.T) {
	// 2019年5月1日是星期三，首行前两列空白
	ins := calendarInstance(2019, time.May, 1)
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}
	roster.Cell(1, 31).OnLeave = true

	table := BuildTable(roster)
	b := table.Blocks[0]
	if len(b.Rows) != 5 {
		t.Fatalf("周行数 = %d, 期望 5", len(b.Rows))
	}
	if b.Rows[0][0] != "" || b.Rows[0][1] != "" {
		t.Errorf("月初偏移列应为空白, 实际 %q %q", b.Rows[0][0], b.Rows[0][1])
	}
	if got := b.Rows[0][2]; got != "1(1)" {
		t.Errorf("第1天应落在星期三列, 实际 %q", got)
	}
	if got := b.Rows[4][4]; got != "X" {
		t.Errorf("第31天 = %q, 期望 X", got)
	}
}

func TestFormatCSV(t *testing.T) {
	ins := calendarInstance(2019, time.April, 1)
	roster := model.NewRoster(ins)
	roster.Cell(1, 1).Duty = &model.Duty{Section: 1, Shift: 1}

	out := FormatCSV(roster)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+5 {
		t.Fatalf("行数 = %d, 期望 6", len(lines))
	}
	wantHeader := "Personnel,Monday,Tuesday,Wednesday,Thursday,Friday,Saturday,Sunday,Day,Night"
	if lines[0] != wantHeader {
		t.Errorf("表头 = %s", lines[0])
	}
	if lines[1] != "P1,1(1),,,,,,,1,0" {
		t.Errorf("首行 = %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], ",") {
		t.Errorf("续行应以空人员列开头: %s", lines[2])
	}
	if !strings.HasSuffix(lines[2], ",,") {
		t.Errorf("续行的班数列应为空: %s", lines[2])
	}
}

func TestFormatText(t *testing.T) {
	ins := calendarInstance(2019, time.April, 1)
	roster := model.NewRoster(ins)
	roster.Cell(1, 3).OnLeave = true

	out := FormatText(roster)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1+5 {
		t.Fatalf("行数 = %d, 期望 6", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Personnel") {
		t.Errorf("表头 = %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "P1") {
		t.Errorf("首行 = %s", lines[1])
	}
	if !strings.Contains(lines[1], "X") {
		t.Errorf("首行应包含休假标记: %s", lines[1])
	}
}

func TestFormatJSON(t *testing.T) {
	ins := calendarInstance(2019, time.April, 1)
	roster := model.NewRoster(ins)

	out, err := FormatJSON(roster)
	if err != nil {
		t.Fatalf("JSON 输出失败: %v", err)
	}
	if !strings.Contains(out, "\"label\": \"P1\"") {
		t.Errorf("JSON 缺少人员标签: %s", out)
	}
}

func TestAuditCSV(t *testing.T) {
	m := milp.NewModel("audit")
	m.AddBinary("X_1_1_1_1")
	m.AddContinuous("dminus_3_1", 0, milp.Inf)
	sol := &milp.Solution{
		Status: milp.StatusOptimal,
		Values: map[string]float64{"X_1_1_1_1": 1, "dminus_3_1": 2.5},
	}

	out := AuditCSV(m, sol)
	want := "variable,value\nX_1_1_1_1,1\ndminus_3_1,2.5\n"
	if out != want {
		t.Errorf("审计表 = %q, 期望 %q", out, want)
	}
}
