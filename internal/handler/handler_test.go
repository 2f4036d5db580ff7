package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lunban/lunban/internal/config"
	"github.com/lunban/lunban/internal/repository"
	"github.com/lunban/lunban/pkg/milp"
	"github.com/lunban/lunban/pkg/model"
	"github.com/lunban/lunban/pkg/relief"
	"github.com/lunban/lunban/pkg/scheduler/solver"
)

// stubSolver 返回固定状态的求解器替身，取值表为空即全部变量取0
type stubSolver struct {
	status milp.Status
	err    error
}

func (s *stubSolver) Name() string { return "stub" }

func (s *stubSolver) Solve(ctx context.Context, m *milp.Model) (*milp.Solution, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &milp.Solution{Status: s.status, Values: map[string]float64{}}, nil
}

// memRunRepo 内存版运行仓储
type memRunRepo struct {
	runs    map[uuid.UUID]*model.RosterRun
	rosters map[uuid.UUID]*model.Roster
	audits  map[uuid.UUID]string
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{
		runs:    make(map[uuid.UUID]*model.RosterRun),
		rosters: make(map[uuid.UUID]*model.Roster),
		audits:  make(map[uuid.UUID]string),
	}
}

func (m *memRunRepo) Create(ctx context.Context, run *model.RosterRun, ins *model.Instance) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.RosterRun, error) {
	return m.runs[id], nil
}

func (m *memRunRepo) List(ctx context.Context, filter repository.ListFilter) ([]*model.RosterRun, int, error) {
	var out []*model.RosterRun
	for _, run := range m.runs {
		if filter.Department != "" && run.Department != filter.Department {
			continue
		}
		if filter.Status != "" && string(run.Status) != filter.Status {
			continue
		}
		out = append(out, run)
	}
	return out, len(out), nil
}

func (m *memRunRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.runs, id)
	delete(m.rosters, id)
	delete(m.audits, id)
	return nil
}

func (m *memRunRepo) SaveRoster(ctx context.Context, runID uuid.UUID, roster *model.Roster) error {
	m.rosters[runID] = roster
	return nil
}

func (m *memRunRepo) GetRoster(ctx context.Context, runID uuid.UUID) (*model.Roster, error) {
	return m.rosters[runID], nil
}

func (m *memRunRepo) SaveAudit(ctx context.Context, runID uuid.UUID, audit string) error {
	m.audits[runID] = audit
	return nil
}

func (m *memRunRepo) GetAudit(ctx context.Context, runID uuid.UUID) (string, error) {
	return m.audits[runID], nil
}

// memCompetencyRepo 内存版胜任力仓储
type memCompetencyRepo struct {
	tables map[string]*model.Competency
}

func newMemCompetencyRepo() *memCompetencyRepo {
	return &memCompetencyRepo{tables: make(map[string]*model.Competency)}
}

func (m *memCompetencyRepo) Save(ctx context.Context, department string, comp *model.Competency) error {
	m.tables[department] = comp
	return nil
}

func (m *memCompetencyRepo) Get(ctx context.Context, department string, persons, sections int) (*model.Competency, error) {
	if comp, ok := m.tables[department]; ok {
		return comp, nil
	}
	return model.NewCompetency(persons, sections), nil
}

func (m *memCompetencyRepo) Delete(ctx context.Context, department string) error {
	delete(m.tables, department)
	return nil
}

func newTestHandler(t *testing.T, sv solver.Solver) (*Handler, *memRunRepo) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Scheduler.Timeout = 30 * time.Second
	cfg.Scheduler.DecodeThreshold = 0.5

	runs := newMemRunRepo()
	h, err := NewHandler(cfg, sv, runs, newMemCompetencyRepo())
	if err != nil {
		t.Fatalf("NewHandler failed: %v", err)
	}
	h.RegisterRoutes()
	return h, runs
}

func smallInstance() *model.Instance {
	return &model.Instance{
		Year:                2019,
		Month:               time.April,
		Personnel:           2,
		Days:                7,
		Sections:            1,
		Shifts:              1,
		Requirements:        map[int]int{1: 1},
		QualityTargets:      map[int]float64{1: 1},
		WorkloadMin:         0,
		WorkloadMax:         7,
		LeaveWindow:         7,
		LeaveMin:            0,
		LeaveMax:            7,
		TotalWorkloadTarget: 4,
	}
}

// seedRun 预置一条已求解运行：1号每天执勤，2号每天休假
func seedRun(repo *memRunRepo) uuid.UUID {
	ins := smallInstance()
	roster := model.NewRoster(ins)
	for j := 1; j <= ins.Days; j++ {
		roster.Cell(1, j).Duty = &model.Duty{Section: 1, Shift: 1}
		roster.Cell(2, j).OnLeave = true
	}

	run := &model.RosterRun{
		BaseModel:  model.BaseModel{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		Department: "icu",
		SolverName: "stub",
		Status:     model.RunStatusSolved,
		Personnel:  ins.Personnel,
		Days:       ins.Days,
		Sections:   ins.Sections,
		Shifts:     ins.Shifts,
	}
	repo.runs[run.ID] = run
	repo.rosters[run.ID] = roster
	return run.ID
}

func doRequest(h *Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	return rec
}

func TestGenerateSolved(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	rec := doRequest(h, "POST", "/api/v1/roster/generate",
		`{"department":"icu","year":2019,"month":4,"policy":"clinic"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Status != string(model.RunStatusSolved) {
		t.Errorf("Status = %q, 期望 solved", resp.Status)
	}
	if resp.Solver != "stub" {
		t.Errorf("Solver = %q, 期望 stub", resp.Solver)
	}
	if resp.Personnel != 8 || resp.Sections != 1 || resp.Shifts != 2 {
		t.Errorf("维度 = (%d, %d, %d), 期望 clinic 预设 (8, 1, 2)",
			resp.Personnel, resp.Sections, resp.Shifts)
	}
	if len(resp.Summaries) != 8 {
		t.Errorf("Summaries 长度 = %d, 期望 8", len(resp.Summaries))
	}

	id, err := uuid.Parse(resp.RunID)
	if err != nil {
		t.Fatalf("运行ID不是合法UUID: %q", resp.RunID)
	}
	if repo.runs[id] == nil {
		t.Error("运行记录未入库")
	}
	if repo.rosters[id] == nil {
		t.Error("花名册未入库")
	}
	if repo.audits[id] == "" {
		t.Error("审计表未入库")
	}
}

func TestGenerateInfeasible(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusInfeasible})

	rec := doRequest(h, "POST", "/api/v1/roster/generate",
		`{"department":"icu","year":2019,"month":4,"policy":"clinic"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, 期望 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NO_FEASIBLE_SOLUTION") {
		t.Errorf("响应应携带错误码, body = %s", rec.Body.String())
	}

	if len(repo.runs) != 1 {
		t.Fatalf("失败运行应入库, 库中 %d 条", len(repo.runs))
	}
	for _, run := range repo.runs {
		if run.Status != model.RunStatusInfeasible {
			t.Errorf("运行状态 = %q, 期望 infeasible", run.Status)
		}
	}
}

func TestGenerateBadMonth(t *testing.T) {
	h, _ := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	rec := doRequest(h, "POST", "/api/v1/roster/generate",
		`{"year":2019,"month":13}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, 期望 400", rec.Code)
	}
}

func TestGenerateUnknownPolicy(t *testing.T) {
	h, _ := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	rec := doRequest(h, "POST", "/api/v1/roster/generate",
		`{"year":2019,"month":4,"policy":"nonexistent"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, 期望 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "未知策略预设") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestValidateRosterDirect(t *testing.T) {
	h, _ := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	reqBody := ValidateRosterRequest{
		Instance: smallInstance(),
		Cells: []CellInput{
			{Person: 1, Day: 1, OnLeave: true, Section: 1, Shift: 1},
		},
		Checks: &CheckOptions{
			Coverage:  boolPtr(false),
			Bands:     boolPtr(false),
			NightRest: boolPtr(false),
		},
	}
	buf, _ := json.Marshal(reqBody)

	rec := doRequest(h, "POST", "/api/v1/roster/validate", string(buf))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ValidateRosterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Valid {
		t.Error("休假与执勤同时生效应判定为无效")
	}
	found := false
	for _, c := range resp.Conflicts {
		if c.Type == "exclusivity" {
			found = true
		}
	}
	if !found {
		t.Errorf("应报出互斥冲突, conflicts = %+v", resp.Conflicts)
	}
}

func TestValidateRosterByRunID(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	rec := doRequest(h, "POST", "/api/v1/roster/validate",
		`{"run_id":"`+id.String()+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp ValidateRosterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !resp.Valid {
		t.Errorf("预置花名册应通过验证, conflicts = %+v", resp.Conflicts)
	}
}

func TestValidateRosterMissingSource(t *testing.T) {
	h, _ := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	rec := doRequest(h, "POST", "/api/v1/roster/validate", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, 期望 400", rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	seedRun(repo)

	other := &model.RosterRun{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Department: "ward",
		Status:     model.RunStatusSolved,
	}
	repo.runs[other.ID] = other

	rec := doRequest(h, "GET", "/api/v1/roster/runs?department=icu", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp ListRunsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Total != 1 || len(resp.Runs) != 1 {
		t.Errorf("total = %d, runs = %d, 期望各1", resp.Total, len(resp.Runs))
	}
	if len(resp.Runs) > 0 && resp.Runs[0].Department != "icu" {
		t.Errorf("Department = %q, 期望 icu", resp.Runs[0].Department)
	}
}

func TestGetRun(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp RunDetailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Run == nil || resp.Run.ID != id {
		t.Error("响应应携带运行记录")
	}
	if len(resp.Summaries) != 2 {
		t.Errorf("Summaries 长度 = %d, 期望 2", len(resp.Summaries))
	}

	rec = doRequest(h, "GET", "/api/v1/roster/runs/"+uuid.New().String(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("不存在的运行应返回404, got %d", rec.Code)
	}
}

func TestDeleteRun(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	rec := doRequest(h, "DELETE", "/api/v1/roster/runs/"+id.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(repo.runs) != 0 {
		t.Error("运行记录应被删除")
	}

	rec = doRequest(h, "DELETE", "/api/v1/roster/runs/"+id.String(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("重复删除应返回404, got %d", rec.Code)
	}
}

func TestGetRunTable(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/table?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Personnel") || !strings.Contains(body, "Monday") {
		t.Errorf("CSV缺少表头: %s", body)
	}
	if !strings.Contains(body, "1(1)") {
		t.Error("CSV应包含执勤单元格 1(1)")
	}

	rec = doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/table", "")
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("默认格式 Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "P1") {
		t.Error("文本表应包含人员标签 P1")
	}
}

func TestGetRunAudit(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	// 未保存审计表
	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/audit", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("无审计数据应返回404, got %d", rec.Code)
	}

	repo.audits[id] = "name,value\nX_1_1_1_1,1\n"
	rec = doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/audit", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "X_1_1_1_1") {
		t.Error("审计响应应包含变量行")
	}
}

func TestGetRunStats(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp RunStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Coverage == nil || resp.Fairness == nil {
		t.Fatal("统计响应应同时携带覆盖率与公平性指标")
	}
	// 预置花名册：1号全勤，需求每天1人，覆盖率100%
	if resp.Coverage.OverallCoverage != 100 {
		t.Errorf("OverallCoverage = %.1f, 期望 100", resp.Coverage.OverallCoverage)
	}

	rec = doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/stats?format=text", "")
	if !strings.Contains(rec.Body.String(), "排班覆盖率报告") {
		t.Error("文本格式应输出覆盖率报告")
	}
}

func TestGetCatalog(t *testing.T) {
	h, _ := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	rec := doRequest(h, "GET", "/api/v1/constraints/catalog", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Catalog []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
		} `json:"catalog"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(resp.Catalog) != 10 {
		t.Errorf("目录条目 = %d, 期望 10", len(resp.Catalog))
	}
}

func TestListPolicies(t *testing.T) {
	h, _ := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})

	rec := doRequest(h, "GET", "/api/v1/policies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp ListPoliciesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	names := make([]string, 0, len(resp.Policies))
	for _, p := range resp.Policies {
		names = append(names, p.Name)
	}
	found := false
	for _, name := range names {
		if name == "hospital" {
			found = true
		}
	}
	if !found {
		t.Errorf("预设列表应包含 hospital, got %v", names)
	}
}

func TestGetRunRelief(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)
	// 2号第3天解除休假，成为唯一可行的顶班人选
	repo.rosters[id].Cell(2, 3).OnLeave = false

	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/relief?day=3&section=1&shift=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp relief.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !resp.Success {
		t.Fatalf("应找到顶班人选, reason = %s", resp.Reason)
	}
	if resp.BestMatch == nil {
		t.Fatal("响应应携带最佳人选")
	}
	if resp.BestMatch.Person != 2 || !resp.BestMatch.Feasible {
		t.Errorf("BestMatch = %+v, 期望可行的2号", resp.BestMatch)
	}
}

func TestGetRunReliefNoFeasible(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	// 1号在岗、2号休假，无人可顶
	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/relief?day=3&section=1&shift=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp relief.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Success {
		t.Error("全员不可用时不应给出推荐")
	}
	if len(resp.Alternatives) != 2 {
		t.Errorf("候选数 = %d, 期望 2 条不可行候选", len(resp.Alternatives))
	}
	for _, alt := range resp.Alternatives {
		if alt.Feasible || len(alt.Violations) == 0 {
			t.Errorf("候选 %d 应不可行并附违规原因: %+v", alt.Person, alt)
		}
	}
}

func TestGetRunReliefBadParams(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	for _, qs := range []string{"", "?day=0&section=1&shift=1", "?day=3&shift=1", "?day=3&section=1&shift=x"} {
		rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/relief"+qs, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%q: status = %d, 期望 400", qs, rec.Code)
		}
	}

	// 坐标超出实例范围由业务层拒绝
	rec := doRequest(h, "GET", "/api/v1/roster/runs/"+id.String()+"/relief?day=9&section=1&shift=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp relief.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Success || resp.Reason == "" {
		t.Errorf("越界坐标应拒绝并说明原因: %+v", resp)
	}

	rec = doRequest(h, "GET", "/api/v1/roster/runs/"+uuid.New().String()+"/relief?day=3&section=1&shift=1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("不存在的运行应返回404, got %d", rec.Code)
	}
}

func TestEvaluateSwapsRecommend(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)
	repo.rosters[id].Cell(2, 3).OnLeave = false

	rec := doRequest(h, "POST", "/api/v1/roster/runs/"+id.String()+"/swaps",
		`{"person":1,"day":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SwapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Mode != "recommend" {
		t.Errorf("Mode = %q, 期望 recommend", resp.Mode)
	}
	if len(resp.Recommendations) != 1 {
		t.Fatalf("推荐数 = %d, 期望 1, body = %s", len(resp.Recommendations), rec.Body.String())
	}
	r0 := resp.Recommendations[0]
	if r0.Target != 2 || r0.SwapType != "take_over" || r0.Rank != 1 {
		t.Errorf("推荐 = %+v", r0)
	}
	// 接班后双方各有执勤且无新增冲突，得分封顶
	if r0.Score != 100 {
		t.Errorf("Score = %v, 期望 100", r0.Score)
	}
}

func TestEvaluateSwapsEvaluate(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)
	repo.rosters[id].Cell(2, 3).OnLeave = false

	rec := doRequest(h, "POST", "/api/v1/roster/runs/"+id.String()+"/swaps",
		`{"person":1,"day":3,"target":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SwapResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Mode != "evaluate" || resp.Evaluation == nil {
		t.Fatalf("应返回评估结果: %+v", resp)
	}
	eval := resp.Evaluation
	if !eval.Feasible {
		t.Fatalf("接班应可行, issues = %+v", eval.Issues)
	}
	if eval.Score != 100 {
		t.Errorf("Score = %v, 期望 100", eval.Score)
	}
	if eval.Impact.SourceDutyChange != -1 || eval.Impact.TargetDutyChange != 1 {
		t.Errorf("班数变化 = (%d, %d), 期望 (-1, +1)",
			eval.Impact.SourceDutyChange, eval.Impact.TargetDutyChange)
	}
	if eval.Impact.NewConflicts != 0 {
		t.Errorf("NewConflicts = %d, 期望 0", eval.Impact.NewConflicts)
	}

	// 接替人仍在休假的日子，评估应报硬性问题
	rec = doRequest(h, "POST", "/api/v1/roster/runs/"+id.String()+"/swaps",
		`{"person":1,"day":1,"target":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Evaluation == nil || resp.Evaluation.Feasible {
		t.Fatalf("接替人休假日应不可行: %+v", resp.Evaluation)
	}
	if len(resp.Evaluation.Issues) == 0 || resp.Evaluation.Issues[0].Type != "target_on_leave" {
		t.Errorf("Issues = %+v, 期望 target_on_leave", resp.Evaluation.Issues)
	}
}

func TestEvaluateSwapsInvalid(t *testing.T) {
	h, repo := newTestHandler(t, &stubSolver{status: milp.StatusOptimal})
	id := seedRun(repo)

	// 互换缺少接替人
	rec := doRequest(h, "POST", "/api/v1/roster/runs/"+id.String()+"/swaps",
		`{"person":1,"day":3,"exchange_day":4}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, 期望 400", rec.Code)
	}

	// 缺少必填字段
	rec = doRequest(h, "POST", "/api/v1/roster/runs/"+id.String()+"/swaps", `{"day":3}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, 期望 400", rec.Code)
	}

	// 不存在的运行
	rec = doRequest(h, "POST", "/api/v1/roster/runs/"+uuid.New().String()+"/swaps",
		`{"person":1,"day":3}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, 期望 404", rec.Code)
	}

	// 有运行记录但无花名册
	failed := &model.RosterRun{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		Department: "icu",
		Status:     model.RunStatusInfeasible,
	}
	repo.runs[failed.ID] = failed
	rec = doRequest(h, "POST", "/api/v1/roster/runs/"+failed.ID.String()+"/swaps",
		`{"person":1,"day":3}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, 期望 404", rec.Code)
	}
}

func boolPtr(b bool) *bool { return &b }
