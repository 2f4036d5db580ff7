package optimizer

import (
	"math/rand"
	"testing"

	"github.com/lunban/lunban/pkg/milp"
)

func TestTrySwapPreservesRowSum(t *testing.T) {
	m := milp.NewModel("test")
	var terms []milp.Term
	ids := make([]milp.ColID, 4)
	names := []string{"X_1_1_1_1", "X_2_1_1_1", "X_3_1_1_1", "X_4_1_1_1"}
	for i, name := range names {
		id, _ := m.AddBinary(name)
		ids[i] = id
		terms = append(terms, milp.Term{Col: id, Coef: 1})
	}
	if err := m.AddRow("cover_1_1_1", terms, milp.Equal, 2); err != nil {
		t.Fatal(err)
	}

	ev, err := newEvaluator(m, 1e6)
	if err != nil {
		t.Fatalf("装配评估器失败: %v", err)
	}
	nb := newNeighborhood(ev, rand.New(rand.NewSource(3)))

	p := ev.newPoint()
	p[ids[0]], p[ids[1]] = 1, 1
	for i := 0; i < 20; i++ {
		if !nb.trySwap(p) {
			t.Fatalf("第 %d 次交换失败", i)
		}
		sum := 0.0
		for _, id := range ids {
			if p[id] != 0 && p[id] != 1 {
				t.Fatalf("第 %d 次交换后出现非 0/1 取值 %v", i, p[id])
			}
			sum += p[id]
		}
		if sum != 2 {
			t.Fatalf("第 %d 次交换后行活动值 = %v, 期望 2", i, sum)
		}
	}
}

func TestTrySwapUniformRow(t *testing.T) {
	// 行内取值全同时放弃交换
	m := milp.NewModel("test")
	x1, _ := m.AddBinary("X_1_1_1_1")
	x2, _ := m.AddBinary("X_2_1_1_1")
	terms := []milp.Term{{Col: x1, Coef: 1}, {Col: x2, Coef: 1}}
	if err := m.AddRow("cover_1_1_1", terms, milp.Equal, 1); err != nil {
		t.Fatal(err)
	}

	ev, err := newEvaluator(m, 1e6)
	if err != nil {
		t.Fatalf("装配评估器失败: %v", err)
	}
	nb := newNeighborhood(ev, rand.New(rand.NewSource(3)))

	p := ev.newPoint()
	if nb.trySwap(p) {
		t.Error("全零行不应交换成功")
	}
	p[x1], p[x2] = 1, 1
	if nb.trySwap(p) {
		t.Error("全一行不应交换成功")
	}
}

func TestNeighborhoodBatch(t *testing.T) {
	m := milp.NewModel("test")
	x1, _ := m.AddBinary("X_1_1_1_1")
	x2, _ := m.AddBinary("X_2_1_1_1")
	terms := []milp.Term{{Col: x1, Coef: 1}, {Col: x2, Coef: 1}}
	if err := m.AddRow("cover_1_1_1", terms, milp.Equal, 1); err != nil {
		t.Fatal(err)
	}

	ev, err := newEvaluator(m, 1e6)
	if err != nil {
		t.Fatalf("装配评估器失败: %v", err)
	}
	nb := newNeighborhood(ev, rand.New(rand.NewSource(5)))

	current := ev.newPoint()
	current[x1] = 1
	batch := nb.batch(current, 6)
	if len(batch) != 6 {
		t.Fatalf("邻域解数 = %d, 期望 6", len(batch))
	}
	for i, p := range batch {
		if len(p) != len(current) {
			t.Fatalf("第 %d 个邻域解长度 = %d, 期望 %d", i, len(p), len(current))
		}
	}
	// 邻域解是副本，当前点不被修改
	if current[x1] != 1 || current[x2] != 0 {
		t.Errorf("当前点被修改: (%v, %v)", current[x1], current[x2])
	}

	if got := nb.batch(current, 0); len(got) != 1 {
		t.Errorf("非正数量应生成 1 个邻域解, 实际 %d", len(got))
	}
}

func TestNeighborhoodDeterministic(t *testing.T) {
	// 同一种子下生成序列可复现
	m := milp.NewModel("test")
	var terms []milp.Term
	names := []string{"X_1_1_1_1", "X_2_1_1_1", "X_3_1_1_1"}
	for _, name := range names {
		id, _ := m.AddBinary(name)
		terms = append(terms, milp.Term{Col: id, Coef: 1})
	}
	if err := m.AddRow("cover_1_1_1", terms, milp.Equal, 2); err != nil {
		t.Fatal(err)
	}

	ev, err := newEvaluator(m, 1e6)
	if err != nil {
		t.Fatalf("装配评估器失败: %v", err)
	}

	current := ev.initialPoint()
	a := newNeighborhood(ev, rand.New(rand.NewSource(11))).batch(current, 10)
	b := newNeighborhood(ev, rand.New(rand.NewSource(11))).batch(current, 10)
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				t.Fatalf("第 %d 个邻域解第 %d 列不一致: %v != %v", i, j, a[i][j], b[i][j])
			}
		}
	}
}
