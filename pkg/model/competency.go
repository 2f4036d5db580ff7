package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Competency 人员×科室的胜任力评分表。
// 质量目标约束引用的每一个 (人员, 科室) 组合都必须存在评分，
// 缺失在模型构建阶段报错，而不会进入求解。
type Competency struct {
	persons  int
	sections int
	scores   []float64
	present  []bool
}

// NewCompetency 创建空的胜任力评分表
func NewCompetency(persons, sections int) *Competency {
	if persons < 0 {
		persons = 0
	}
	if sections < 0 {
		sections = 0
	}
	size := persons * sections
	return &Competency{
		persons:  persons,
		sections: sections,
		scores:   make([]float64, size),
		present:  make([]bool, size),
	}
}

// UniformCompetency 创建所有组合同分的评分表（主要用于测试与缩小实例）
func UniformCompetency(persons, sections int, score float64) *Competency {
	c := NewCompetency(persons, sections)
	for i := 1; i <= persons; i++ {
		for k := 1; k <= sections; k++ {
			_ = c.Set(i, k, score)
		}
	}
	return c
}

// Persons 返回人员数
func (c *Competency) Persons() int { return c.persons }

// Sections 返回科室数
func (c *Competency) Sections() int { return c.sections }

func (c *Competency) offset(person, section int) (int, bool) {
	if person < 1 || person > c.persons || section < 1 || section > c.sections {
		return 0, false
	}
	return (person-1)*c.sections + (section - 1), true
}

// Set 设置评分，索引越界时报错
func (c *Competency) Set(person, section int, score float64) error {
	off, ok := c.offset(person, section)
	if !ok {
		return fmt.Errorf("评分索引越界: 人员=%d 科室=%d", person, section)
	}
	c.scores[off] = score
	c.present[off] = true
	return nil
}

// Score 查询评分；第二个返回值表示该组合是否存在
func (c *Competency) Score(person, section int) (float64, bool) {
	off, ok := c.offset(person, section)
	if !ok || !c.present[off] {
		return 0, false
	}
	return c.scores[off], true
}

// MissingPairs 返回缺失评分的 (人员, 科室) 组合
func (c *Competency) MissingPairs() [][2]int {
	var missing [][2]int
	for i := 1; i <= c.persons; i++ {
		for k := 1; k <= c.sections; k++ {
			off, _ := c.offset(i, k)
			if !c.present[off] {
				missing = append(missing, [2]int{i, k})
			}
		}
	}
	return missing
}

// LoadCompetencyCSV 从 CSV 加载评分表。
// 第一行为表头，首列为人员名称，科室列标题形如 "Sec (1)" … "Sec (s)"；
// 人员编号按行顺序从1开始。
func LoadCompetencyCSV(r io.Reader, sections int) (*Competency, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取评分表表头失败: %w", err)
	}

	// 按表头定位各科室列
	columns := make(map[int]int, sections)
	for idx, name := range header {
		k, ok := parseSectionHeader(name)
		if !ok {
			continue
		}
		if _, dup := columns[k]; dup {
			return nil, fmt.Errorf("评分表表头重复: %s", name)
		}
		columns[k] = idx
	}
	for k := 1; k <= sections; k++ {
		if _, ok := columns[k]; !ok {
			return nil, fmt.Errorf("评分表缺少科室 %d 的列", k)
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取评分表失败: %w", err)
		}
		rows = append(rows, record)
	}

	c := NewCompetency(len(rows), sections)
	for i, record := range rows {
		for k := 1; k <= sections; k++ {
			idx := columns[k]
			if idx >= len(record) {
				return nil, fmt.Errorf("评分表第 %d 行缺少科室 %d 的评分", i+1, k)
			}
			score, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("解析第 %d 行科室 %d 的评分失败: %w", i+1, k, err)
			}
			if err := c.Set(i+1, k, score); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// parseSectionHeader 解析 "Sec (k)" 形式的列标题
func parseSectionHeader(name string) (int, bool) {
	name = strings.TrimSpace(name)
	start := strings.Index(name, "(")
	end := strings.Index(name, ")")
	if !strings.HasPrefix(name, "Sec") || start < 0 || end < start {
		return 0, false
	}
	k, err := strconv.Atoi(strings.TrimSpace(name[start+1 : end]))
	if err != nil || k < 1 {
		return 0, false
	}
	return k, true
}
