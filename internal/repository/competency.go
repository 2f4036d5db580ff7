package repository

import (
	"context"

	apperrors "github.com/lunban/lunban/pkg/errors"
	"github.com/lunban/lunban/pkg/model"
)

// CompetencyRepositoryInterface 胜任力评分表数据访问接口
type CompetencyRepositoryInterface interface {
	Save(ctx context.Context, department string, comp *model.Competency) error
	Get(ctx context.Context, department string, persons, sections int) (*model.Competency, error)
	Delete(ctx context.Context, department string) error
}

// CompetencyRepository 胜任力评分表数据访问层
type CompetencyRepository struct {
	db DB
}

// NewCompetencyRepository 创建胜任力评分表仓储
func NewCompetencyRepository(db DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

// Save 覆盖保存科室的胜任力评分表，仅落库已录入的 (人员, 片区) 组合
func (r *CompetencyRepository) Save(ctx context.Context, department string, comp *model.Competency) error {
	if comp == nil {
		return apperrors.New(apperrors.CodeInvalidInput, "胜任力评分表不能为空")
	}

	if err := r.Delete(ctx, department); err != nil {
		return err
	}

	query := `
		INSERT INTO competencies (department, person, section, score)
		VALUES ($1, $2, $3, $4)
	`

	for i := 1; i <= comp.Persons(); i++ {
		for k := 1; k <= comp.Sections(); k++ {
			score, ok := comp.Score(i, k)
			if !ok {
				continue
			}
			if _, err := r.db.ExecContext(ctx, query, department, i, k, score); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存胜任力评分失败")
			}
		}
	}

	return nil
}

// Get 读取科室的胜任力评分表。维度由调用方给定，
// 库中没有记录的组合保持缺失状态，由模型构建阶段统一报错。
func (r *CompetencyRepository) Get(ctx context.Context, department string, persons, sections int) (*model.Competency, error) {
	query := `
		SELECT person, section, score
		FROM competencies
		WHERE department = $1
	`

	rows, err := r.db.QueryContext(ctx, query, department)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询胜任力评分失败")
	}
	defer rows.Close()

	comp := model.NewCompetency(persons, sections)
	for rows.Next() {
		var person, section int
		var score float64
		if err := rows.Scan(&person, &section, &score); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "扫描胜任力评分失败")
		}
		// 维度收缩后库中可能残留越界记录，读取时直接忽略
		_ = comp.Set(person, section, score)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "遍历胜任力评分失败")
	}

	return comp, nil
}

// Delete 删除科室的全部胜任力评分
func (r *CompetencyRepository) Delete(ctx context.Context, department string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM competencies WHERE department = $1", department); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "删除胜任力评分失败")
	}
	return nil
}
