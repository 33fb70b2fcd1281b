package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"sharedhome/backend/internal/model"
	pkgerrors "sharedhome/backend/pkg/errors"
)

// gormStore 基于 GORM 的 PostgreSQL 实现
// 只开放已登记的表，未登记的表按“表不存在”处理
type gormStore struct {
	db     *gorm.DB
	tables map[string]func() any
}

// NewGormStore 创建 GORM 存储
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{
		db: db,
		tables: map[string]func() any{
			TableDutyAssignments: func() any { return &model.DutyAssignment{} },
			TableMembers:         func() any { return &model.Member{} },
		},
	}
}

func (s *gormStore) modelFor(table string) (any, error) {
	newModel, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrRelationNotFound, table)
	}
	return newModel(), nil
}

func (s *gormStore) Select(ctx context.Context, table string, filters Filters) ([]Row, error) {
	m, err := s.modelFor(table)
	if err != nil {
		return nil, err
	}

	var found []map[string]interface{}
	q := s.db.WithContext(ctx).Model(m)
	if len(filters) > 0 {
		q = q.Where(map[string]interface{}(filters))
	}
	if err := q.Find(&found).Error; err != nil {
		return nil, pkgerrors.Classify(err)
	}

	rows := make([]Row, 0, len(found))
	for _, r := range found {
		rows = append(rows, Row(r))
	}
	return rows, nil
}

func (s *gormStore) Insert(ctx context.Context, table string, rows []Row) error {
	m, err := s.modelFor(table)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	values := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, map[string]interface{}(r))
	}
	// 单条 INSERT 语句，整批成功或整批失败
	return pkgerrors.Classify(s.db.WithContext(ctx).Model(m).Create(values).Error)
}

func (s *gormStore) Delete(ctx context.Context, table string, filters Filters) error {
	m, err := s.modelFor(table)
	if err != nil {
		return err
	}
	if len(filters) == 0 {
		return errors.New("拒绝无条件删除整表")
	}
	return pkgerrors.Classify(s.db.WithContext(ctx).
		Where(map[string]interface{}(filters)).
		Delete(m).Error)
}
