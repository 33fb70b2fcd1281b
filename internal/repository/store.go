package repository

import (
	"context"
	"fmt"
	"time"

	pkgerrors "sharedhome/backend/pkg/errors"
)

// 表名
const (
	TableDutyAssignments = "duty_assignments"
	TableMembers         = "members"
)

// Filters 等值过滤条件：列名 → 值
type Filters map[string]any

// Row 一行数据：列名 → 值
type Row map[string]any

// Store 通用关系型数据存储
//
// 错误约定：
//   - 表不存在返回 pkgerrors.ErrRelationNotFound（与“结果为空”区分）
//   - 唯一约束冲突返回 pkgerrors.ErrUniqueViolation（与其他写入失败区分）
//   - Insert 为整批原子写入
type Store interface {
	Select(ctx context.Context, table string, filters Filters) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) error
	Delete(ctx context.Context, table string, filters Filters) error
}

// ── 超时装饰器 ──

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout 为每次存储调用加上超时，超时错误归类为 pkgerrors.ErrStoreTimeout
func WithTimeout(next Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return next
	}
	return &timeoutStore{next: next, timeout: timeout}
}

func (s *timeoutStore) Select(ctx context.Context, table string, filters Filters) ([]Row, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rows, err := s.next.Select(ctx, table, filters)
	return rows, s.wrap(ctx, "select", table, err)
}

func (s *timeoutStore) Insert(ctx context.Context, table string, rows []Row) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.wrap(ctx, "insert", table, s.next.Insert(ctx, table, rows))
}

func (s *timeoutStore) Delete(ctx context.Context, table string, filters Filters) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.wrap(ctx, "delete", table, s.next.Delete(ctx, table, filters))
}

func (s *timeoutStore) wrap(ctx context.Context, op, table string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s %s 超过 %s: %w", op, table, s.timeout, pkgerrors.ErrStoreTimeout)
	}
	return err
}
