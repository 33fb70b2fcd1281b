package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	pkgerrors "sharedhome/backend/pkg/errors"
)

// memoryTable 内存表定义：主键列 + 唯一键列
type memoryTable struct {
	primaryKey string
	uniqueKey  []string
	rows       []Row
}

// MemoryStore 进程内存储（store.driver=memory 及测试使用）
// 行为与 PostgreSQL 实现保持一致：唯一约束、整批原子插入、表不存在错误
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

// NewMemoryStore 创建内存存储并登记 duty_assignments / members 两张表
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: map[string]*memoryTable{
			TableDutyAssignments: {
				primaryKey: "assignment_id",
				uniqueKey:  []string{"member_id", "year", "month"},
			},
			TableMembers: {
				primaryKey: "member_id",
				uniqueKey:  []string{"member_id"},
			},
		},
	}
}

// DropTable 删除表，之后的访问返回 ErrRelationNotFound
func (s *MemoryStore) DropTable(table string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables, table)
}

func (s *MemoryStore) table(name string) (*memoryTable, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrRelationNotFound, name)
	}
	return t, nil
}

func (s *MemoryStore) Select(ctx context.Context, table string, filters Filters) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.table(table)
	if err != nil {
		return nil, err
	}

	var out []Row
	for _, r := range t.rows {
		if matches(r, filters) {
			out = append(out, copyRow(r))
		}
	}
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, table string, rows []Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(table)
	if err != nil {
		return err
	}

	// 先整批校验唯一约束（含批内重复），全部通过后再写入
	seen := make(map[string]bool, len(t.rows)+len(rows))
	for _, r := range t.rows {
		seen[t.keyOf(r)] = true
	}
	prepared := make([]Row, 0, len(rows))
	for _, r := range rows {
		nr := copyRow(r)
		if _, ok := nr[t.primaryKey]; !ok {
			nr[t.primaryKey] = uuid.New().String()
		}
		key := t.keyOf(nr)
		if seen[key] {
			return fmt.Errorf("%w: %s(%s)", pkgerrors.ErrUniqueViolation, table, key)
		}
		seen[key] = true
		prepared = append(prepared, nr)
	}

	t.rows = append(t.rows, prepared...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, table string, filters Filters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(filters) == 0 {
		return fmt.Errorf("拒绝无条件删除整表 %s", table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.table(table)
	if err != nil {
		return err
	}

	kept := t.rows[:0]
	for _, r := range t.rows {
		if !matches(r, filters) {
			kept = append(kept, r)
		}
	}
	t.rows = kept
	return nil
}

// ── 辅助函数 ──

func (t *memoryTable) keyOf(r Row) string {
	parts := make([]string, 0, len(t.uniqueKey))
	for _, col := range t.uniqueKey {
		parts = append(parts, fmt.Sprint(normalize(r[col])))
	}
	return strings.Join(parts, "|")
}

func matches(r Row, filters Filters) bool {
	for col, want := range filters {
		if normalize(r[col]) != normalize(want) {
			return false
		}
	}
	return true
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = normalize(v)
	}
	return out
}

// normalize 统一整数类型并解引用指针，使比较与数据库语义一致
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case *int:
		if x == nil {
			return nil
		}
		return int64(*x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	default:
		return v
	}
}
