package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedhome/backend/internal/model"
	pkgerrors "sharedhome/backend/pkg/errors"
)

func TestMemoryStore_InsertSelectDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDutyAssignmentRepo(NewMemoryStore())
	sep := model.YearMonth{Year: 2025, Month: 9}
	oct := model.YearMonth{Year: 2025, Month: 10}

	require.NoError(t, repo.BatchCreate(ctx, []model.DutyAssignment{
		{MemberID: "m2", Year: 2025, Month: 9, WeekInMonth: model.IntPtr(2)},
		{MemberID: "m1", Year: 2025, Month: 9},
		{MemberID: "m1", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(4)},
	}))

	items, err := repo.ListByMonth(ctx, sep)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].MemberID, "结果按 member_id 排序")
	assert.Nil(t, items[0].WeekInMonth, "未排定的周次保持为 nil")
	require.NotNil(t, items[1].WeekInMonth)
	assert.Equal(t, 2, *items[1].WeekInMonth)
	assert.NotEmpty(t, items[0].AssignmentID, "应自动生成主键")

	require.NoError(t, repo.DeleteByMonth(ctx, sep))

	items, err = repo.ListByMonth(ctx, sep)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = repo.ListByMonth(ctx, oct)
	require.NoError(t, err)
	assert.Len(t, items, 1, "删除只影响目标分区")
}

func TestMemoryStore_UniqueViolationIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewDutyAssignmentRepo(NewMemoryStore())
	ym := model.YearMonth{Year: 2025, Month: 9}

	require.NoError(t, repo.BatchCreate(ctx, []model.DutyAssignment{
		{MemberID: "m1", Year: 2025, Month: 9},
	}))

	err := repo.BatchCreate(ctx, []model.DutyAssignment{
		{MemberID: "m2", Year: 2025, Month: 9},
		{MemberID: "m1", Year: 2025, Month: 9},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrUniqueViolation))

	items, err := repo.ListByMonth(ctx, ym)
	require.NoError(t, err)
	assert.Len(t, items, 1, "冲突时整批不写入")
}

func TestMemoryStore_DuplicateWithinBatch(t *testing.T) {
	store := NewMemoryStore()
	err := store.Insert(context.Background(), TableDutyAssignments, []Row{
		{"member_id": "m1", "year": 2025, "month": 9},
		{"member_id": "m1", "year": int64(2025), "month": int32(9)},
	})
	assert.ErrorIs(t, err, pkgerrors.ErrUniqueViolation, "不同整数类型应视为同一键")
}

func TestMemoryStore_RelationNotFound(t *testing.T) {
	store := NewMemoryStore()
	store.DropTable(TableDutyAssignments)

	_, err := store.Select(context.Background(), TableDutyAssignments, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrRelationNotFound)

	err = store.Insert(context.Background(), "chores", []Row{{"id": 1}})
	assert.ErrorIs(t, err, pkgerrors.ErrRelationNotFound)
}

func TestMemoryStore_DeleteRequiresFilters(t *testing.T) {
	assert.Error(t, NewMemoryStore().Delete(context.Background(), TableDutyAssignments, nil))
}

func TestMemberRepo_CountActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Insert(ctx, TableMembers, []Row{
		{"member_id": "m1", "name": "Ada", "is_active": true},
		{"member_id": "m2", "name": "Bo", "is_active": true},
		{"member_id": "m3", "name": "Cy", "is_active": false},
	}))

	repo := NewMemberRepo(store)
	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Ada", all[0].Name)
}

// ── 超时装饰器 ──

type slowStore struct {
	Store
	delay time.Duration
}

func (s *slowStore) Select(ctx context.Context, table string, filters Filters) ([]Row, error) {
	select {
	case <-time.After(s.delay):
		return s.Store.Select(ctx, table, filters)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestWithTimeout(t *testing.T) {
	store := WithTimeout(&slowStore{Store: NewMemoryStore(), delay: time.Second}, 20*time.Millisecond)

	_, err := store.Select(context.Background(), TableDutyAssignments, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrStoreTimeout)

	fast := WithTimeout(NewMemoryStore(), time.Second)
	_, err = fast.Select(context.Background(), TableDutyAssignments, nil)
	assert.NoError(t, err)
}

func TestWithTimeout_Disabled(t *testing.T) {
	inner := NewMemoryStore()
	assert.Same(t, Store(inner), WithTimeout(inner, 0))
}
