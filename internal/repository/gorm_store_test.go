package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sharedhome/backend/internal/model"
	pkgerrors "sharedhome/backend/pkg/errors"
)

func newMockGormStore(t *testing.T) (Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func TestGormStore_ListByMonth(t *testing.T) {
	store, mock := newMockGormStore(t)
	repo := NewDutyAssignmentRepo(store)

	rows := sqlmock.NewRows([]string{"assignment_id", "member_id", "year", "month", "week_in_month"}).
		AddRow("a-2", "m2", int64(2025), int64(9), nil).
		AddRow("a-1", "m1", int64(2025), int64(9), int64(3))
	mock.ExpectQuery(`SELECT \* FROM "duty_assignments" WHERE`).WillReturnRows(rows)

	items, err := repo.ListByMonth(context.Background(), model.YearMonth{Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "m1", items[0].MemberID)
	require.NotNil(t, items[0].WeekInMonth)
	assert.Equal(t, 3, *items[0].WeekInMonth)
	assert.Nil(t, items[1].WeekInMonth)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_SelectUndefinedTable(t *testing.T) {
	store, mock := newMockGormStore(t)

	mock.ExpectQuery(`SELECT \* FROM "duty_assignments"`).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "duty_assignments" does not exist`})

	_, err := store.Select(context.Background(), TableDutyAssignments, Filters{"year": 2025, "month": 9})
	assert.ErrorIs(t, err, pkgerrors.ErrRelationNotFound)
}

func TestGormStore_UnknownTable(t *testing.T) {
	store, mock := newMockGormStore(t)

	_, err := store.Select(context.Background(), "meal_plans", nil)
	assert.ErrorIs(t, err, pkgerrors.ErrRelationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "未登记的表不应访问数据库")
}

func TestGormStore_DeleteByMonth(t *testing.T) {
	store, mock := newMockGormStore(t)
	repo := NewDutyAssignmentRepo(store)

	mock.ExpectExec(`DELETE FROM "duty_assignments" WHERE`).
		WillReturnResult(sqlmock.NewResult(0, 8))

	require.NoError(t, repo.DeleteByMonth(context.Background(), model.YearMonth{Year: 2025, Month: 9}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_DeleteWithoutFilters(t *testing.T) {
	store, _ := newMockGormStore(t)
	assert.Error(t, store.Delete(context.Background(), TableDutyAssignments, nil))
}

func TestGormStore_InsertEmptyIsNoop(t *testing.T) {
	store, mock := newMockGormStore(t)
	require.NoError(t, store.Insert(context.Background(), TableDutyAssignments, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_BatchCreateSingleStatement(t *testing.T) {
	store, mock := newMockGormStore(t)
	repo := NewDutyAssignmentRepo(store)

	// 两行在同一条 INSERT 中写入，列按名称排序；未排定的周次写入 NULL
	mock.ExpectQuery(`INSERT INTO "duty_assignments" \("member_id","month","week_in_month","year"\) VALUES \(.+\),\(.+\) RETURNING "assignment_id"`).
		WithArgs("m1", 10, 2, 2025, "m2", 10, nil, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"assignment_id"}))

	err := repo.BatchCreate(context.Background(), []model.DutyAssignment{
		{MemberID: "m1", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(2)},
		{MemberID: "m2", Year: 2025, Month: 10},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_BatchCreateUniqueViolation(t *testing.T) {
	store, mock := newMockGormStore(t)
	repo := NewDutyAssignmentRepo(store)

	mock.ExpectQuery(`INSERT INTO "duty_assignments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_duty_member_month"})

	err := repo.BatchCreate(context.Background(), []model.DutyAssignment{
		{MemberID: "m1", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(1)},
		{MemberID: "m2", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(2)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrUniqueViolation)
	assert.True(t, pkgerrors.IsUniqueViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
