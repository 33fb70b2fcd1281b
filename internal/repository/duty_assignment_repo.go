package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"sharedhome/backend/internal/model"
)

// DutyAssignmentRepository 月度值班分配数据访问接口
// 所有写操作以 (year, month) 分区为单位
type DutyAssignmentRepository interface {
	ListByMonth(ctx context.Context, ym model.YearMonth) ([]model.DutyAssignment, error)
	ListRange(ctx context.Context, from model.YearMonth, months int) ([]model.DutyAssignment, error)
	BatchCreate(ctx context.Context, items []model.DutyAssignment) error
	DeleteByMonth(ctx context.Context, ym model.YearMonth) error
}

type dutyAssignmentRepo struct {
	store Store
}

// NewDutyAssignmentRepo 创建 DutyAssignmentRepository 实例
func NewDutyAssignmentRepo(store Store) DutyAssignmentRepository {
	return &dutyAssignmentRepo{store: store}
}

func monthFilters(ym model.YearMonth) Filters {
	return Filters{"year": ym.Year, "month": ym.Month}
}

func (r *dutyAssignmentRepo) ListByMonth(ctx context.Context, ym model.YearMonth) ([]model.DutyAssignment, error) {
	rows, err := r.store.Select(ctx, TableDutyAssignments, monthFilters(ym))
	if err != nil {
		return nil, err
	}

	items := make([]model.DutyAssignment, 0, len(rows))
	for _, row := range rows {
		a, err := rowToAssignment(row)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].MemberID < items[j].MemberID })
	return items, nil
}

func (r *dutyAssignmentRepo) ListRange(ctx context.Context, from model.YearMonth, months int) ([]model.DutyAssignment, error) {
	var all []model.DutyAssignment
	for i := 0; i < months; i++ {
		items, err := r.ListByMonth(ctx, from.AddMonths(i))
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	return all, nil
}

func (r *dutyAssignmentRepo) BatchCreate(ctx context.Context, items []model.DutyAssignment) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]Row, 0, len(items))
	for _, a := range items {
		row := Row{
			"member_id":     a.MemberID,
			"year":          a.Year,
			"month":         a.Month,
			"week_in_month": nil,
		}
		if a.WeekInMonth != nil {
			row["week_in_month"] = *a.WeekInMonth
		}
		rows = append(rows, row)
	}
	return r.store.Insert(ctx, TableDutyAssignments, rows)
}

func (r *dutyAssignmentRepo) DeleteByMonth(ctx context.Context, ym model.YearMonth) error {
	return r.store.Delete(ctx, TableDutyAssignments, monthFilters(ym))
}

// ── 行转换 ──

func rowToAssignment(row Row) (model.DutyAssignment, error) {
	var a model.DutyAssignment
	var ok bool

	a.AssignmentID = asString(row["assignment_id"])
	a.MemberID = asString(row["member_id"])
	if a.Year, ok = asInt(row["year"]); !ok {
		return a, fmt.Errorf("duty_assignments.year 类型无效: %T", row["year"])
	}
	if a.Month, ok = asInt(row["month"]); !ok {
		return a, fmt.Errorf("duty_assignments.month 类型无效: %T", row["month"])
	}
	if v := row["week_in_month"]; v != nil {
		w, ok := asInt(v)
		if !ok {
			return a, fmt.Errorf("duty_assignments.week_in_month 类型无效: %T", v)
		}
		a.WeekInMonth = &w
	}
	return a, nil
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	case *int:
		if x == nil {
			return 0, false
		}
		return *x, true
	case []byte:
		n, err := strconv.Atoi(string(x))
		return n, err == nil
	case string:
		n, err := strconv.Atoi(x)
		return n, err == nil
	default:
		return 0, false
	}
}
