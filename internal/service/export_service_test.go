package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sharedhome/backend/internal/model"
	"sharedhome/backend/internal/repository"
)

// ── 测试辅助 ──

func setupTestExportService(t *testing.T) (ExportService, CalendarService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	repo := repository.NewRepositoryWithStore(store)
	logger := zap.NewNop()

	cal := NewCalendarService(repo, time.UTC, logger).(*calendarService)
	cal.now = func() time.Time { return testNow }
	return NewExportService(repo, logger), cal, store
}

// ── ExportRoster 测试 ──

func TestExportService_ExportRoster_InvalidRange(t *testing.T) {
	svc, _, _ := setupTestExportService(t)

	for _, months := range []int{0, -1, MaxExportMonths + 1} {
		_, _, err := svc.ExportRoster(context.Background(), testCur, months)
		if !errors.Is(err, ErrExportInvalidRange) {
			t.Errorf("months=%d 期望 ErrExportInvalidRange，实际: %v", months, err)
		}
	}
	_, _, err := svc.ExportRoster(context.Background(), model.YearMonth{Year: 2025, Month: 13}, 1)
	if !errors.Is(err, ErrExportInvalidRange) {
		t.Errorf("非法月份期望 ErrExportInvalidRange，实际: %v", err)
	}
}

func TestExportService_ExportRoster_NoAssignments(t *testing.T) {
	svc, _, _ := setupTestExportService(t)

	_, _, err := svc.ExportRoster(context.Background(), testCur, 3)
	if !errors.Is(err, ErrExportNoAssignments) {
		t.Errorf("期望 ErrExportNoAssignments，实际: %v", err)
	}
}

func TestExportService_ExportRoster_Success(t *testing.T) {
	svc, _, store := setupTestExportService(t)
	ctx := context.Background()

	if err := store.Insert(ctx, repository.TableMembers, []repository.Row{
		{"member_id": "ma", "name": "张三", "is_active": true},
		{"member_id": "mb", "name": "李四", "is_active": true},
	}); err != nil {
		t.Fatal(err)
	}
	repo := repository.NewDutyAssignmentRepo(store)
	if err := repo.BatchCreate(ctx, []model.DutyAssignment{
		{MemberID: "ma", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(2)},
		{MemberID: "mb", Year: 2025, Month: 10},
		{MemberID: "ma", Year: 2025, Month: 11, WeekInMonth: model.IntPtr(1)},
	}); err != nil {
		t.Fatal(err)
	}

	buf, filename, err := svc.ExportRoster(ctx, testCur, 2)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if buf == nil || buf.Len() == 0 {
		t.Fatal("导出 buffer 不应为空")
	}
	if filename != "值班表_2025-10_2025-11.xlsx" {
		t.Errorf("文件名不符，实际: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("无法解析导出的 Excel: %v", err)
	}
	defer f.Close()

	expect := map[string]string{
		"A2": "成员",
		"B2": "2025-10",
		"C2": "2025-11",
		// 按姓名排序：张三 < 李四
		"A3": "张三",
		"B3": "第2周",
		"C3": "第1周",
		"A4": "李四",
		"B4": "未排定",
		"C4": "-",
	}
	for axis, want := range expect {
		got, err := f.GetCellValue("值班表", axis)
		if err != nil {
			t.Fatalf("读取 %s 失败: %v", axis, err)
		}
		if got != want {
			t.Errorf("%s 期望 %q，实际: %q", axis, want, got)
		}
	}
}

// ── MemberCalendar 测试 ──

func TestCalendarService_MemberCalendar(t *testing.T) {
	_, cal, store := setupTestExportService(t)
	ctx := context.Background()

	repo := repository.NewDutyAssignmentRepo(store)
	if err := repo.BatchCreate(ctx, []model.DutyAssignment{
		// 2025-10-01 是周三：第 1 周 = 10/01 ~ 10/05
		{MemberID: "ma", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(1)},
		{MemberID: "ma", Year: 2025, Month: 11, WeekInMonth: model.IntPtr(6)}, // 11 月没有第 6 周
		{MemberID: "ma", Year: 2025, Month: 12},                               // 未排定
		{MemberID: "mb", Year: 2025, Month: 10, WeekInMonth: model.IntPtr(3)},
	}); err != nil {
		t.Fatal(err)
	}

	data, filename, err := cal.MemberCalendar(ctx, "ma", testCur, 3)
	if err != nil {
		t.Fatalf("生成日历失败: %v", err)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Errorf("文件名应为 .ics，实际: %s", filename)
	}

	parsed, err := ics.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("无法解析生成的 ICS: %v", err)
	}
	events := parsed.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件，实际: %d", len(events))
	}

	evt := events[0]
	if p := evt.GetProperty(ics.ComponentPropertyDtStart); p == nil || p.Value != "20251001" {
		t.Errorf("DTSTART 期望 20251001，实际: %v", p)
	}
	if p := evt.GetProperty(ics.ComponentPropertyDtEnd); p == nil || p.Value != "20251006" {
		t.Errorf("DTEND 期望 20251006，实际: %v", p)
	}
	if p := evt.GetProperty(ics.ComponentPropertySummary); p == nil || !strings.Contains(p.Value, "第1周") {
		t.Errorf("SUMMARY 应包含周次，实际: %v", p)
	}
}

func TestCalendarService_NoEvents(t *testing.T) {
	_, cal, _ := setupTestExportService(t)

	_, _, err := cal.MemberCalendar(context.Background(), "ma", testCur, 3)
	if !errors.Is(err, ErrCalendarNoEvents) {
		t.Errorf("期望 ErrCalendarNoEvents，实际: %v", err)
	}

	_, _, err = cal.MemberCalendar(context.Background(), "", testCur, 3)
	if !errors.Is(err, ErrCalendarMember) {
		t.Errorf("期望 ErrCalendarMember，实际: %v", err)
	}
}
