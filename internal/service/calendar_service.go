package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"sharedhome/backend/internal/model"
	"sharedhome/backend/internal/repository"
)

// ── 日历导出 ──────────────────────────────────────────────
//
// 职责：把某成员的值班分配渲染为 iCalendar (RFC 5545)。
//
// 设计决策：
//   - 每条已排定周次的分配生成一个全天 VEVENT，覆盖该周在本月内的天数
//   - 周次以周一为一周起点，首尾周按月边界截断
//   - 未排定（week_in_month 为空）或本月不存在该周的分配不生成事件
//   - UID = 成员 + 月份，重复订阅时客户端可去重
// ─────────────────────────────────────────────────────────────

var (
	ErrCalendarNoEvents = errors.New("该成员在所选月份没有已排定的值班")
	ErrCalendarMember   = errors.New("成员 ID 不能为空")
)

const calendarProductID = "-//sharedhome//duty-roster//CN"

// CalendarService 值班日历导出接口
type CalendarService interface {
	// MemberCalendar 返回 ICS 内容与建议文件名
	MemberCalendar(ctx context.Context, memberID string, from model.YearMonth, months int) ([]byte, string, error)
}

type calendarService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	return &calendarService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

func (s *calendarService) MemberCalendar(ctx context.Context, memberID string, from model.YearMonth, months int) ([]byte, string, error) {
	if memberID == "" {
		return nil, "", ErrCalendarMember
	}
	if !from.Valid() || months < 1 || months > MaxExportMonths {
		return nil, "", ErrExportInvalidRange
	}

	items, err := s.repo.DutyAssignment.ListRange(ctx, from, months)
	if err != nil {
		s.logger.Error("查询值班分配失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetXWRCalName("值班表")
	cal.SetXWRTimezone(s.loc.String())

	stamp := s.now().UTC()
	count := 0
	for _, a := range items {
		if a.MemberID != memberID || a.WeekInMonth == nil {
			continue
		}
		start, end, ok := a.Period().WeekRange(*a.WeekInMonth, s.loc)
		if !ok {
			s.logger.Debug("周次在本月不存在，跳过",
				zap.String("period", a.Period().String()),
				zap.Int("week_in_month", *a.WeekInMonth),
			)
			continue
		}

		evt := cal.AddEvent(fmt.Sprintf("%s-%s@sharedhome", memberID, a.Period()))
		evt.SetDtStampTime(stamp)
		evt.SetAllDayStartAt(start)
		evt.SetAllDayEndAt(end)
		evt.SetSummary(fmt.Sprintf("值班 %s 第%d周", a.Period(), *a.WeekInMonth))
		count++
	}
	if count == 0 {
		return nil, "", ErrCalendarNoEvents
	}

	filename := fmt.Sprintf("duty_%s_%s.ics", memberID, from)
	return []byte(cal.Serialize()), filename, nil
}
