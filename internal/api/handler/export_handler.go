package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"sharedhome/backend/internal/dto"
	"sharedhome/backend/internal/model"
	"sharedhome/backend/internal/service"
	"sharedhome/backend/pkg/response"
)

const defaultExportMonths = 6

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
	rosterSvc   service.RosterService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService, rosterSvc service.RosterService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc, rosterSvc: rosterSvc}
}

// ExportRoster 导出值班表
// GET /api/v1/duty-roster/export?from=2025-10&months=6
func (h *ExportHandler) ExportRoster(c *gin.Context) {
	from, months, ok := h.bindRange(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), from, months)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// MemberCalendar 导出成员值班日历
// GET /api/v1/duty-roster/calendar/:member_id?from=2025-10&months=6
func (h *ExportHandler) MemberCalendar(c *gin.Context) {
	memberID := c.Param("member_id")
	if memberID == "" {
		response.BadRequest(c, 16001, "member_id 不能为空")
		return
	}
	from, months, ok := h.bindRange(c)
	if !ok {
		return
	}

	data, filename, err := h.calendarSvc.MemberCalendar(c.Request.Context(), memberID, from, months)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// bindRange 解析 from/months；from 缺省为当前月
func (h *ExportHandler) bindRange(c *gin.Context) (model.YearMonth, int, bool) {
	var q dto.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 16001, "from/months 参数无效")
		return model.YearMonth{}, 0, false
	}

	var from model.YearMonth
	if q.From == "" {
		from = h.rosterSvc.CurrentMonth()
	} else {
		ym, err := model.ParseYearMonth(q.From)
		if err != nil {
			response.BadRequest(c, 16001, "from 格式应为 YYYY-MM")
			return model.YearMonth{}, 0, false
		}
		from = ym
	}
	return from, q.GetMonths(defaultExportMonths), true
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportInvalidRange):
		response.BadRequest(c, 16001, "导出月份范围无效")
	case errors.Is(err, service.ErrCalendarMember):
		response.BadRequest(c, 16001, "member_id 不能为空")
	case errors.Is(err, service.ErrExportNoAssignments):
		response.NotFound(c, 16101, "所选月份暂无值班分配")
	case errors.Is(err, service.ErrCalendarNoEvents):
		response.NotFound(c, 16102, "该成员在所选月份没有已排定的值班")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
