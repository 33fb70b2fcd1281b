package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sharedhome/backend/internal/api/middleware"
	"sharedhome/backend/internal/dto"
	"sharedhome/backend/internal/service"
	pkgerrors "sharedhome/backend/pkg/errors"
	"sharedhome/backend/pkg/response"
)

// RosterHandler 值班表模块 HTTP 处理器
type RosterHandler struct {
	rosterSvc service.RosterService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(rosterSvc service.RosterService) *RosterHandler {
	return &RosterHandler{rosterSvc: rosterSvc}
}

// Extend 页面加载时触发的自动续排
// POST /api/v1/duty-roster/extend[?force=true]
func (h *RosterHandler) Extend(c *gin.Context) {
	var q dto.ExtendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}
	if q.Force && GetRole(c) != middleware.RoleAdmin {
		response.Forbidden(c, 10003, "仅管理员可强制续排")
		return
	}

	// 客户端断开后续排仍需完成当前月份，否则分区会停在删除后、写入前
	ctx := context.WithoutCancel(c.Request.Context())
	report := h.rosterSvc.ExtendRange(ctx, q.Force)

	response.OK(c, dto.NewExtendResponse(report))
}

// GetMonth 获取单月分配
// GET /api/v1/duty-roster?year=2025&month=10
func (h *RosterHandler) GetMonth(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 17001, "year/month 参数无效")
		return
	}

	view, err := h.rosterSvc.GetMonth(c.Request.Context(), q.Period())
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, dto.NewMonthResponse(view))
}

// GetQuality 获取单月质量评分
// GET /api/v1/duty-roster/quality?year=2025&month=10
func (h *RosterHandler) GetQuality(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 17001, "year/month 参数无效")
		return
	}

	view, err := h.rosterSvc.GetMonth(c.Request.Context(), q.Period())
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, view.Quality)
}

// Repair 删除并重建单月（仅管理员）
// POST /api/v1/duty-roster/repair
func (h *RosterHandler) Repair(c *gin.Context) {
	var req dto.RepairMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		response.BadRequest(c, 17001, "参数校验失败")
		return
	}

	out, err := h.rosterSvc.RepairMonth(context.WithoutCancel(c.Request.Context()), req.Period())
	if err != nil {
		h.handleRosterError(c, err)
		return
	}

	response.OK(c, dto.NewMonthOutcomeResponse(out))
}

func (h *RosterHandler) handleRosterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMonth):
		response.BadRequest(c, 17001, "月份无效")
	case errors.Is(err, service.ErrNoBaseline):
		response.Error(c, http.StatusUnprocessableEntity, 17101, "没有可用的值班基线")
	case errors.Is(err, service.ErrEmptyAfterInsert):
		response.Error(c, http.StatusConflict, 17102, "写入后目标月仍为空")
	case pkgerrors.IsUniqueViolation(err):
		response.Error(c, http.StatusConflict, 17103, "目标月正在被并发写入，请稍后重试")
	case errors.Is(err, pkgerrors.ErrStoreTimeout):
		response.Error(c, http.StatusGatewayTimeout, 17104, "存储调用超时")
	case pkgerrors.IsRelationNotFound(err):
		response.Error(c, http.StatusServiceUnavailable, 17105, "值班表尚未初始化")
	default:
		response.InternalError(c)
	}
}
