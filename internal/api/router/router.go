package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sharedhome/backend/config"
	"sharedhome/backend/internal/api/handler"
	"sharedhome/backend/internal/api/middleware"
)

// maxBodyBytes 接口只接收很小的 JSON 请求体
const maxBodyBytes = 64 << 10

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.HouseholdAuth(&cfg.Household))
	{
		// 值班表模块
		roster := v1.Group("/duty-roster")
		{
			roster.GET("", h.Roster.GetMonth)
			roster.GET("/quality", h.Roster.GetQuality)
			// 页面加载钩子：按 IP 限流，冷却期由 Service 层节流
			roster.POST("/extend", middleware.RateLimit(cfg.Roster.ExtendRateLimit, cfg.Roster.ExtendRateBurst), h.Roster.Extend)
			roster.POST("/repair", middleware.RoleAuth(middleware.RoleAdmin), h.Roster.Repair)

			// 导出
			roster.GET("/export", h.Export.ExportRoster)
			roster.GET("/calendar/:member_id", h.Export.MemberCalendar)
		}
	}

	return r
}
