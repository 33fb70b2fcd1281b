package handler

import (
	"github.com/gin-gonic/gin"

	"sharedhome/backend/pkg/response"
)

// MustGetMember 从 Gin 上下文中安全提取住户成员名。
// 如果 HouseholdAuth 中间件未注入 member，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetMember(c *gin.Context) (string, bool) {
	s := c.GetString("member")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// GetRole 提取角色，未注入时为空串
func GetRole(c *gin.Context) string {
	return c.GetString("role")
}
