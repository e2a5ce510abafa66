package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey      = "userID"
	ContextAccessTokenKey = "accessToken"
)

// credentialError là phản hồi duy nhất cho mọi lỗi xác thực phiên: token sai,
// hết hạn hay đã thu hồi đều nhận cùng một câu, lý do cụ thể chỉ nằm trong log.
const credentialError = "Không thể xác thực thông tin đăng nhập"

// AuthMiddleware yêu cầu Bearer access token hợp lệ và chưa bị thu hồi, rồi
// gắn userID vào context cho handler phía sau.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": credentialError})
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": credentialError})
			return
		}

		rawToken := parts[1]
		userID, err := authService.VerifyAccessToken(c.Request.Context(), rawToken)
		if err != nil {
			log.Printf("Từ chối access token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": credentialError})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextAccessTokenKey, rawToken)
		c.Next()
	}
}

// SuperuserMiddleware chặn các endpoint quản trị; phải đứng sau AuthMiddleware.
func SuperuserMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt(ContextUserIDKey)
		user, err := authService.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": credentialError})
			return
		}
		if !user.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Yêu cầu quyền quản trị"})
			return
		}
		c.Next()
	}
}
