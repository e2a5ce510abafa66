package middleware

import (
	"log"
	"net/http"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	APIKeyHeader     = "X-API-Key"
	ContextCameraKey = "camera"
	ContextSensorKey = "sensor"
)

// deviceError là phản hồi duy nhất cho thiết bị không xác thực được: key lạ
// và key của thiết bị đã vô hiệu nhận cùng một câu trả lời, phân biệt được
// hai trường hợp sẽ để lộ key nào từng tồn tại.
const deviceError = "Thiết bị không được xác thực"

// CameraAuthMiddleware xác thực camera qua X-API-Key và gắn camera vào context.
func CameraAuthMiddleware(deviceAuth *service.DeviceAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		camera, err := deviceAuth.AuthenticateCamera(c.Request.Context(), c.GetHeader(APIKeyHeader))
		if err != nil {
			log.Printf("Từ chối camera: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": deviceError})
			return
		}
		c.Set(ContextCameraKey, camera)
		c.Next()
	}
}

// SensorAuthMiddleware xác thực sensor qua X-API-Key và gắn sensor vào context.
func SensorAuthMiddleware(deviceAuth *service.DeviceAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sensor, err := deviceAuth.AuthenticateSensor(c.Request.Context(), c.GetHeader(APIKeyHeader))
		if err != nil {
			log.Printf("Từ chối sensor: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": deviceError})
			return
		}
		c.Set(ContextSensorKey, sensor)
		c.Next()
	}
}
