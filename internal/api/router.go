package api

import (
	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/handler"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/middleware"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type Services struct {
	Auth        *service.AuthService
	DeviceAuth  *service.DeviceAuthService
	Parking     *service.ParkingService
	Reservation *service.ReservationService
	Activity    *service.ActivityService
	Vehicle     *service.VehicleService
	Device      *service.DeviceService
	LPR         *service.LPRService
}

func SetupRouter(cfg *config.Config, svc Services, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-API-Key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	authRequired := middleware.AuthMiddleware(svc.Auth)
	adminRequired := middleware.SuperuserMiddleware(svc.Auth)
	cameraRequired := middleware.CameraAuthMiddleware(svc.DeviceAuth)
	sensorRequired := middleware.SensorAuthMiddleware(svc.DeviceAuth)

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(svc.Auth, cfg)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		// Refresh chạy bằng cookie httponly nên là GET, không có body
		authRoutes.GET("/refresh", authHandler.Refresh)
		authRoutes.POST("/logout", authRequired, authHandler.Logout)
		authRoutes.PUT("/password", authRequired, authHandler.ChangePassword)
		authRoutes.GET("/me", authRequired, authHandler.Me)
	}

	operationHandler := handler.NewOperationHandler(svc.Parking, svc.LPR)

	// Endpoint vận hành cho thiết bị biên, xác thực bằng API key
	deviceRoutes := r.Group("/operations")
	{
		deviceRoutes.GET("/free-space", cameraRequired, operationHandler.FindFreeSpace)
		deviceRoutes.POST("/detect-plate", cameraRequired, operationHandler.DetectPlate)
		deviceRoutes.PUT("/acknowledge", sensorRequired, operationHandler.AcknowledgeSpace)
	}

	v1 := r.Group("/api/v1")
	{
		lotHandler := handler.NewParkingLotHandler(svc.Parking)
		spaceHandler := handler.NewParkingSpaceHandler(svc.Parking)
		lotRoutes := v1.Group("/parking-lots")
		{
			lotRoutes.GET("", lotHandler.List)
			lotRoutes.GET("/:id", lotHandler.Get)
			lotRoutes.GET("/:id/free-count", operationHandler.FreeSpaceCount)
			lotRoutes.POST("", authRequired, adminRequired, lotHandler.Create)
			lotRoutes.PUT("/:id", authRequired, adminRequired, lotHandler.Update)
			lotRoutes.DELETE("/:id", authRequired, adminRequired, lotHandler.Delete)

			lotRoutes.GET("/:id/spaces", spaceHandler.ListByLot)
			lotRoutes.POST("/:id/spaces", authRequired, adminRequired, spaceHandler.Create)
		}

		spaceRoutes := v1.Group("/parking-spaces")
		{
			spaceRoutes.GET("/:id", spaceHandler.Get)
			spaceRoutes.DELETE("/:id", authRequired, adminRequired, spaceHandler.Delete)
		}

		vehicleHandler := handler.NewVehicleHandler(svc.Vehicle, svc.Auth)
		vehicleRoutes := v1.Group("/vehicles")
		vehicleRoutes.Use(authRequired)
		{
			vehicleRoutes.POST("", vehicleHandler.Register)
			vehicleRoutes.GET("", vehicleHandler.ListMine)
			vehicleRoutes.DELETE("/:id", vehicleHandler.Unregister)
		}

		reservationHandler := handler.NewReservationHandler(svc.Reservation)
		v1.POST("/reservations", authRequired, reservationHandler.Reserve)

		activityHandler := handler.NewActivityHandler(svc.Activity)
		activityRoutes := v1.Group("/activities")
		activityRoutes.Use(authRequired)
		{
			activityRoutes.POST("/validate", activityHandler.Validate)
			activityRoutes.POST("/validate-batch", activityHandler.ValidateBatch)
			activityRoutes.GET("", adminRequired, activityHandler.List)
		}

		deviceHandler := handler.NewDeviceHandler(svc.Device)
		deviceAdminRoutes := v1.Group("/devices")
		deviceAdminRoutes.Use(authRequired, adminRequired)
		{
			deviceAdminRoutes.POST("/cameras", deviceHandler.CreateCamera)
			deviceAdminRoutes.GET("/cameras", deviceHandler.ListCameras)
			deviceAdminRoutes.DELETE("/cameras/:id", deviceHandler.DeactivateCamera)
			deviceAdminRoutes.POST("/sensors", deviceHandler.CreateSensor)
			deviceAdminRoutes.GET("/sensors", deviceHandler.ListSensors)
			deviceAdminRoutes.DELETE("/sensors/:id", deviceHandler.DeactivateSensor)
		}
	}
	return r
}
