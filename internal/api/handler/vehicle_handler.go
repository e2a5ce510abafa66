package handler

import (
	"errors"
	"net/http"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/middleware"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	vehicleService *service.VehicleService
	authService    *service.AuthService
}

func NewVehicleHandler(vehicleService *service.VehicleService, authService *service.AuthService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService, authService: authService}
}

func (h *VehicleHandler) Register(c *gin.Context) {
	var dto domain.VehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.ContextUserIDKey)
	vehicle, err := h.vehicleService.Register(c.Request.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVehicleType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đăng ký xe"})
		}
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

func (h *VehicleHandler) ListMine(c *gin.Context) {
	userID := c.GetInt(middleware.ContextUserIDKey)
	vehicles, err := h.vehicleService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi liệt kê xe"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) Unregister(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	userID := c.GetInt(middleware.ContextUserIDKey)
	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không thể xác thực thông tin đăng nhập"})
		return
	}

	if err := h.vehicleService.Unregister(c.Request.Context(), id, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotVehicleOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi xoá xe"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
