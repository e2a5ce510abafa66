package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/middleware"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

// Validate đối soát một lần camera nhìn thấy biển số.
func (h *ActivityHandler) Validate(c *gin.Context) {
	var dto domain.ValidateActivityDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.ContextUserIDKey)
	entry, err := h.activityService.Validate(c.Request.Context(), userID, dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidActivityType),
			errors.Is(err, service.ErrInvalidTimestamp),
			errors.Is(err, service.ErrInvalidVehicleType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đối soát"})
		}
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// ValidateBatch đối soát một lô; bản ghi không hợp lệ bị bỏ qua và đếm vào
// skipped thay vì làm hỏng cả lô.
func (h *ActivityHandler) ValidateBatch(c *gin.Context) {
	var dtos []domain.ValidateActivityDTO
	if err := c.ShouldBindJSON(&dtos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.ContextUserIDKey)
	result, err := h.activityService.ValidateBatch(c.Request.Context(), userID, dtos)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đối soát lô"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// List liệt kê sổ hoạt động, mặc định 24 giờ gần nhất, mới nhất trước.
func (h *ActivityHandler) List(c *gin.Context) {
	filter := domain.ActivityLogFilter{
		FromTime: time.Now().UTC().Add(-24 * time.Hour),
		ToTime:   time.Now().UTC(),
		SortDesc: true,
	}

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from phải theo định dạng RFC3339"})
			return
		}
		filter.FromTime = parsed.UTC()
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to phải theo định dạng RFC3339"})
			return
		}
		filter.ToTime = parsed.UTC()
	}
	if raw := c.Query("parking_lot_id"); raw != "" {
		lotID, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parking_lot_id không hợp lệ"})
			return
		}
		filter.ParkingLotID = &lotID
	}
	if raw := c.Query("license_plate"); raw != "" {
		filter.LicensePlate = &raw
	}
	if c.Query("sort") == "asc" {
		filter.SortDesc = false
	}

	logs, err := h.activityService.Find(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi truy vấn sổ hoạt động"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
