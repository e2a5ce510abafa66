package handler

import (
	"errors"
	"net/http"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservationService *service.ReservationService
}

func NewReservationHandler(reservationService *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// Reserve nhận yêu cầu đặt chỗ và đẩy vào hàng đợi sự kiện. 204 nghĩa là
// broker đã xác nhận nhận message, không phải là chỗ chắc chắn còn trống:
// consumer phía sau mới là nơi quyết định.
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var dto domain.ReserveOrderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.reservationService.Reserve(c.Request.Context(), dto); err != nil {
		if errors.Is(err, service.ErrPublishFailed) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrPublishFailed.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đặt chỗ"})
		return
	}
	c.Status(http.StatusNoContent)
}
