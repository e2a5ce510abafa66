package handler

import (
	"errors"
	"net/http"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/middleware"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService     *service.AuthService
	cookieName      string
	cookieMaxAgeSec int
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		cookieName:      cfg.RefreshCookieName,
		cookieMaxAgeSec: cfg.RefreshCookieMaxAgeSec,
	}
}

// setRefreshCookie ghi refresh token vào cookie httponly. SameSite=None vì
// frontend chạy trên origin khác; None bắt buộc kèm Secure.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, refreshToken string, maxAge int) {
	c.SetSameSite(http.SameSiteNoneMode)
	c.SetCookie(h.cookieName, refreshToken, maxAge, "/", "", true, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var dto domain.RegisterUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đăng ký"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var dto domain.LoginUserDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đăng nhập"})
		}
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken, h.cookieMaxAgeSec)
	c.JSON(http.StatusOK, domain.TokenResponseDTO{AccessToken: tokens.AccessToken, TokenType: "bearer"})
}

// Refresh đọc refresh token từ cookie, xoay vòng cặp token và ghi đè cookie
// bằng refresh token mới.
func (h *AuthHandler) Refresh(c *gin.Context) {
	rawRefresh, err := c.Cookie(h.cookieName)
	if err != nil || rawRefresh == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu refresh token"})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), rawRefresh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenExpired), errors.Is(err, service.ErrTokenInvalid),
			errors.Is(err, service.ErrTokenMalformed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token không hợp lệ"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi làm mới token"})
		}
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken, h.cookieMaxAgeSec)
	c.JSON(http.StatusOK, domain.TokenResponseDTO{AccessToken: tokens.AccessToken, TokenType: "bearer"})
}

// Logout thu hồi access token hiện tại, xoá refresh token đã lưu và xoá cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetInt(middleware.ContextUserIDKey)
	rawAccess := c.GetString(middleware.ContextAccessTokenKey)

	if err := h.authService.Logout(c.Request.Context(), userID, rawAccess); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đăng xuất"})
		return
	}

	h.setRefreshCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var dto domain.ChangePasswordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt(middleware.ContextUserIDKey)
	if err := h.authService.ChangePassword(c.Request.Context(), userID, dto.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi hệ thống khi đổi mật khẩu"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt(middleware.ContextUserIDKey)
	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Không thể xác thực thông tin đăng nhập"})
		return
	}
	c.JSON(http.StatusOK, user)
}
