package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/api/handler"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/service"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		RefreshCookieName:  "jwt",
		JWTAccessSecret:    "access-secret-test",
		JWTRefreshSecret:   "refresh-secret-test",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
	svc := Services{Auth: service.NewAuthService(nil, nil, cfg)}
	return SetupRouter(cfg, svc, handler.NewWebSocketManager(nil))
}

// Refresh token nằm trong cookie httponly nên endpoint làm mới là GET;
// không có cookie thì trả 401 ngay, không đụng tới tầng dưới.
func TestRefreshRouteIsCookieDrivenGet(t *testing.T) {
	r := newTestRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/refresh", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for GET without cookie, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for POST, got %d", w.Code)
	}
}
