package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AnHaiTrinh/SmartParkingLot/internal/config"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/domain"
	"github.com/AnHaiTrinh/SmartParkingLot/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("tên đăng nhập hoặc mật khẩu không đúng")
var ErrUserAlreadyExists = errors.New("tên người dùng đã tồn tại")
var ErrUserInactive = errors.New("tài khoản đã bị vô hiệu hoá")

// Các lỗi token được phân biệt nội bộ để log và test; ra ngoài middleware
// gộp tất cả thành một thông điệp duy nhất, không tiết lộ lý do cụ thể.
var ErrTokenMalformed = errors.New("token có định dạng sai")
var ErrTokenExpired = errors.New("token đã hết hạn")
var ErrTokenInvalid = errors.New("token không hợp lệ")
var ErrTokenRevoked = errors.New("token đã bị thu hồi")

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
}

type AuthService struct {
	userRepo      repository.UserRepository
	revokedRepo   repository.RevokedTokenRepository
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewAuthService(userRepo repository.UserRepository, revokedRepo repository.RevokedTokenRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		revokedRepo:   revokedRepo,
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
	}
}

func (s *AuthService) secretFor(kind TokenKind) []byte {
	if kind == TokenRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}

// IssueToken tạo JWT HS256 với hạn dùng ttl. Access token không được lưu ở
// đâu cả; refresh token do caller chịu trách nhiệm ghi đè lên user row.
func (s *AuthService) IssueToken(userID int, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_type": string(kind),
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
		// exp/iat chỉ chính xác đến giây; jti đảm bảo hai token phát hành
		// trong cùng một giây vẫn khác nhau, để xoay vòng luôn vô hiệu chuỗi cũ
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretFor(kind))
	if err != nil {
		return "", fmt.Errorf("lỗi ký token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) parseToken(raw string, kind TokenKind) (int, time.Time, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không mong muốn: %v", token.Header["alg"])
		}
		return s.secretFor(kind), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, time.Time{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, time.Time{}, ErrTokenExpired
		default:
			return 0, time.Time{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}
	if !token.Valid {
		return 0, time.Time{}, ErrTokenInvalid
	}

	tokenType, _ := claims["token_type"].(string)
	if tokenType != string(kind) {
		return 0, time.Time{}, ErrTokenInvalid
	}
	userIDClaim, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, ErrTokenInvalid
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, time.Time{}, ErrTokenInvalid
	}
	return int(userIDClaim), exp.Time, nil
}

// VerifyAccessToken kiểm tra registry thu hồi TRƯỚC khi kiểm tra chữ ký:
// token đã thu hồi bị từ chối ngay cả khi chữ ký và hạn dùng còn hợp lệ.
func (s *AuthService) VerifyAccessToken(ctx context.Context, raw string) (int, error) {
	revoked, err := s.revokedRepo.IsRevoked(ctx, raw)
	if err != nil {
		return 0, fmt.Errorf("lỗi tra cứu registry thu hồi: %w", err)
	}
	if revoked {
		return 0, ErrTokenRevoked
	}
	userID, _, err := s.parseToken(raw, TokenAccess)
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	user := &domain.User{
		Username: dto.Username,
		Password: string(hashedPassword),
	}
	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("lỗi khi tạo người dùng: %w", err)
	}
	createdUser.Password = ""
	return createdUser, nil
}

// Login xác thực mật khẩu rồi phát hành cặp access + refresh. Refresh token
// mới ghi đè token cũ trên user row: mỗi user chỉ có một refresh token
// hiệu lực tại một thời điểm.
func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*AuthTokens, error) {
	user, err := s.userRepo.FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lỗi khi tìm người dùng: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(ctx, user.ID)
}

// Refresh xoay vòng refresh token: token cũ bị ghi đè ngay nên chuỗi cũ
// không còn khớp với user row ở lần dùng sau.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*AuthTokens, error) {
	user, err := s.userRepo.FindByRefreshToken(ctx, rawRefresh)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("lỗi khi tìm người dùng theo refresh token: %w", err)
	}

	userID, _, err := s.parseToken(rawRefresh, TokenRefresh)
	if err != nil {
		return nil, err
	}
	if userID != user.ID {
		return nil, ErrTokenInvalid
	}

	return s.issuePair(ctx, user.ID)
}

func (s *AuthService) issuePair(ctx context.Context, userID int) (*AuthTokens, error) {
	accessToken, err := s.IssueToken(userID, TokenAccess, s.accessExpiry)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.IssueToken(userID, TokenRefresh, s.refreshExpiry)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, fmt.Errorf("lỗi lưu refresh token: %w", err)
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout xoá refresh token đã lưu và đưa access token đang dùng vào registry
// thu hồi với TTL bằng thời gian sống còn lại, để bản ghi tự hết hạn.
func (s *AuthService) Logout(ctx context.Context, userID int, rawAccess string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("lỗi xoá refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.accessExpiry)
	if _, exp, err := s.parseToken(rawAccess, TokenAccess); err == nil {
		expiresAt = exp
	}
	if err := s.revokedRepo.Insert(ctx, rawAccess, expiresAt); err != nil {
		return fmt.Errorf("lỗi ghi registry thu hồi: %w", err)
	}
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, string(hashedPassword))
}

func (s *AuthService) GetUserByID(ctx context.Context, userID int) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
