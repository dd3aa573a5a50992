// Package auth provides staff authentication.
package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/crypto"
	apperrors "github.com/wafflefiesta/waffle-fiesta-backend/internal/common/errors"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/common/jwt"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/models"
	"github.com/wafflefiesta/waffle-fiesta-backend/internal/repository"
)

// Sentinel errors, carrying the shared application error codes.
var (
	ErrAdminNotFound   = apperrors.ErrAdminNotFound
	ErrAdminDisabled   = apperrors.ErrAccountDisabled
	ErrInvalidPassword = apperrors.ErrPasswordError
)

// AuthService handles staff login and logout.
type AuthService struct {
	adminRepo  *repository.AdminRepository
	jwtManager *jwt.Manager
	tokenStore *TokenStore // nil disables revocation
}

// NewAuthService creates an AuthService.
func NewAuthService(adminRepo *repository.AdminRepository, jwtManager *jwt.Manager, tokenStore *TokenStore) *AuthService {
	return &AuthService{
		adminRepo:  adminRepo,
		jwtManager: jwtManager,
		tokenStore: tokenStore,
	}
}

// LoginRequest is a login attempt.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"`
}

// AdminInfo is the safe projection of an admin account.
type AdminInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// LoginResponse carries the token issued on login.
type LoginResponse struct {
	Admin *AdminInfo `json:"admin"`
	Token *jwt.Token `json:"token"`
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}

	if admin.Status != models.AdminStatusActive {
		return nil, ErrAdminDisabled
	}

	if !crypto.VerifyPassword(req.Password, admin.PasswordHash) {
		return nil, ErrInvalidPassword
	}

	token, err := s.jwtManager.Generate(admin.ID, admin.Role)
	if err != nil {
		return nil, err
	}

	// Login info is best effort, a failure does not block the login.
	_ = s.adminRepo.UpdateLoginInfo(ctx, admin.ID, req.IP)

	return &LoginResponse{
		Admin: toAdminInfo(admin),
		Token: token,
	}, nil
}

// Logout revokes a token for the remainder of its validity.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.tokenStore == nil {
		return nil
	}
	claims, err := s.jwtManager.Parse(token)
	if err != nil {
		// Expired or malformed tokens need no revocation.
		return nil
	}
	return s.tokenStore.Revoke(ctx, token, s.jwtManager.RemainingValidity(claims))
}

// GetAdminInfo fetches the account behind an admin id.
func (s *AuthService) GetAdminInfo(ctx context.Context, adminID int64) (*AdminInfo, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return toAdminInfo(admin), nil
}

func toAdminInfo(admin *models.Admin) *AdminInfo {
	return &AdminInfo{
		ID:       admin.ID,
		Username: admin.Username,
		Name:     admin.Name,
		Role:     admin.Role,
	}
}
