package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"topglass/internal/pkg/jwt"
	"topglass/internal/pkg/logger"
)

const minPasswordLength = 8

type Service struct {
	repo AdminRepository
	jwt  *jwt.Service
	log  *zap.Logger
	now  func() time.Time
	cost int
}

func NewService(repo AdminRepository, jwtService *jwt.Service, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		jwt:  jwtService,
		log:  logger.OrNop(log),
		now:  time.Now,
		cost: bcrypt.DefaultCost,
	}
}

// Login checks the credentials and returns a bearer token for the dashboard.
func (s *Service) Login(ctx context.Context, email, password, ip string) (string, *AdminUser, error) {
	admin, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrAdminNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.log.Info("admin login rejected", zap.String("email", admin.Email), zap.String("ip", ip))
		return "", nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return "", nil, ErrAdminInactive
	}

	token, err := s.jwt.GenerateToken(admin.ID, admin.Role)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	admin.LastLoginAt = &now
	admin.LastLoginIP = ip
	if err := s.repo.Update(ctx, admin); err != nil {
		s.log.Warn("admin last login update failed", zap.String("admin_id", admin.ID), zap.Error(err))
	}
	return token, admin, nil
}

func (s *Service) GetAdminByID(ctx context.Context, id string) (*AdminUser, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureAdmin creates the admin, or resets the password of an existing one.
// It reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*AdminUser, bool, error) {
	if len(password) < minPasswordLength {
		return nil, false, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, false, err
	}

	email = normalizeEmail(email)
	admin, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrAdminNotFound):
		admin = &AdminUser{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: string(hash),
			Role:         RoleAdmin,
			Name:         name,
			IsActive:     true,
		}
		if err := s.repo.Create(ctx, admin); err != nil {
			return nil, false, err
		}
		return admin, true, nil
	case err != nil:
		return nil, false, err
	}

	admin.PasswordHash = string(hash)
	admin.IsActive = true
	if name != "" {
		admin.Name = name
	}
	if err := s.repo.Update(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, false, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
