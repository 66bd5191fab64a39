package service

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/ikkim/configurator-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrStaffNotFound      = errors.New("staff user not found")
	ErrInvalidStaffInput  = errors.New("invalid staff user")
)

// LoginResult carries the signed access token for a staff session.
type LoginResult struct {
	Staff       *model.StaffUser
	AccessToken string
	ExpiresAt   time.Time
}

type AuthService interface {
	Login(email, password string) (*LoginResult, error)
	GetStaffByID(id uint) (*model.StaffUser, error)
	CreateStaff(email, password, name string, role model.StaffRole) (*model.StaffUser, error)
}

type authService struct {
	staffRepo    repository.StaffUserRepository
	jwtSecret    string
	accessExpiry time.Duration
	now          func() time.Time
}

func NewAuthService(
	staffRepo repository.StaffUserRepository,
	jwtSecret string,
	accessExpiry time.Duration,
) AuthService {
	return &authService{
		staffRepo:    staffRepo,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
		now:          time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Login(email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	staff, err := s.staffRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: staff user not found", map[string]interface{}{
				"email": email,
			})
			return nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find staff user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	if !util.VerifyPassword(staff.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":    email,
			"staff_id": staff.ID,
		})
		return nil, ErrInvalidCredentials
	}

	token, err := util.GenerateToken(staff.ID, staff.Email, string(staff.Role), s.jwtSecret, s.accessExpiry)
	if err != nil {
		logger.Error("Failed to generate token", err, map[string]interface{}{
			"staff_id": staff.ID,
		})
		return nil, err
	}

	now := s.now()
	if err := s.staffRepo.TouchLastLogin(staff.ID, now); err != nil {
		// login still succeeds; the timestamp is informational
		logger.Warn("Failed to record last login", map[string]interface{}{
			"staff_id": staff.ID,
			"error":    err.Error(),
		})
	}

	logger.Info("Staff logged in successfully", map[string]interface{}{
		"staff_id": staff.ID,
		"role":     staff.Role,
	})
	return &LoginResult{
		Staff:       staff,
		AccessToken: token,
		ExpiresAt:   now.Add(s.accessExpiry),
	}, nil
}

func (s *authService) GetStaffByID(id uint) (*model.StaffUser, error) {
	staff, err := s.staffRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		logger.Error("Failed to fetch staff user", err, map[string]interface{}{
			"staff_id": id,
		})
		return nil, err
	}
	return staff, nil
}

func (s *authService) CreateStaff(email, password, name string, role model.StaffRole) (*model.StaffUser, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidStaffInput
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidStaffInput
	}
	if role == "" {
		role = model.StaffRoleStaff
	}
	if role != model.StaffRoleStaff && role != model.StaffRoleAdmin {
		return nil, ErrInvalidStaffInput
	}

	if _, err := s.staffRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	staff := &model.StaffUser{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
	}
	if err := s.staffRepo.Create(staff); err != nil {
		logger.Error("Failed to create staff user", err, map[string]interface{}{
			"email": email,
		})
		return nil, err
	}

	logger.Info("Staff user created", map[string]interface{}{
		"staff_id": staff.ID,
		"role":     staff.Role,
	})
	return staff, nil
}
