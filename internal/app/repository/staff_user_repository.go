package repository

import (
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

type StaffUserRepository interface {
	Create(user *model.StaffUser) error
	FindByID(id uint) (*model.StaffUser, error)
	FindByEmail(email string) (*model.StaffUser, error)
	TouchLastLogin(id uint, at time.Time) error
}

type staffUserRepository struct {
	db *gorm.DB
}

func NewStaffUserRepository(db *gorm.DB) StaffUserRepository {
	return &staffUserRepository{db: db}
}

func (r *staffUserRepository) Create(user *model.StaffUser) error {
	logger.Debug("Creating staff user in database", map[string]interface{}{
		"email": user.Email,
		"role":  user.Role,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create staff user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}
	return nil
}

func (r *staffUserRepository) FindByID(id uint) (*model.StaffUser, error) {
	var user model.StaffUser
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Error("Failed to find staff user by ID in database", err, map[string]interface{}{
			"staff_id": id,
		})
		return nil, err
	}
	return &user, nil
}

func (r *staffUserRepository) FindByEmail(email string) (*model.StaffUser, error) {
	logger.Debug("Finding staff user by email in database", map[string]interface{}{
		"email": email,
	})

	var user model.StaffUser
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find staff user by email in database", err, map[string]interface{}{
				"email": email,
			})
		}
		return nil, err
	}
	return &user, nil
}

func (r *staffUserRepository) TouchLastLogin(id uint, at time.Time) error {
	return r.db.Model(&model.StaffUser{}).Where("id = ?", id).Update("last_login_at", at).Error
}
