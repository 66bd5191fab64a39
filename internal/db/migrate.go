package db

import (
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/ikkim/configurator-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every table owned by the service, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Product{},
		&model.Layer{},
		&model.RFQ{},
		&model.StaffUser{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// BootstrapAdmin creates the first admin account when no staff exist yet.
// It is a no-op when email or password is empty.
func BootstrapAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&model.StaffUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Staff users already exist, skipping admin bootstrap", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := model.StaffUser{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         model.StaffRoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		logger.Error("Failed to create bootstrap admin", err)
		return err
	}

	logger.Info("Bootstrap admin created", map[string]interface{}{
		"staff_id": admin.ID,
		"email":    admin.Email,
	})
	return nil
}
