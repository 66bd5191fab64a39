package repository

import (
	"errors"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an RFQ changed since it was read.
var ErrVersionConflict = errors.New("rfq was modified concurrently")

type RFQFilter struct {
	Status        *model.RFQStatus
	CustomerEmail string
	ProductID     *uint
	SortAscending bool
	Limit         int
	Offset        int
}

type RFQRepository interface {
	Create(rfq *model.RFQ) error
	FindByID(id uint) (*model.RFQ, error)
	List(filter RFQFilter) ([]model.RFQ, int64, error)
	UpdateWithVersion(rfq *model.RFQ, expectedVersion int) error
}

type rfqRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) RFQRepository {
	return &rfqRepository{db: db}
}

// Create inserts the RFQ with all its fields in a single transaction.
func (r *rfqRepository) Create(rfq *model.RFQ) error {
	logger.Debug("Creating RFQ in database", map[string]interface{}{
		"product_id": rfq.ProductID,
		"quantity":   rfq.Quantity,
		"size":       rfq.Size,
	})

	if rfq.Version == 0 {
		rfq.Version = 1
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(rfq).Error
	})
	if err != nil {
		logger.Error("Failed to create RFQ in database", err, map[string]interface{}{
			"product_id": rfq.ProductID,
		})
		return err
	}

	logger.Debug("RFQ created in database", map[string]interface{}{
		"rfq_id":     rfq.ID,
		"product_id": rfq.ProductID,
	})
	return nil
}

func (r *rfqRepository) FindByID(id uint) (*model.RFQ, error) {
	logger.Debug("Finding RFQ by ID in database", map[string]interface{}{
		"rfq_id": id,
	})

	var rfq model.RFQ
	if err := r.db.First(&rfq, id).Error; err != nil {
		logger.Error("Failed to find RFQ by ID in database", err, map[string]interface{}{
			"rfq_id": id,
		})
		return nil, err
	}

	logger.Debug("RFQ found by ID in database", map[string]interface{}{
		"rfq_id":  rfq.ID,
		"status":  rfq.Status,
		"version": rfq.Version,
	})
	return &rfq, nil
}

func (r *rfqRepository) List(filter RFQFilter) ([]model.RFQ, int64, error) {
	logger.Debug("Listing RFQs in database", map[string]interface{}{
		"status":         filter.Status,
		"customer_email": filter.CustomerEmail,
		"product_id":     filter.ProductID,
		"limit":          filter.Limit,
		"offset":         filter.Offset,
	})

	query := r.db.Model(&model.RFQ{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CustomerEmail != "" {
		query = query.Where("customer_email = ?", filter.CustomerEmail)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count RFQs in database", err)
		return nil, 0, err
	}

	order := "created_at DESC, id DESC"
	if filter.SortAscending {
		order = "created_at ASC, id ASC"
	}
	query = query.Order(order)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rfqs []model.RFQ
	if err := query.Find(&rfqs).Error; err != nil {
		logger.Error("Failed to list RFQs in database", err)
		return nil, 0, err
	}

	logger.Debug("RFQs listed in database", map[string]interface{}{
		"count": len(rfqs),
		"total": total,
	})
	return rfqs, total, nil
}

// UpdateWithVersion writes the mutable RFQ fields only if the stored version
// still equals expectedVersion, then bumps the version.
func (r *rfqRepository) UpdateWithVersion(rfq *model.RFQ, expectedVersion int) error {
	logger.Debug("Updating RFQ in database", map[string]interface{}{
		"rfq_id":           rfq.ID,
		"status":           rfq.Status,
		"expected_version": expectedVersion,
	})

	updates := map[string]interface{}{
		"status":                         rfq.Status,
		"size":                           rfq.Size,
		"quantity":                       rfq.Quantity,
		"preview_url":                    rfq.PreviewURL,
		"pricing_base_price":             rfq.Pricing.BasePrice,
		"pricing_size_fee":               rfq.Pricing.SizeFee,
		"pricing_option_fees":            rfq.Pricing.OptionFees,
		"pricing_unit_price":             rfq.Pricing.UnitPrice,
		"pricing_line_total":             rfq.Pricing.LineTotal,
		"pricing_additional_costs":       rfq.Pricing.AdditionalCosts,
		"pricing_additional_costs_total": rfq.Pricing.AdditionalCostsTotal,
		"pricing_grand_total":            rfq.Pricing.GrandTotal,
		"version":                        gorm.Expr("version + 1"),
	}

	result := r.db.Model(&model.RFQ{}).
		Where("id = ? AND version = ?", rfq.ID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to update RFQ in database", result.Error, map[string]interface{}{
			"rfq_id": rfq.ID,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		logger.Warn("RFQ version conflict", map[string]interface{}{
			"rfq_id":           rfq.ID,
			"expected_version": expectedVersion,
		})
		return ErrVersionConflict
	}

	rfq.Version = expectedVersion + 1
	logger.Debug("RFQ updated in database", map[string]interface{}{
		"rfq_id":  rfq.ID,
		"status":  rfq.Status,
		"version": rfq.Version,
	})
	return nil
}
