package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/ikkim/configurator-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRFQNotFound       = errors.New("rfq not found")
	ErrInvalidStatus     = errors.New("unknown rfq status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrRFQConflict       = errors.New("rfq was modified by someone else")
	ErrRFQAccessDenied   = errors.New("rfq access denied")
	ErrRFQClosed         = errors.New("rfq is closed")
	ErrInvalidCustomer   = errors.New("invalid customer info")
)

const (
	defaultRFQPageSize = 20
	maxRFQPageSize     = 100
)

type ActorKind string

const (
	ActorStaff    ActorKind = "staff"
	ActorCustomer ActorKind = "customer"
)

// Actor identifies who requests an RFQ change. Customers prove ownership
// with the RFQ access token.
type Actor struct {
	Kind        ActorKind
	StaffID     uint
	AccessToken string
}

func StaffActor(staffID uint) Actor {
	return Actor{Kind: ActorStaff, StaffID: staffID}
}

func CustomerActor(token string) Actor {
	return Actor{Kind: ActorCustomer, AccessToken: token}
}

type SubmitRequest struct {
	ProductID     uint
	Configuration model.Configuration
	Customer      model.CustomerInfo
}

// PricingUpdate changes the inputs of an RFQ price. Nil fields keep their
// current value; a non-nil empty AdditionalCosts clears the cost lines.
type PricingUpdate struct {
	BasePrice       *decimal.Decimal
	Size            *string
	Quantity        *int
	AdditionalCosts *[]model.AdditionalCost
}

type RFQListOptions struct {
	Status        *model.RFQStatus
	CustomerEmail string
	ProductID     *uint
	Page          int
	PerPage       int
	SortAscending bool
}

type RFQPage struct {
	Items   []model.RFQ
	Total   int64
	Page    int
	PerPage int
}

type RFQService interface {
	Submit(ctx context.Context, req SubmitRequest) (*model.RFQ, error)
	Get(id uint) (*model.RFQ, error)
	GetForCustomer(id uint, accessToken string) (*model.RFQ, error)
	List(opts RFQListOptions) (*RFQPage, error)
	UpdatePricing(ctx context.Context, id uint, update PricingUpdate, expectedVersion *int) (*model.RFQ, error)
	Transition(ctx context.Context, id uint, next model.RFQStatus, actor Actor, expectedVersion *int) (*model.RFQ, error)
	AttachPreview(ctx context.Context, id uint) (*model.RFQ, error)
}

type rfqService struct {
	rfqRepo           repository.RFQRepository
	productRepo       repository.ProductRepository
	validator         *ConfigurationValidator
	pricing           *PricingCalculator
	previews          PreviewService
	notifier          notification.Notifier
	strictTransitions bool
}

// NewRFQService wires the RFQ workflow. previews and notifier may be nil.
func NewRFQService(
	rfqRepo repository.RFQRepository,
	productRepo repository.ProductRepository,
	validator *ConfigurationValidator,
	pricing *PricingCalculator,
	previews PreviewService,
	notifier notification.Notifier,
	strictTransitions bool,
) RFQService {
	return &rfqService{
		rfqRepo:           rfqRepo,
		productRepo:       productRepo,
		validator:         validator,
		pricing:           pricing,
		previews:          previews,
		notifier:          notifier,
		strictTransitions: strictTransitions,
	}
}

func normalizeCustomer(c model.CustomerInfo) (model.CustomerInfo, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Message = strings.TrimSpace(c.Message)

	if c.Name == "" {
		return c, fmt.Errorf("%w: name is required", ErrInvalidCustomer)
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email {
		return c, fmt.Errorf("%w: a valid email is required", ErrInvalidCustomer)
	}
	return c, nil
}

func (s *rfqService) Submit(ctx context.Context, req SubmitRequest) (*model.RFQ, error) {
	logger.Debug("Submitting RFQ", map[string]interface{}{
		"product_id": req.ProductID,
	})

	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindWithLayers(req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	confirmed, err := s.validator.Validate(product, req.Configuration, ValidateForSubmission)
	if err != nil {
		logger.Info("RFQ rejected by validation", map[string]interface{}{
			"product_id": req.ProductID,
			"reason":     err.Error(),
		})
		return nil, err
	}

	frozen := FreezeSelections(confirmed)
	quantity := *req.Configuration.Quantity
	snapshot, err := s.pricing.Compute(s.pricing.InputFor(product, frozen, req.Configuration.Size, quantity, nil))
	if err != nil {
		return nil, err
	}

	rfq := &model.RFQ{
		ProductID:   product.ID,
		ProductName: product.Name,
		Size:        req.Configuration.Size,
		Quantity:    quantity,
		Customer:    customer,
		Status:      model.RFQStatusNew,
		Pricing:     snapshot,
		AccessToken: util.NewAccessToken(),
	}
	rfq.Selections = datatypes.NewJSONType(frozen)

	if err := s.rfqRepo.Create(rfq); err != nil {
		logger.Error("Failed to create RFQ", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, err
	}

	logger.Info("RFQ submitted", map[string]interface{}{
		"rfq_id":      rfq.ID,
		"product_id":  product.ID,
		"quantity":    quantity,
		"grand_total": rfq.Pricing.GrandTotal.String(),
	})

	s.dispatch(ctx, notification.NewCreatedEvent(*rfq))
	return rfq, nil
}

func (s *rfqService) find(id uint) (*model.RFQ, error) {
	rfq, err := s.rfqRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRFQNotFound
		}
		logger.Error("Failed to fetch RFQ", err, map[string]interface{}{
			"rfq_id": id,
		})
		return nil, err
	}
	return rfq, nil
}

func (s *rfqService) Get(id uint) (*model.RFQ, error) {
	return s.find(id)
}

// GetForCustomer hides the existence of RFQs behind a wrong token.
func (s *rfqService) GetForCustomer(id uint, accessToken string) (*model.RFQ, error) {
	rfq, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !tokenMatches(rfq.AccessToken, accessToken) {
		logger.Warn("RFQ access denied", map[string]interface{}{
			"rfq_id": id,
		})
		return nil, ErrRFQNotFound
	}
	return rfq, nil
}

func tokenMatches(expected, given string) bool {
	if expected == "" || given == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

func (s *rfqService) List(opts RFQListOptions) (*RFQPage, error) {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultRFQPageSize
	}
	if perPage > maxRFQPageSize {
		perPage = maxRFQPageSize
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	items, total, err := s.rfqRepo.List(repository.RFQFilter{
		Status:        opts.Status,
		CustomerEmail: strings.TrimSpace(opts.CustomerEmail),
		ProductID:     opts.ProductID,
		SortAscending: opts.SortAscending,
		Limit:         perPage,
		Offset:        (page - 1) * perPage,
	})
	if err != nil {
		logger.Error("Failed to list RFQs", err)
		return nil, err
	}

	return &RFQPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

func checkVersion(rfq *model.RFQ, expected *int) error {
	if expected != nil && *expected != rfq.Version {
		return ErrRFQConflict
	}
	return nil
}

// save writes rfq guarded by its current version.
func (s *rfqService) save(rfq *model.RFQ) error {
	if err := s.rfqRepo.UpdateWithVersion(rfq, rfq.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrRFQConflict
		}
		return err
	}
	return nil
}

// UpdatePricing recomputes the price from the frozen selection. The
// selection is never re-validated against the live catalog.
func (s *rfqService) UpdatePricing(ctx context.Context, id uint, update PricingUpdate, expectedVersion *int) (*model.RFQ, error) {
	rfq, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(rfq, expectedVersion); err != nil {
		return nil, err
	}
	if rfq.Status.IsTerminal() {
		return nil, ErrRFQClosed
	}

	basePrice := rfq.Pricing.BasePrice
	if update.BasePrice != nil {
		basePrice = *update.BasePrice
	}

	var product *model.Product
	if update.Size != nil || update.Quantity != nil {
		product, err = s.productRepo.FindByID(rfq.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrProductNotFound
			}
			return nil, err
		}
	}

	size := rfq.Size
	sizeFee := rfq.Pricing.SizeFee
	if update.Size != nil && *update.Size != rfq.Size {
		fee, ok := product.SizeTable()[*update.Size]
		if !ok {
			return nil, &ValidationError{
				Kind:    KindInvalidSize,
				Field:   "size",
				Message: fmt.Sprintf("Size %q is not available for this product", *update.Size),
			}
		}
		size, sizeFee = *update.Size, fee
	}

	quantity := rfq.Quantity
	if update.Quantity != nil {
		minimum := s.validator.MinimumQuantity(product)
		if *update.Quantity < minimum {
			return nil, &ValidationError{
				Kind:    KindQuantityTooLow,
				Field:   "quantity",
				Minimum: minimum,
				Message: fmt.Sprintf("Minimum order quantity is %d", minimum),
			}
		}
		quantity = *update.Quantity
	}

	costs := rfq.Pricing.AdditionalCosts.Data()
	if update.AdditionalCosts != nil {
		costs = *update.AdditionalCosts
		for _, c := range costs {
			if strings.TrimSpace(c.Description) == "" {
				return nil, fmt.Errorf("%w: additional cost needs a description", ErrInvalidPricing)
			}
		}
	}

	snapshot, err := s.pricing.Compute(PricingInput{
		BasePrice:       basePrice,
		SizeFee:         sizeFee,
		Selections:      rfq.Selections.Data(),
		Quantity:        quantity,
		AdditionalCosts: costs,
	})
	if err != nil {
		return nil, err
	}

	rfq.Size = size
	rfq.Quantity = quantity
	rfq.Pricing = snapshot
	if err := s.save(rfq); err != nil {
		return nil, err
	}

	logger.Info("RFQ pricing updated", map[string]interface{}{
		"rfq_id":      rfq.ID,
		"grand_total": rfq.Pricing.GrandTotal.String(),
		"version":     rfq.Version,
	})
	return rfq, nil
}

// Transition moves an RFQ to next after checking the status graph and the
// actor's rights, then emits a status_changed event.
func (s *rfqService) Transition(ctx context.Context, id uint, next model.RFQStatus, actor Actor, expectedVersion *int) (*model.RFQ, error) {
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}

	rfq, err := s.find(id)
	if err != nil {
		return nil, err
	}

	current := rfq.Status
	switch actor.Kind {
	case ActorStaff:
	case ActorCustomer:
		if !tokenMatches(rfq.AccessToken, actor.AccessToken) {
			return nil, ErrRFQAccessDenied
		}
		if !current.CustomerMayTransition(next) {
			return nil, ErrInvalidTransition
		}
	default:
		return nil, ErrRFQAccessDenied
	}

	if !current.CanTransitionTo(next, s.strictTransitions) {
		logger.Warn("Rejected RFQ status transition", map[string]interface{}{
			"rfq_id": id,
			"from":   current,
			"to":     next,
		})
		return nil, ErrInvalidTransition
	}
	if err := checkVersion(rfq, expectedVersion); err != nil {
		return nil, err
	}

	rfq.Status = next
	if err := s.save(rfq); err != nil {
		return nil, err
	}

	logger.Info("RFQ status changed", map[string]interface{}{
		"rfq_id":   rfq.ID,
		"from":     current,
		"to":       next,
		"actor":    actor.Kind,
		"staff_id": actor.StaffID,
		"version":  rfq.Version,
	})

	s.dispatch(ctx, notification.NewStatusChangedEvent(*rfq, current, next))
	return rfq, nil
}

func (s *rfqService) AttachPreview(ctx context.Context, id uint) (*model.RFQ, error) {
	if s.previews == nil {
		return nil, ErrPreviewUnavailable
	}
	rfq, err := s.find(id)
	if err != nil {
		return nil, err
	}

	url, err := s.previews.RenderRFQPreview(ctx, rfq)
	if err != nil {
		return nil, err
	}

	rfq.PreviewURL = url
	if err := s.save(rfq); err != nil {
		return nil, err
	}
	return rfq, nil
}

func (s *rfqService) dispatch(ctx context.Context, event notification.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		logger.Error("Failed to dispatch RFQ event", err, map[string]interface{}{
			"rfq_id": event.RFQ.ID,
			"event":  event.Type,
		})
	}
}
