package service

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ikkim/configurator-backend/internal/app/model"
)

var ErrValidation = errors.New("configuration is invalid")

type ValidationErrorKind string

const (
	KindMissingLayerSelection ValidationErrorKind = "MissingLayerSelection"
	KindInvalidSelection      ValidationErrorKind = "InvalidSelection"
	KindInvalidSize           ValidationErrorKind = "InvalidSize"
	KindQuantityTooLow        ValidationErrorKind = "QuantityTooLow"
	KindMissingSize           ValidationErrorKind = "MissingSize"
	KindMissingQuantity       ValidationErrorKind = "MissingQuantity"
	KindInvalidConfiguration  ValidationErrorKind = "InvalidConfiguration"
)

// ValidationError describes the first problem found in a configuration.
// Field is "layers", "size" or "quantity".
type ValidationError struct {
	Kind      ValidationErrorKind
	Field     string
	LayerID   uint
	LayerName string
	Minimum   int
	Message   string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidationMode selects which parts of a configuration must be present.
type ValidationMode int

const (
	// ValidateSelections checks layers plus size and quantity when supplied.
	ValidateSelections ValidationMode = iota
	// ValidateForSubmission additionally requires size and quantity.
	ValidateForSubmission
)

// ConfigurationValidator checks client selections against a product's
// layer catalog. It has no side effects.
type ConfigurationValidator struct {
	defaultMinQuantity int
}

func NewConfigurationValidator(defaultMinQuantity int) *ConfigurationValidator {
	if defaultMinQuantity <= 0 {
		defaultMinQuantity = model.DefaultMinQuantity
	}
	return &ConfigurationValidator{defaultMinQuantity: defaultMinQuantity}
}

// Validate returns the confirmed selections in layer position order, or a
// *ValidationError. product must have its layers loaded.
func (v *ConfigurationValidator) Validate(product *model.Product, cfg model.Configuration, mode ValidationMode) ([]model.ConfirmedSelection, error) {
	layers := product.OrderedLayers()
	known := make(map[uint]bool, len(layers))
	confirmed := make([]model.ConfirmedSelection, 0, len(cfg.Layers))

	for _, layer := range layers {
		known[layer.ID] = true
		if layer.Type == model.LayerTypeBase {
			continue
		}

		picked, ok := cfg.Layers[layer.ID]
		if !ok {
			if layer.Type.RequiresSelection() {
				return nil, &ValidationError{
					Kind:      KindMissingLayerSelection,
					Field:     "layers",
					LayerID:   layer.ID,
					LayerName: layer.Name,
					Message:   fmt.Sprintf("Please select an option for %s", layer.Name),
				}
			}
			continue
		}

		option, found := layer.FindOption(picked.Name, picked.Value)
		if !found {
			return nil, &ValidationError{
				Kind:      KindInvalidSelection,
				Field:     "layers",
				LayerID:   layer.ID,
				LayerName: layer.Name,
				Message:   fmt.Sprintf("Invalid selection for %s", layer.Name),
			}
		}

		value, err := model.ParseOptionValue(option.Value)
		if err != nil || !layer.Type.Accepts(value.Kind) {
			return nil, &ValidationError{
				Kind:      KindInvalidConfiguration,
				Field:     "layers",
				LayerID:   layer.ID,
				LayerName: layer.Name,
				Message:   fmt.Sprintf("Option %q on %s does not match the layer type", option.Name, layer.Name),
			}
		}

		confirmed = append(confirmed, model.ConfirmedSelection{
			Layer:  layer,
			Option: option,
			Value:  value,
		})
	}

	if err := checkUnknownLayers(cfg.Layers, known); err != nil {
		return nil, err
	}

	if err := v.checkSize(product, cfg.Size, mode); err != nil {
		return nil, err
	}

	if err := v.checkQuantity(product, cfg.Quantity, mode); err != nil {
		return nil, err
	}

	return confirmed, nil
}

// MinimumQuantity returns the effective minimum for product.
func (v *ConfigurationValidator) MinimumQuantity(product *model.Product) int {
	return product.MinimumQuantity(v.defaultMinQuantity)
}

func checkUnknownLayers(selection model.Selection, known map[uint]bool) error {
	ids := make([]uint, 0, len(selection))
	for id := range selection {
		if !known[id] {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return &ValidationError{
		Kind:    KindInvalidSelection,
		Field:   "layers",
		LayerID: ids[0],
		Message: fmt.Sprintf("Layer %d does not belong to this product", ids[0]),
	}
}

func (v *ConfigurationValidator) checkSize(product *model.Product, size string, mode ValidationMode) error {
	if size == "" {
		if mode == ValidateForSubmission {
			return &ValidationError{Kind: KindMissingSize, Field: "size", Message: "Size is required"}
		}
		return nil
	}
	if _, ok := product.SizeTable()[size]; !ok {
		return &ValidationError{
			Kind:    KindInvalidSize,
			Field:   "size",
			Message: fmt.Sprintf("Size %q is not available for this product", size),
		}
	}
	return nil
}

func (v *ConfigurationValidator) checkQuantity(product *model.Product, quantity *int, mode ValidationMode) error {
	if quantity == nil {
		if mode == ValidateForSubmission {
			return &ValidationError{Kind: KindMissingQuantity, Field: "quantity", Message: "Quantity is required"}
		}
		return nil
	}
	minimum := v.MinimumQuantity(product)
	if *quantity < minimum {
		return &ValidationError{
			Kind:    KindQuantityTooLow,
			Field:   "quantity",
			Minimum: minimum,
			Message: fmt.Sprintf("Minimum order quantity is %d", minimum),
		}
	}
	return nil
}

// FreezeSelections copies confirmed selections into the form stored on an
// RFQ, carrying each option's fee.
func FreezeSelections(confirmed []model.ConfirmedSelection) model.Selection {
	frozen := make(model.Selection, len(confirmed))
	for _, c := range confirmed {
		frozen[c.Layer.ID] = model.SelectedOption{
			Name:  c.Option.Name,
			Value: c.Option.Value,
			Fee:   c.Option.Fee,
		}
	}
	return frozen
}
