package service

import (
	"errors"
	"testing"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func requireValidationKind(t *testing.T, err error, kind ValidationErrorKind) *ValidationError {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, kind, verr.Kind)
	return verr
}

func TestConfigurationValidator_ValidJersey(t *testing.T) {
	v := NewConfigurationValidator(4)

	confirmed, err := v.Validate(jerseyProduct(), jerseyConfiguration(4), ValidateForSubmission)
	require.NoError(t, err)
	require.Len(t, confirmed, 2)
	assert.Equal(t, "Lycra", confirmed[0].Layer.Name)
	assert.Equal(t, model.OptionValueColor, confirmed[0].Value.Kind)
	assert.Equal(t, uint8(255), confirmed[0].Value.Color.R)
	assert.Equal(t, "Trim", confirmed[1].Layer.Name)
}

func TestConfigurationValidator_MissingEachRequiredLayer(t *testing.T) {
	v := NewConfigurationValidator(4)

	for _, layerID := range []uint{2, 3} {
		cfg := jerseyConfiguration(4)
		delete(cfg.Layers, layerID)

		_, err := v.Validate(jerseyProduct(), cfg, ValidateSelections)
		verr := requireValidationKind(t, err, KindMissingLayerSelection)
		assert.Equal(t, layerID, verr.LayerID)
		assert.Contains(t, verr.Message, verr.LayerName)
	}
}

func TestConfigurationValidator_AlteredValueIsInvalid(t *testing.T) {
	v := NewConfigurationValidator(4)

	tests := []struct {
		name   string
		option model.SelectedOption
	}{
		{"value off by one char", model.SelectedOption{Name: "Red", Value: "#ff0001"}},
		{"value case differs", model.SelectedOption{Name: "Red", Value: "#FF0000"}},
		{"name differs", model.SelectedOption{Name: "red", Value: "#ff0000"}},
		{"trailing space", model.SelectedOption{Name: "Red ", Value: "#ff0000"}},
		{"option of other layer", model.SelectedOption{Name: "White", Value: "#ffffff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := jerseyConfiguration(4)
			cfg.Layers[2] = tt.option

			_, err := v.Validate(jerseyProduct(), cfg, ValidateSelections)
			verr := requireValidationKind(t, err, KindInvalidSelection)
			assert.Equal(t, uint(2), verr.LayerID)
			assert.Equal(t, "Lycra", verr.LayerName)
		})
	}
}

func TestConfigurationValidator_UnknownLayer(t *testing.T) {
	v := NewConfigurationValidator(4)
	cfg := jerseyConfiguration(4)
	cfg.Layers[99] = model.SelectedOption{Name: "Red", Value: "#ff0000"}

	_, err := v.Validate(jerseyProduct(), cfg, ValidateSelections)
	verr := requireValidationKind(t, err, KindInvalidSelection)
	assert.Equal(t, uint(99), verr.LayerID)
}

func TestConfigurationValidator_QuantityTooLow(t *testing.T) {
	v := NewConfigurationValidator(4)

	_, err := v.Validate(jerseyProduct(), jerseyConfiguration(2), ValidateForSubmission)
	verr := requireValidationKind(t, err, KindQuantityTooLow)
	assert.Equal(t, 4, verr.Minimum)
	assert.Equal(t, "quantity", verr.Field)
}

func TestConfigurationValidator_DefaultMinimumApplies(t *testing.T) {
	v := NewConfigurationValidator(6)
	product := jerseyProduct()
	product.MinQuantity = 0

	_, err := v.Validate(product, jerseyConfiguration(5), ValidateSelections)
	verr := requireValidationKind(t, err, KindQuantityTooLow)
	assert.Equal(t, 6, verr.Minimum)
}

func TestConfigurationValidator_Size(t *testing.T) {
	v := NewConfigurationValidator(4)

	cfg := jerseyConfiguration(4)
	cfg.Size = "5XL"
	_, err := v.Validate(jerseyProduct(), cfg, ValidateSelections)
	requireValidationKind(t, err, KindInvalidSize)

	product := jerseyProduct()
	product.SizeFees = datatypes.NewJSONType(map[string]decimal.Decimal{"Kids": decimal.Zero})
	cfg.Size = "M"
	_, err = v.Validate(product, cfg, ValidateSelections)
	requireValidationKind(t, err, KindInvalidSize)

	cfg.Size = "Kids"
	_, err = v.Validate(product, cfg, ValidateSelections)
	assert.NoError(t, err)
}

func TestConfigurationValidator_SubmissionRequiresSizeAndQuantity(t *testing.T) {
	v := NewConfigurationValidator(4)

	cfg := jerseyConfiguration(4)
	cfg.Size = ""
	_, err := v.Validate(jerseyProduct(), cfg, ValidateSelections)
	assert.NoError(t, err)
	_, err = v.Validate(jerseyProduct(), cfg, ValidateForSubmission)
	requireValidationKind(t, err, KindMissingSize)

	cfg = jerseyConfiguration(4)
	cfg.Quantity = nil
	_, err = v.Validate(jerseyProduct(), cfg, ValidateSelections)
	assert.NoError(t, err)
	_, err = v.Validate(jerseyProduct(), cfg, ValidateForSubmission)
	requireValidationKind(t, err, KindMissingQuantity)
}

func TestConfigurationValidator_OptionalLayer(t *testing.T) {
	v := NewConfigurationValidator(4)
	product := jerseyProduct()
	product.Layers = append(product.Layers, model.Layer{
		ID: 4, ProductID: 7, Name: "Crest", Type: model.LayerTypeOptional, Position: 3,
		Options: datatypes.NewJSONType([]model.Option{{Name: "Lion", Value: "patterns/lion.png"}}),
	})

	// optional layers may be left out
	_, err := v.Validate(product, jerseyConfiguration(4), ValidateForSubmission)
	require.NoError(t, err)

	cfg := jerseyConfiguration(4)
	cfg.Layers[4] = model.SelectedOption{Name: "Lion", Value: "patterns/lion.png"}
	confirmed, err := v.Validate(product, cfg, ValidateForSubmission)
	require.NoError(t, err)
	require.Len(t, confirmed, 3)
	assert.Equal(t, model.OptionValuePattern, confirmed[2].Value.Kind)

	cfg.Layers[4] = model.SelectedOption{Name: "Tiger", Value: "patterns/tiger.png"}
	_, err = v.Validate(product, cfg, ValidateForSubmission)
	requireValidationKind(t, err, KindInvalidSelection)
}

func TestConfigurationValidator_MismatchedOptionType(t *testing.T) {
	v := NewConfigurationValidator(4)
	product := jerseyProduct()
	product.Layers[2].Options = datatypes.NewJSONType([]model.Option{
		{Name: "Stripes", Value: "https://cdn.example.com/stripes.png"},
	})

	cfg := jerseyConfiguration(4)
	cfg.Layers[2] = model.SelectedOption{Name: "Stripes", Value: "https://cdn.example.com/stripes.png"}
	_, err := v.Validate(product, cfg, ValidateSelections)
	requireValidationKind(t, err, KindInvalidConfiguration)
}

func TestFreezeSelections(t *testing.T) {
	fee := money("2.50")
	frozen := FreezeSelections([]model.ConfirmedSelection{
		{
			Layer:  model.Layer{ID: 2},
			Option: model.Option{Name: "Red", Value: "#ff0000", Fee: &fee},
		},
	})
	require.Contains(t, frozen, uint(2))
	assert.Equal(t, "Red", frozen[2].Name)
	assert.True(t, frozen[2].Fee.Equal(fee))
}
