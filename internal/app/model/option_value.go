package model

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type OptionValueKind string

const (
	OptionValueColor   OptionValueKind = "color"
	OptionValuePattern OptionValueKind = "pattern"
)

var ErrInvalidOptionValue = errors.New("invalid option value")

// OptionValue is an option value parsed into either a solid color or a
// pattern image reference.
type OptionValue struct {
	Kind       OptionValueKind
	Color      color.NRGBA
	PatternRef string
}

// ParseOptionValue interprets raw as a color when it starts with '#'
// (#RGB or #RRGGBB) and as a pattern URL or storage key otherwise.
func ParseOptionValue(raw string) (OptionValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return OptionValue{}, fmt.Errorf("%w: empty value", ErrInvalidOptionValue)
	}

	if !strings.HasPrefix(raw, "#") {
		return OptionValue{Kind: OptionValuePattern, PatternRef: raw}, nil
	}

	hex := raw[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return OptionValue{}, fmt.Errorf("%w: color %q must be #RGB or #RRGGBB", ErrInvalidOptionValue, raw)
	}

	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return OptionValue{}, fmt.Errorf("%w: color %q is not hex", ErrInvalidOptionValue, raw)
	}

	return OptionValue{
		Kind: OptionValueColor,
		Color: color.NRGBA{
			R: uint8(rgb >> 16),
			G: uint8(rgb >> 8),
			B: uint8(rgb),
			A: 0xff,
		},
	}, nil
}
