// Package compositor merges a base product photo with per-layer color fills
// or pattern textures, each restricted to the layer's alpha mask.
package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"

	"github.com/disintegration/imaging"
)

// Layer is one selected layer ready for compositing. Exactly one of Fill or
// Pattern is used; Pattern wins when both are set. A layer without a mask
// or without a source is skipped.
type Layer struct {
	Name     string
	Position int
	Mask     image.Image
	Fill     *color.NRGBA
	Pattern  image.Image
}

func (l Layer) drawable() bool {
	return l.Mask != nil && (l.Fill != nil || l.Pattern != nil)
}

// Composite draws base onto a fresh transparent canvas and applies layers in
// ascending position. The inputs are only read.
func Composite(base image.Image, layers []Layer) (*image.NRGBA, error) {
	if base == nil {
		return nil, ErrEmptyImage
	}
	bounds := base.Bounds()
	if bounds.Empty() {
		return nil, ErrEmptyImage
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, bounds.Min, draw.Over)

	ordered := make([]Layer, len(layers))
	copy(ordered, layers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	for _, layer := range ordered {
		if !layer.drawable() {
			continue
		}
		applyLayer(canvas, layer)
	}

	return canvas, nil
}

// Render composites and encodes the canvas as PNG.
func Render(base image.Image, layers []Layer) ([]byte, error) {
	canvas, err := Composite(base, layers)
	if err != nil {
		return nil, err
	}
	return EncodePNG(canvas)
}

// RenderBytes decodes baseData and renders it with layers. A base that
// cannot be decoded fails the whole call.
func RenderBytes(baseData []byte, layers []Layer) ([]byte, error) {
	base, _, err := Decode(baseData)
	if err != nil {
		return nil, err
	}
	return Render(base, layers)
}

// EncodePNG encodes img as a PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fitTo returns img as an NRGBA of exactly w x h, resampling when needed.
func fitTo(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, w, h, imaging.Linear)
}

// applyLayer blends the layer source over canvas wherever the mask alpha is
// non-zero, using the mask alpha as the source alpha.
func applyLayer(canvas *image.NRGBA, layer Layer) {
	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	mask := fitTo(layer.Mask, w, h)

	var pattern *image.NRGBA
	if layer.Pattern != nil {
		pattern = fitTo(layer.Pattern, w, h)
	}

	for y := 0; y < h; y++ {
		dstRow := canvas.Pix[y*canvas.Stride : y*canvas.Stride+w*4]
		maskRow := mask.Pix[y*mask.Stride : y*mask.Stride+w*4]
		var srcRow []uint8
		if pattern != nil {
			srcRow = pattern.Pix[y*pattern.Stride : y*pattern.Stride+w*4]
		}

		for x := 0; x < w; x++ {
			i := x * 4
			sa := int(maskRow[i+3])
			if sa == 0 {
				continue
			}

			var sr, sg, sb int
			if srcRow != nil {
				sr, sg, sb = int(srcRow[i]), int(srcRow[i+1]), int(srcRow[i+2])
			} else {
				sr, sg, sb = int(layer.Fill.R), int(layer.Fill.G), int(layer.Fill.B)
			}

			blendOver(dstRow[i:i+4:i+4], sr, sg, sb, sa)
		}
	}
}

// blendOver composites a non-premultiplied source pixel over dst in place.
// All arithmetic is integer, scaled by 255, so results are reproducible.
func blendOver(dst []uint8, sr, sg, sb, sa int) {
	da := int(dst[3])
	dw := da * (255 - sa)  // destination weight, scaled by 255
	outA255 := sa*255 + dw // output alpha, scaled by 255
	half := outA255 / 2

	dst[0] = uint8((sr*sa*255 + int(dst[0])*dw + half) / outA255)
	dst[1] = uint8((sg*sa*255 + int(dst[1])*dw + half) / outA255)
	dst[2] = uint8((sb*sa*255 + int(dst[2])*dw + half) / outA255)
	dst[3] = uint8((outA255 + 127) / 255)
}
