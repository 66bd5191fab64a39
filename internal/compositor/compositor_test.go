package compositor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	gray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// halfMask covers the left half of a w x h image with the given alpha.
func halfMask(w, h int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{A: alpha})
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestComposite_ColorFillInsideMaskOnly(t *testing.T) {
	base := solid(4, 4, gray)
	fill := red

	canvas, err := Composite(base, []Layer{
		{Name: "Lycra", Position: 1, Mask: halfMask(4, 4, 255), Fill: &fill},
	})
	require.NoError(t, err)

	assert.Equal(t, red, canvas.NRGBAAt(0, 0))
	assert.Equal(t, red, canvas.NRGBAAt(1, 3))
	assert.Equal(t, gray, canvas.NRGBAAt(2, 0))
	assert.Equal(t, gray, canvas.NRGBAAt(3, 3))
}

func TestComposite_PartialMaskAlphaBlends(t *testing.T) {
	base := solid(2, 1, white)
	fill := red

	canvas, err := Composite(base, []Layer{
		{Position: 1, Mask: halfMask(2, 1, 128), Fill: &fill},
	})
	require.NoError(t, err)

	px := canvas.NRGBAAt(0, 0)
	assert.Equal(t, uint8(255), px.R)
	assert.InDelta(t, 127, int(px.G), 1)
	assert.InDelta(t, 127, int(px.B), 1)
	assert.Equal(t, uint8(255), px.A)
	assert.Equal(t, white, canvas.NRGBAAt(1, 0))
}

func TestComposite_TransparentBaseKeepsMaskAlpha(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	fill := red

	canvas, err := Composite(base, []Layer{
		{Position: 1, Mask: halfMask(2, 1, 100), Fill: &fill},
	})
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 255, A: 100}, canvas.NRGBAAt(0, 0))
	assert.Equal(t, uint8(0), canvas.NRGBAAt(1, 0).A)
}

func TestComposite_AscendingPositionOrder(t *testing.T) {
	base := solid(2, 2, gray)
	r, w := red, white
	full := solid(2, 2, color.NRGBA{A: 255})

	// listed out of order: white at position 2 must end on top
	canvas, err := Composite(base, []Layer{
		{Name: "Trim", Position: 2, Mask: full, Fill: &w},
		{Name: "Lycra", Position: 1, Mask: full, Fill: &r},
	})
	require.NoError(t, err)
	assert.Equal(t, white, canvas.NRGBAAt(1, 1))
}

func TestComposite_SkipsLayersWithoutMaskOrSource(t *testing.T) {
	base := solid(3, 3, gray)
	fill := red

	withSkips, err := Composite(base, []Layer{
		{Name: "no mask", Position: 1, Fill: &fill},
		{Name: "unreachable pattern", Position: 2, Mask: halfMask(3, 3, 255)},
	})
	require.NoError(t, err)

	without, err := Composite(base, nil)
	require.NoError(t, err)

	assert.Equal(t, without.Pix, withSkips.Pix)
}

func TestComposite_ResamplesMaskAndPattern(t *testing.T) {
	base := solid(8, 8, gray)
	pattern := solid(2, 2, color.NRGBA{B: 255, A: 255})
	mask := solid(4, 4, color.NRGBA{A: 255})

	canvas, err := Composite(base, []Layer{
		{Position: 1, Mask: mask, Pattern: pattern},
	})
	require.NoError(t, err)

	assert.Equal(t, 8, canvas.Rect.Dx())
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, canvas.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{B: 255, A: 255}, canvas.NRGBAAt(7, 7))
}

func TestComposite_DoesNotMutateInputs(t *testing.T) {
	base := solid(2, 2, gray)
	mask := halfMask(2, 2, 255)
	baseCopy := append([]uint8(nil), base.Pix...)
	maskCopy := append([]uint8(nil), mask.Pix...)
	fill := red

	_, err := Composite(base, []Layer{{Position: 1, Mask: mask, Fill: &fill}})
	require.NoError(t, err)

	assert.Equal(t, baseCopy, base.Pix)
	assert.Equal(t, maskCopy, mask.Pix)
}

func TestRenderBytes_Idempotent(t *testing.T) {
	baseData := encode(t, solid(16, 16, gray))
	r, w := red, white
	layers := []Layer{
		{Name: "Lycra", Position: 1, Mask: halfMask(16, 16, 255), Fill: &r},
		{Name: "Trim", Position: 2, Mask: halfMask(8, 8, 90), Fill: &w},
	}

	first, err := RenderBytes(baseData, layers)
	require.NoError(t, err)
	second, err := RenderBytes(baseData, layers)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	decoded, format, err := Decode(first)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}

func TestRenderBytes_AcceptsJPEGBase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(4, 4, gray), nil))

	out, err := RenderBytes(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderBytes_UnsupportedBase(t *testing.T) {
	_, err := RenderBytes([]byte("not an image"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestComposite_EmptyBase(t *testing.T) {
	_, err := Composite(image.NewNRGBA(image.Rect(0, 0, 0, 0)), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Composite(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyImage)
}
