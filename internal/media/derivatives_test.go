package media

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 85}))
	return buf.Bytes()
}

func TestProbeReportsTrueDimensions(t *testing.T) {
	gen := NewGenerator(DefaultOptions())

	meta, err := gen.Probe(jpegBytes(t, 1200, 1500))
	require.NoError(t, err)
	assert.Equal(t, Metadata{Width: 1200, Height: 1500, Format: "jpeg"}, meta)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(37, 91)))
	meta, err = gen.Probe(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, Metadata{Width: 37, Height: 91, Format: "png"}, meta)
}

func TestDeriveBuildsThumbnailAndBlur(t *testing.T) {
	gen := NewGenerator(Options{})

	d, err := gen.Derive(jpegBytes(t, 1200, 1500))
	require.NoError(t, err)

	assert.Equal(t, 1200, d.Metadata.Width)
	assert.Equal(t, 1500, d.Metadata.Height)

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(d.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 500, cfg.Height)

	require.True(t, strings.HasPrefix(d.BlurDataURL, BlurDataURLPrefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(d.BlurDataURL, BlurDataURLPrefix))
	require.NoError(t, err)
	cfg, err = xwebp.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 13, cfg.Height)
}

func TestDeriveCoversWideSource(t *testing.T) {
	gen := NewGenerator(DefaultOptions())

	d, err := gen.Derive(jpegBytes(t, 900, 300))
	require.NoError(t, err)

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(d.Thumbnail))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 500, cfg.Height)
}

func TestDeriveRejectsCorruptImage(t *testing.T) {
	gen := NewGenerator(DefaultOptions())

	_, err := gen.Derive([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndecodable))

	truncated := jpegBytes(t, 64, 64)[:40]
	_, err = gen.Derive(truncated)
	assert.True(t, errors.Is(err, ErrUndecodable))
}

// pngHeader собирает PNG из сигнатуры и одного IHDR без данных пикселей.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // глубина цвета
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDeriveRejectsOversizedDimensionsBeforeDecode(t *testing.T) {
	gen := NewGenerator(DefaultOptions())
	bomb := pngHeader(20000, 20000)

	meta, err := gen.Probe(bomb)
	require.NoError(t, err)
	assert.Equal(t, Metadata{Width: 20000, Height: 20000, Format: "png"}, meta)

	d, err := gen.Derive(bomb)
	require.Error(t, err)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, ErrTooManyPixels))
	// без пиксельных данных полное декодирование вернуло бы ErrUndecodable
	assert.False(t, errors.Is(err, ErrUndecodable))
}

func TestDeriveAllowsDimensionsAtPixelLimit(t *testing.T) {
	gen := NewGenerator(DefaultOptions())

	_, err := gen.Derive(pngHeader(0x3FFF, 0x3FFF))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTooManyPixels))
	assert.True(t, errors.Is(err, ErrUndecodable))

	_, err = gen.Derive(pngHeader(0x3FFF, 0x3FFF+1))
	assert.True(t, errors.Is(err, ErrTooManyPixels))
}
