// Package media строит производные изображения: миниатюру, blur-заглушку
// и метаданные оригинала.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/webp"
	_ "golang.org/x/image/webp"
)

// BlurDataURLPrefix — префикс data URI для blur-заглушки.
const BlurDataURLPrefix = "data:image/webp;base64,"

// MIME-тип миниатюры.
const ThumbnailContentType = "image/webp"

// ErrUndecodable — изображение не удалось прочитать (битый файл или неизвестный кодек).
var ErrUndecodable = errors.New("image cannot be decoded")

// ErrTooManyPixels — заявленные размеры больше MaxInputPixels.
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// MaxInputPixels — предел width*height, проверяется по заголовку до декодирования.
const MaxInputPixels int64 = 0x3FFF * 0x3FFF

// Options задаёт размеры и качество производных.
type Options struct {
	ThumbWidth   int
	ThumbHeight  int
	ThumbQuality int

	BlurWidth   int
	BlurHeight  int
	BlurQuality int
	BlurSigma   float64
}

// DefaultOptions: миниатюра 400x500 q80, заглушка 10x13 q20.
func DefaultOptions() Options {
	return Options{
		ThumbWidth:   400,
		ThumbHeight:  500,
		ThumbQuality: 80,
		BlurWidth:    10,
		BlurHeight:   13,
		BlurQuality:  20,
		BlurSigma:    1,
	}
}

// Metadata — размеры и формат оригинала.
type Metadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Derivatives — всё, что генератор строит из оригинала.
type Derivatives struct {
	Metadata    Metadata
	Thumbnail   []byte
	BlurDataURL string
}

// Generator строит производные детерминированно по байтам оригинала.
type Generator struct {
	opts Options
}

// NewGenerator создаёт генератор; нулевые поля Options заменяются значениями по умолчанию.
func NewGenerator(opts Options) *Generator {
	def := DefaultOptions()
	if opts.ThumbWidth <= 0 || opts.ThumbHeight <= 0 {
		opts.ThumbWidth, opts.ThumbHeight = def.ThumbWidth, def.ThumbHeight
	}
	if opts.ThumbQuality <= 0 {
		opts.ThumbQuality = def.ThumbQuality
	}
	if opts.BlurWidth <= 0 || opts.BlurHeight <= 0 {
		opts.BlurWidth, opts.BlurHeight = def.BlurWidth, def.BlurHeight
	}
	if opts.BlurQuality <= 0 {
		opts.BlurQuality = def.BlurQuality
	}
	if opts.BlurSigma <= 0 {
		opts.BlurSigma = def.BlurSigma
	}
	return &Generator{opts: opts}
}

// Probe читает только заголовок изображения.
func (g *Generator) Probe(data []byte) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Derive строит миниатюру и blur-заглушку. Ошибка здесь означает, что
// загрузка в хранилище ещё не начиналась.
func (g *Generator) Derive(data []byte) (*Derivatives, error) {
	meta, err := g.Probe(data)
	if err != nil {
		return nil, err
	}
	if pixels := int64(meta.Width) * int64(meta.Height); pixels > MaxInputPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, meta.Width, meta.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	thumb := imaging.Fill(src, g.opts.ThumbWidth, g.opts.ThumbHeight, imaging.Center, imaging.Lanczos)
	thumbBytes, err := encodeWebP(thumb, g.opts.ThumbQuality)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	tiny := imaging.Fill(src, g.opts.BlurWidth, g.opts.BlurHeight, imaging.Center, imaging.Linear)
	tiny = imaging.Blur(tiny, g.opts.BlurSigma)
	blurBytes, err := encodeWebP(tiny, g.opts.BlurQuality)
	if err != nil {
		return nil, fmt.Errorf("encode blur placeholder: %w", err)
	}

	return &Derivatives{
		Metadata:    meta,
		Thumbnail:   thumbBytes,
		BlurDataURL: BlurDataURLPrefix + base64.StdEncoding.EncodeToString(blurBytes),
	}, nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, webp.Options{Quality: quality, Method: 4}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
