package ocrcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/color"

	"github.com/rs/zerolog/log"

	"github.com/local/docfinder/internal/metrics"
)

// Recognizer is the OCR engine being cached.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Cached wraps an engine with a Store. Lookups and writes that fail are
// logged and the engine is called as if the cache were absent.
type Cached struct {
	next  Recognizer
	store Store
	salt  string
}

// Wrap returns next behind store. salt separates entries produced with
// different engine settings (languages, segmentation mode).
func Wrap(next Recognizer, store Store, salt string) *Cached {
	return &Cached{next: next, store: store, salt: salt}
}

func (c *Cached) Recognize(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return c.next.Recognize(ctx, img)
	}
	key := Key(c.salt, img)

	text, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		metrics.IncCache("error")
		log.Warn().Err(err).Str("key", key[:12]).Msg("ocr cache lookup failed")
	case ok:
		metrics.IncCache("hit")
		return text, nil
	default:
		metrics.IncCache("miss")
	}

	text, err = c.next.Recognize(ctx, img)
	if err != nil {
		return "", err
	}
	if err := c.store.Set(ctx, key, text); err != nil {
		log.Warn().Err(err).Str("key", key[:12]).Msg("ocr cache write failed")
	}
	return text, nil
}

// Key hashes the pixels of img together with salt.
func Key(salt string, img image.Image) string {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write([]byte{0})

	b := img.Bounds()
	var dims [16]byte
	binary.BigEndian.PutUint32(dims[0:], uint32(b.Min.X))
	binary.BigEndian.PutUint32(dims[4:], uint32(b.Min.Y))
	binary.BigEndian.PutUint32(dims[8:], uint32(b.Dx()))
	binary.BigEndian.PutUint32(dims[12:], uint32(b.Dy()))
	h.Write(dims[:])

	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := g.PixOffset(b.Min.X, y)
			h.Write(g.Pix[off : off+b.Dx()])
		}
		return hex.EncodeToString(h.Sum(nil))
	}

	row := make([]byte, b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			row[x-b.Min.X] = color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
		}
		h.Write(row)
	}
	return hex.EncodeToString(h.Sum(nil))
}
