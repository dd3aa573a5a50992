// Package qrcode provides QR symbol generation.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/skip2/go-qrcode"
)

// RecoveryLevel is the error-correction level.
type RecoveryLevel int

const (
	// Low is 7% error correction.
	Low RecoveryLevel = iota
	// Medium is 15% error correction.
	Medium
	// High is 25% error correction.
	High
	// Highest is 30% error correction.
	Highest
)

// Generator renders QR symbols.
type Generator struct {
	size          int
	recoveryLevel RecoveryLevel
}

// Option configures a Generator.
type Option func(*Generator)

// WithSize sets the symbol size in pixels.
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithRecoveryLevel sets the error-correction level.
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(g *Generator) {
		g.recoveryLevel = level
	}
}

// NewGenerator creates a generator. Coupons are printed and scanned off
// phone screens in daylight, so the default correction level is High.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          256,
		recoveryLevel: High,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) toQRCodeLevel() qrcode.RecoveryLevel {
	switch g.recoveryLevel {
	case Low:
		return qrcode.Low
	case Medium:
		return qrcode.Medium
	case High:
		return qrcode.High
	case Highest:
		return qrcode.Highest
	default:
		return qrcode.High
	}
}

// Generate renders the symbol as an image.
func (g *Generator) Generate(content string) (image.Image, error) {
	qr, err := qrcode.New(content, g.toQRCodeLevel())
	if err != nil {
		return nil, fmt.Errorf("create qr code: %w", err)
	}
	return qr.Image(g.size), nil
}

// GeneratePNG renders the symbol as PNG bytes.
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, g.toQRCodeLevel(), g.size)
}

// GenerateBase64 renders the symbol as base64-encoded PNG.
func (g *Generator) GenerateBase64(content string) (string, error) {
	data, err := g.GeneratePNG(content)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// GenerateDataURL renders the symbol as a data URL.
func (g *Generator) GenerateDataURL(content string) (string, error) {
	b64, err := g.GenerateBase64(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + b64, nil
}

// WriteToWriter renders the symbol into w as PNG.
func (g *Generator) WriteToWriter(content string, w io.Writer) error {
	img, err := g.Generate(content)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// GenerateToBuffer renders the symbol into a buffer.
func (g *Generator) GenerateToBuffer(content string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := g.WriteToWriter(content, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
