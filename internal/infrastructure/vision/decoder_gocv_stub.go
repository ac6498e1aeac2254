//go:build !gocv
// +build !gocv

package vision

import (
	"errors"

	"cropscan/internal/domain/entity"
)

// GoCVEnabled сборка без тега gocv.
const GoCVEnabled = false

// ErrGoCVDisabled возвращается, если сборка без тега gocv.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVDecoder заглушка (без OpenCV).
type GoCVDecoder struct {
	MaxPixels int
}

// NewGoCVDecoder создаёт декодер-заглушку.
func NewGoCVDecoder() *GoCVDecoder {
	return &GoCVDecoder{MaxPixels: DefaultMaxPixels}
}

// Decode возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDecoder) Decode(raw entity.RawImage) (*entity.PixelGrid, error) {
	_ = raw
	return nil, ErrGoCVDisabled
}
