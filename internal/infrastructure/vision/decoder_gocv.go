//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

// GoCVEnabled сборка с тегом gocv.
const GoCVEnabled = true

// ErrGoCVDisabled не возникает в сборке с OpenCV.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVDecoder декодер на OpenCV, повторяет cv2.imdecode(buf, IMREAD_COLOR).
// Размер проверяется по заголовку до IMDecode.
type GoCVDecoder struct {
	MaxPixels int
}

// NewGoCVDecoder создаёт декодер на OpenCV.
func NewGoCVDecoder() *GoCVDecoder {
	return &GoCVDecoder{MaxPixels: DefaultMaxPixels}
}

// Decode декодирует изображение в BGR сетку.
func (d *GoCVDecoder) Decode(raw entity.RawImage) (*entity.PixelGrid, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", entity.ErrDecode)
	}
	if err := checkDimensions(raw.Data, d.MaxPixels); err != nil {
		return nil, err
	}

	mat, err := gocv.IMDecode(raw.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("%w: unsupported or corrupt image", entity.ErrDecode)
	}
	if mat.Channels() != entity.TensorChannels || mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("%w: %d channels", entity.ErrShape, mat.Channels())
	}

	// ToBytes копирует данные, Mat можно закрывать.
	pix := mat.ToBytes()

	return &entity.PixelGrid{
		Width:    mat.Cols(),
		Height:   mat.Rows(),
		Channels: entity.TensorChannels,
		Order:    entity.ChannelOrderBGR,
		Pix:      pix,
	}, nil
}

var _ port.ImageDecoder = (*GoCVDecoder)(nil)
