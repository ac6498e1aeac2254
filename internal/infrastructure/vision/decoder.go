package vision

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Стандартные декодеры
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

// DefaultMaxPixels предел width*height, после которого изображение не декодируется
const DefaultMaxPixels = 25_000_000

// NativeDecoder декодер на чистом Go: JPEG, PNG, GIF, WebP, BMP, TIFF.
// Возвращает сетку в порядке BGR, как cv2.imdecode.
type NativeDecoder struct {
	MaxPixels int
}

// NewNativeDecoder создаёт декодер без зависимости от OpenCV.
func NewNativeDecoder() *NativeDecoder {
	return &NativeDecoder{MaxPixels: DefaultMaxPixels}
}

// Decode декодирует изображение. Альфа-канал отбрасывается без смешивания с фоном.
func (d *NativeDecoder) Decode(raw entity.RawImage) (*entity.PixelGrid, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: empty buffer", entity.ErrDecode)
	}
	if err := checkDimensions(raw.Data, d.MaxPixels); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}

	return gridFromImage(toNRGBA(img)), nil
}

// checkDimensions читает только заголовок и отклоняет изображения больше maxPixels
// до выделения памяти под пиксели. maxPixels <= 0 отключает проверку.
func checkDimensions(data []byte, maxPixels int) error {
	if maxPixels <= 0 {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", entity.ErrDecode, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return fmt.Errorf("%w: image %dx%d exceeds %d pixels", entity.ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}
	return nil
}

// toNRGBA приводит изображение к NRGBA без премультипликации альфы.
func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Bounds().Min == (image.Point{}) {
		return nrgba
	}

	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// gridFromImage переставляет каналы RGBA в BGR.
func gridFromImage(img *image.NRGBA) *entity.PixelGrid {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	pix := make([]uint8, w*h*entity.TensorChannels)

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			pix[i] = row[x*4+2]
			pix[i+1] = row[x*4+1]
			pix[i+2] = row[x*4]
		}
	}

	return &entity.PixelGrid{
		Width:    w,
		Height:   h,
		Channels: entity.TensorChannels,
		Order:    entity.ChannelOrderBGR,
		Pix:      pix,
	}
}

// NewDecoder выбирает реализацию по имени из конфигурации.
// maxPixels <= 0 означает DefaultMaxPixels.
func NewDecoder(kind string, maxPixels int) (port.ImageDecoder, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "native":
		return &NativeDecoder{MaxPixels: maxPixels}, nil
	case "gocv", "opencv":
		if !GoCVEnabled {
			return nil, ErrGoCVDisabled
		}
		return &GoCVDecoder{MaxPixels: maxPixels}, nil
	default:
		return nil, fmt.Errorf("unknown decoder %q", kind)
	}
}

var _ port.ImageDecoder = (*NativeDecoder)(nil)
