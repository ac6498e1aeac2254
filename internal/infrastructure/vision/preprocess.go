package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

// Preprocessor растягивает сетку до 256×256 билинейной интерполяцией
// без сохранения пропорций и добавляет ось батча.
// При уменьшении ядро фильтра расширяется, поэтому каждый выходной пиксель
// усредняет всю покрываемую им область исходника.
type Preprocessor struct{}

// NewPreprocessor создаёт препроцессор.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Prepare строит InputTensor 1×256×256×3 в порядке BGR со значениями [0, 255].
func (p *Preprocessor) Prepare(grid *entity.PixelGrid) (*entity.InputTensor, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	src, err := gridToImage(grid)
	if err != nil {
		return nil, err
	}

	resized := resize.Resize(entity.TensorSize, entity.TensorSize, src, resize.Bilinear)

	tensor := entity.NewInputTensor()
	fillTensor(tensor, resized)

	return tensor, nil
}

// gridToImage собирает NRGBA изображение из сетки с учётом порядка каналов.
func gridToImage(grid *entity.PixelGrid) (*image.NRGBA, error) {
	var ri, bi int
	switch grid.Order {
	case entity.ChannelOrderBGR:
		ri, bi = 2, 0
	case entity.ChannelOrderRGB:
		ri, bi = 0, 2
	default:
		return nil, fmt.Errorf("%w: unknown channel order %q", entity.ErrShape, grid.Order)
	}

	img := image.NewNRGBA(image.Rect(0, 0, grid.Width, grid.Height))
	for i, j := 0, 0; i < len(grid.Pix); i, j = i+3, j+4 {
		img.Pix[j] = grid.Pix[i+ri]
		img.Pix[j+1] = grid.Pix[i+1]
		img.Pix[j+2] = grid.Pix[i+bi]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// fillTensor записывает пиксели в тензор в порядке BGR.
// Альфа всегда 0xff, поэтому RGBA и NRGBA совпадают по значениям.
func fillTensor(tensor *entity.InputTensor, img image.Image) {
	var pix []uint8
	var stride int
	switch m := img.(type) {
	case *image.RGBA:
		pix, stride = m.Pix, m.Stride
	case *image.NRGBA:
		pix, stride = m.Pix, m.Stride
	}

	if pix != nil && img.Bounds().Min == (image.Point{}) {
		for y := 0; y < entity.TensorSize; y++ {
			row := pix[y*stride:]
			for x := 0; x < entity.TensorSize; x++ {
				i := (y*entity.TensorSize + x) * 3
				tensor.Data[i] = float32(row[x*4+2])
				tensor.Data[i+1] = float32(row[x*4+1])
				tensor.Data[i+2] = float32(row[x*4])
			}
		}
		return
	}

	b := img.Bounds()
	for y := 0; y < entity.TensorSize; y++ {
		for x := 0; x < entity.TensorSize; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*entity.TensorSize + x) * 3
			tensor.Data[i] = float32(c.B)
			tensor.Data[i+1] = float32(c.G)
			tensor.Data[i+2] = float32(c.R)
		}
	}
}

var _ port.Preprocessor = (*Preprocessor)(nil)
