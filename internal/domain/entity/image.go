package entity

import "fmt"

// ChannelOrder порядок каналов в PixelGrid и InputTensor.
type ChannelOrder string

const (
	ChannelOrderBGR ChannelOrder = "BGR"
	ChannelOrderRGB ChannelOrder = "RGB"
)

// Параметры входа классификатора. Модель обучалась на BGR кадрах OpenCV
// без нормализации, поэтому значения остаются в диапазоне [0, 255].
const (
	TensorSize         = 256
	TensorChannels     = 3
	TensorChannelOrder = ChannelOrderBGR
	TensorScale        = 255.0
)

// RawImage байты загруженного изображения и заявленная кодировка.
type RawImage struct {
	Data     []byte
	Encoding string // например "image/jpeg"; декодер всё равно определяет формат сам
}

// PixelGrid декодированное изображение: Height×Width×3, построчно, каналы подряд.
type PixelGrid struct {
	Width    int
	Height   int
	Channels int
	Order    ChannelOrder
	Pix      []uint8
}

// Validate проверяет форму сетки перед препроцессингом.
func (g *PixelGrid) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil pixel grid", ErrShape)
	}
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrShape, g.Width, g.Height)
	}
	if g.Channels != TensorChannels {
		return fmt.Errorf("%w: %d channels, want %d", ErrShape, g.Channels, TensorChannels)
	}
	if want := g.Width * g.Height * g.Channels; len(g.Pix) != want {
		return fmt.Errorf("%w: %d samples, want %d", ErrShape, len(g.Pix), want)
	}
	return nil
}

// InputTensor вход классификатора формы 1×256×256×3 (NHWC).
type InputTensor struct {
	Shape [4]int
	Order ChannelOrder
	Data  []float32
}

// InputShape единственная допустимая форма InputTensor.
var InputShape = [4]int{1, TensorSize, TensorSize, TensorChannels}

// NewInputTensor выделяет тензор нужной формы.
func NewInputTensor() *InputTensor {
	return &InputTensor{
		Shape: InputShape,
		Order: TensorChannelOrder,
		Data:  make([]float32, TensorSize*TensorSize*TensorChannels),
	}
}

// Validate проверяет форму тензора.
func (t *InputTensor) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: nil tensor", ErrShape)
	}
	if t.Shape != InputShape {
		return fmt.Errorf("%w: tensor shape %v, want %v", ErrShape, t.Shape, InputShape)
	}
	if len(t.Data) != TensorSize*TensorSize*TensorChannels {
		return fmt.Errorf("%w: tensor has %d values", ErrShape, len(t.Data))
	}
	return nil
}
