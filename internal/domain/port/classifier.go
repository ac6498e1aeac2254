package port

import "cropscan/internal/domain/entity"

// ImageDecoder интерфейс декодера изображений
type ImageDecoder interface {
	// Decode превращает байты изображения в сетку пикселей BGR
	Decode(raw entity.RawImage) (*entity.PixelGrid, error)
}

// Preprocessor интерфейс подготовки входа модели
type Preprocessor interface {
	// Prepare приводит сетку пикселей к тензору 1×256×256×3
	Prepare(grid *entity.PixelGrid) (*entity.InputTensor, error)
}

// Classifier интерфейс классификатора болезней
type Classifier interface {
	// Classify возвращает вероятности классов; безопасен для конкурентных вызовов
	Classify(tensor *entity.InputTensor) (entity.ProbabilityVector, error)
}

// LabelResolver интерфейс таблицы классов
type LabelResolver interface {
	Resolve(index int) (entity.DiseaseLabel, error)
	// ResolveArgMax возвращает индекс и метку класса с максимальной вероятностью
	ResolveArgMax(p entity.ProbabilityVector) (int, entity.DiseaseLabel, error)
	Count() int
	Version() string
	// Labels копия таблицы в порядке индексов
	Labels() []entity.DiseaseLabel
}
