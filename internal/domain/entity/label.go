package entity

import (
	"fmt"
	"strings"
)

// DiseaseLabel культура и болезнь, соответствующие классу модели.
type DiseaseLabel struct {
	Crop    string `json:"crop" yaml:"crop"`
	Disease string `json:"disease" yaml:"disease"`
}

// ParseDiseaseLabel разбирает имя класса вида "Tomato-Bacterial_spot".
func ParseDiseaseLabel(name string) (DiseaseLabel, error) {
	crop, disease, ok := strings.Cut(strings.TrimSpace(name), "-")
	crop, disease = strings.TrimSpace(crop), strings.TrimSpace(disease)
	if !ok || crop == "" || disease == "" {
		return DiseaseLabel{}, fmt.Errorf("invalid class name %q, want <Crop>-<Disease>", name)
	}
	return DiseaseLabel{Crop: crop, Disease: disease}, nil
}

// String возвращает имя класса в исходной форме.
func (l DiseaseLabel) String() string {
	return l.Crop + "-" + l.Disease
}

// DisplayName название болезни для людей: "Bacterial_spot" -> "Bacterial spot".
func (l DiseaseLabel) DisplayName() string {
	return strings.ReplaceAll(l.Disease, "_", " ")
}

// Headline короткая фраза о результате.
func (l DiseaseLabel) Headline() string {
	return fmt.Sprintf("This is %s leaf with %s", l.Crop, l.DisplayName())
}

// ProbabilityVector выход softmax классификатора.
type ProbabilityVector []float32

// ArgMax индекс максимального значения; при равенстве выигрывает меньший индекс.
// Для пустого вектора возвращает -1.
func (p ProbabilityVector) ArgMax() int {
	if len(p) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

// Valid проверяет, что все значения лежат в [0, 1].
func (p ProbabilityVector) Valid() bool {
	for _, v := range p {
		if !(v >= 0 && v <= 1) {
			return false
		}
	}
	return true
}
