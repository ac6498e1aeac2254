package container

import (
	app "cropscan/internal/application"
	"cropscan/internal/domain/port"
)

// Pipeline адаптеры этапов классификации.
type Pipeline struct {
	Decoder      port.ImageDecoder
	Preprocessor port.Preprocessor
	Classifier   port.Classifier
	Labels       port.LabelResolver
}

type Container struct {
	UserService      *app.UserService
	DiagnosisService *app.DiagnosisService
	Labels           port.LabelResolver
}

func New(userRepo port.UserRepository, pipeline Pipeline, describer port.DiseaseDescriber, opts app.DiagnosisOptions) *Container {
	userService := app.NewUserService(userRepo)
	diagnosisService := app.NewDiagnosisService(
		pipeline.Decoder,
		pipeline.Preprocessor,
		pipeline.Classifier,
		pipeline.Labels,
		describer,
		opts,
	)

	return &Container{
		UserService:      userService,
		DiagnosisService: diagnosisService,
		Labels:           pipeline.Labels,
	}
}
