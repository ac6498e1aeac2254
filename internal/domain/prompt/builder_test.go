package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cropscan/internal/domain/entity"
)

var spot = entity.DiseaseLabel{Crop: "Tomato", Disease: "Bacterial_spot"}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate())
}

func TestBuild_AllLanguages(t *testing.T) {
	for _, info := range entity.Languages() {
		t.Run(string(info.Code), func(t *testing.T) {
			req := Build(spot, info.Code)
			tpl, _ := TemplateFor(info.Code)

			require.Equal(t, info.Code, req.Language)
			require.Equal(t, spot, req.Label)
			require.Contains(t, req.Prompt, "Bacterial spot")
			require.Contains(t, req.Prompt, tpl.Instruction)
			require.NotContains(t, req.Prompt, "%")
		})
	}
}

func TestBuild_UnsupportedFallsBackToEnglish(t *testing.T) {
	for _, code := range []entity.Language{"", "xx", "EN", "klingon"} {
		req := Build(spot, code)
		require.Equal(t, entity.LanguageEnglish, req.Language)
		require.Equal(t, Build(spot, entity.LanguageEnglish).Prompt, req.Prompt)
		require.True(t, strings.HasPrefix(req.Prompt, "Describe the plant disease: Bacterial spot."))
	}
}

func TestBuild_Pure(t *testing.T) {
	a := Build(spot, entity.LanguageHindi)
	b := Build(spot, entity.LanguageHindi)
	require.Equal(t, a, b)
}
