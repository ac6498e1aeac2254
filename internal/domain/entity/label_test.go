package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDiseaseLabel(t *testing.T) {
	l, err := ParseDiseaseLabel("Tomato-Bacterial_spot")
	require.NoError(t, err)
	require.Equal(t, DiseaseLabel{Crop: "Tomato", Disease: "Bacterial_spot"}, l)
	require.Equal(t, "Bacterial spot", l.DisplayName())
	require.Equal(t, "Tomato-Bacterial_spot", l.String())
	require.Equal(t, "This is Tomato leaf with Bacterial spot", l.Headline())

	for _, bad := range []string{"", "Tomato", "-spot", "Tomato-", "  "} {
		_, err := ParseDiseaseLabel(bad)
		require.Error(t, err, bad)
	}
}

func TestProbabilityVector_ArgMax(t *testing.T) {
	tests := []struct {
		name string
		p    ProbabilityVector
		want int
	}{
		{"empty", nil, -1},
		{"single", ProbabilityVector{1}, 0},
		{"first", ProbabilityVector{0.91, 0.05, 0.04}, 0},
		{"last", ProbabilityVector{0.1, 0.2, 0.7}, 2},
		{"tie resolves to lowest index", ProbabilityVector{0.2, 0.4, 0.4}, 1},
		{"uniform", ProbabilityVector{0.25, 0.25, 0.25, 0.25}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.p.ArgMax())
			require.Equal(t, tt.want, tt.p.ArgMax())
		})
	}
}

func TestProbabilityVector_Valid(t *testing.T) {
	require.True(t, ProbabilityVector{0, 0.5, 1}.Valid())
	require.False(t, ProbabilityVector{-0.1, 0.5}.Valid())
	require.False(t, ProbabilityVector{1.5}.Valid())
}
