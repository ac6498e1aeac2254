package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLanguages_Closed(t *testing.T) {
	langs := Languages()
	require.GreaterOrEqual(t, len(langs), 20)

	seen := make(map[Language]bool)
	for _, l := range langs {
		require.False(t, seen[l.Code], "duplicate %s", l.Code)
		seen[l.Code] = true
		require.True(t, l.Code.Supported())
		require.NotEmpty(t, l.Name)
		require.Equal(t, l.Code, ParseLanguage(string(l.Code)))
		require.Equal(t, l.Code, ParseLanguage(l.Name))
	}
}

func TestParseLanguage_FallsBackToEnglish(t *testing.T) {
	require.Equal(t, LanguageHindi, ParseLanguage(" HINDI "))
	require.Equal(t, LanguageHindi, ParseLanguage("hi"))
	require.Equal(t, DefaultLanguage, ParseLanguage(""))
	require.Equal(t, DefaultLanguage, ParseLanguage("xx"))
	require.False(t, Language("xx").Supported())
	require.Equal(t, "English", Language("xx").Info().Name)
}

func TestLanguageInfo_DisplayName(t *testing.T) {
	require.Equal(t, "Hindi (हिंदी)", LanguageHindi.Info().DisplayName())
	require.Equal(t, "English", LanguageEnglish.Info().DisplayName())
}
