package entity

import "strings"

// Language код языка описания из закрытого списка.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageHindi      Language = "hi"
	LanguageBengali    Language = "bn"
	LanguageTelugu     Language = "te"
	LanguageMarathi    Language = "mr"
	LanguageTamil      Language = "ta"
	LanguageGujarati   Language = "gu"
	LanguageKannada    Language = "kn"
	LanguageMalayalam  Language = "ml"
	LanguagePunjabi    Language = "pa"
	LanguageOdia       Language = "or"
	LanguageUrdu       Language = "ur"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
	LanguageGerman     Language = "de"
	LanguageItalian    Language = "it"
	LanguagePortuguese Language = "pt"
	LanguageChinese    Language = "zh"
	LanguageJapanese   Language = "ja"
	LanguageArabic     Language = "ar"
)

// DefaultLanguage используется для неизвестных кодов.
const DefaultLanguage = LanguageEnglish

// LanguageInfo название языка для меню выбора.
type LanguageInfo struct {
	Code   Language `json:"code"`
	Name   string   `json:"name"`
	Native string   `json:"native"`
}

// DisplayName например "Hindi (हिंदी)".
func (i LanguageInfo) DisplayName() string {
	if i.Native == "" || i.Native == i.Name {
		return i.Name
	}
	return i.Name + " (" + i.Native + ")"
}

var languages = []LanguageInfo{
	{LanguageEnglish, "English", "English"},
	{LanguageHindi, "Hindi", "हिंदी"},
	{LanguageBengali, "Bengali", "বাংলা"},
	{LanguageTelugu, "Telugu", "తెలుగు"},
	{LanguageMarathi, "Marathi", "मराठी"},
	{LanguageTamil, "Tamil", "தமிழ்"},
	{LanguageGujarati, "Gujarati", "ગુજરાતી"},
	{LanguageKannada, "Kannada", "ಕನ್ನಡ"},
	{LanguageMalayalam, "Malayalam", "മലയാളം"},
	{LanguagePunjabi, "Punjabi", "ਪੰਜਾਬੀ"},
	{LanguageOdia, "Odia", "ଓଡ଼ିଆ"},
	{LanguageUrdu, "Urdu", "اردو"},
	{LanguageSpanish, "Spanish", "Español"},
	{LanguageFrench, "French", "Français"},
	{LanguageGerman, "German", "Deutsch"},
	{LanguageItalian, "Italian", "Italiano"},
	{LanguagePortuguese, "Portuguese", "Português"},
	{LanguageChinese, "Chinese", "中文"},
	{LanguageJapanese, "Japanese", "日本語"},
	{LanguageArabic, "Arabic", "العربية"},
}

var languageIndex = func() map[string]Language {
	idx := make(map[string]Language, len(languages)*2)
	for _, l := range languages {
		idx[string(l.Code)] = l.Code
		idx[strings.ToLower(l.Name)] = l.Code
	}
	return idx
}()

// Languages возвращает копию списка поддерживаемых языков.
func Languages() []LanguageInfo {
	out := make([]LanguageInfo, len(languages))
	copy(out, languages)
	return out
}

// ParseLanguage принимает код ("hi") или английское название ("Hindi").
// Неизвестное значение даёт DefaultLanguage, а не ошибку.
func ParseLanguage(s string) Language {
	if l, ok := languageIndex[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return DefaultLanguage
}

// Supported сообщает, входит ли код в закрытый список.
func (l Language) Supported() bool {
	for _, info := range languages {
		if info.Code == l {
			return true
		}
	}
	return false
}

// Info возвращает описание языка; для неподдерживаемых кодов описание английского.
func (l Language) Info() LanguageInfo {
	for _, info := range languages {
		if info.Code == l {
			return info
		}
	}
	return languages[0]
}
