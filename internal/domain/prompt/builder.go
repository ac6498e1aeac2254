// Package prompt строит текст запроса к сервису описаний болезней.
package prompt

import (
	"fmt"
	"strings"

	"cropscan/internal/domain/entity"
)

// Template шаблон запроса для одного языка.
// Text содержит ровно один %s для названия болезни и включает Instruction.
type Template struct {
	Text        string
	Instruction string
}

var templates = map[entity.Language]Template{
	entity.LanguageEnglish: {
		Text:        "Describe the plant disease: %s. Provide symptoms, causes, and possible treatments in detail. Respond in English.",
		Instruction: "Respond in English.",
	},
	entity.LanguageHindi: {
		Text:        "पौधे की बीमारी का वर्णन करें: %s। लक्षण, कारण और संभावित उपचार विस्तार से प्रदान करें। हिंदी में उत्तर दें।",
		Instruction: "हिंदी में उत्तर दें।",
	},
	entity.LanguageBengali: {
		Text:        "উদ্ভিদের রোগ বর্ণনা করুন: %s। লক্ষণ, কারণ এবং সম্ভাব্য চিকিৎসা বিস্তারিতভাবে প্রদান করুন। বাংলায় উত্তর দিন।",
		Instruction: "বাংলায় উত্তর দিন।",
	},
	entity.LanguageTelugu: {
		Text:        "మొక్కల వ్యాధిని వివరించండి: %s. లక్షణాలు, కారణాలు మరియు సాధ్యమైన చికిత్సలను వివరంగా అందించండి. తెలుగులో సమాధానం ఇవ్వండి.",
		Instruction: "తెలుగులో సమాధానం ఇవ్వండి.",
	},
	entity.LanguageMarathi: {
		Text:        "वनस्पती रोगाचे वर्णन करा: %s. लक्षणे, कारणे आणि संभाव्य उपचार तपशीलवार प्रदान करा. मराठीत उत्तर द्या.",
		Instruction: "मराठीत उत्तर द्या.",
	},
	entity.LanguageTamil: {
		Text:        "தாவர நோயை விவரிக்கவும்: %s. அறிகுறிகள், காரணங்கள் மற்றும் சாத்தியமான சிகிச்சைகளை விரிவாக வழங்கவும். தமிழில் பதிலளிக்கவும்.",
		Instruction: "தமிழில் பதிலளிக்கவும்.",
	},
	entity.LanguageGujarati: {
		Text:        "છોડના રોગનું વર્ણન કરો: %s. લક્ષણો, કારણો અને સંભવિત સારવાર વિગતવાર આપો. ગુજરાતીમાં જવાબ આપો.",
		Instruction: "ગુજરાતીમાં જવાબ આપો.",
	},
	entity.LanguageKannada: {
		Text:        "ಸಸ್ಯ ರೋಗವನ್ನು ವಿವರಿಸಿ: %s. ಲಕ್ಷಣಗಳು, ಕಾರಣಗಳು ಮತ್ತು ಸಂಭವನೀಯ ಚಿಕಿತ್ಸೆಗಳನ್ನು ವಿವರವಾಗಿ ಒದಗಿಸಿ. ಕನ್ನಡದಲ್ಲಿ ಉತ್ತರಿಸಿ.",
		Instruction: "ಕನ್ನಡದಲ್ಲಿ ಉತ್ತರಿಸಿ.",
	},
	entity.LanguageMalayalam: {
		Text:        "സസ്യരോഗം വിവരിക്കുക: %s. ലക്ഷണങ്ങൾ, കാരണങ്ങൾ, സാധ്യമായ ചികിത്സകൾ എന്നിവ വിശദമായി നൽകുക. മലയാളത്തിൽ ഉത്തരം നൽകുക.",
		Instruction: "മലയാളത്തിൽ ഉത്തരം നൽകുക.",
	},
	entity.LanguagePunjabi: {
		Text:        "ਪੌਧੇ ਦੀ ਬਿਮਾਰੀ ਦਾ ਵਰਣਨ ਕਰੋ: %s। ਲੱਛਣ, ਕਾਰਨ ਅਤੇ ਸੰਭਾਵਿਤ ਇਲਾਜ ਵਿਸਤਾਰ ਨਾਲ ਪ੍ਰਦਾਨ ਕਰੋ। ਪੰਜਾਬੀ ਵਿੱਚ ਜਵਾਬ ਦਿਓ।",
		Instruction: "ਪੰਜਾਬੀ ਵਿੱਚ ਜਵਾਬ ਦਿਓ।",
	},
	entity.LanguageOdia: {
		Text:        "ଉଦ୍ଭିଦ ରୋଗ ବର୍ଣ୍ଣନା କରନ୍ତୁ: %s। ଲକ୍ଷଣ, କାରଣ ଏବଂ ସମ୍ଭାବ୍ୟ ଚିକିତ୍ସା ବିସ୍ତୃତ ଭାବରେ ପ୍ରଦାନ କରନ୍ତୁ। ଓଡ଼ିଆରେ ଉତ୍ତର ଦିଅନ୍ତୁ।",
		Instruction: "ଓଡ଼ିଆରେ ଉତ୍ତର ଦିଅନ୍ତୁ।",
	},
	entity.LanguageUrdu: {
		Text:        "پودوں کی بیماری کی وضاحت کریں: %s۔ علامات، اسباب اور ممکنہ علاج تفصیل سے فراہم کریں۔ اردو میں جواب دیں۔",
		Instruction: "اردو میں جواب دیں۔",
	},
	entity.LanguageSpanish: {
		Text:        "Describe la enfermedad de la planta: %s. Proporciona síntomas, causas y posibles tratamientos en detalle. Responde en español.",
		Instruction: "Responde en español.",
	},
	entity.LanguageFrench: {
		Text:        "Décris la maladie de la plante: %s. Fournis les symptômes, les causes et les traitements possibles en détail. Réponds en français.",
		Instruction: "Réponds en français.",
	},
	entity.LanguageGerman: {
		Text:        "Beschreibe die Pflanzenkrankheit: %s. Gib Symptome, Ursachen und mögliche Behandlungen detailliert an. Antworte auf Deutsch.",
		Instruction: "Antworte auf Deutsch.",
	},
	entity.LanguageItalian: {
		Text:        "Descrivi la malattia della pianta: %s. Fornisci sintomi, cause e possibili trattamenti in dettaglio. Rispondi in italiano.",
		Instruction: "Rispondi in italiano.",
	},
	entity.LanguagePortuguese: {
		Text:        "Descreva a doença da planta: %s. Forneça sintomas, causas e possíveis tratamentos em detalhes. Responda em português.",
		Instruction: "Responda em português.",
	},
	entity.LanguageChinese: {
		Text:        "描述植物疾病：%s。详细提供症状、原因和可能的治疗方法。用中文回答。",
		Instruction: "用中文回答。",
	},
	entity.LanguageJapanese: {
		Text:        "植物の病気について説明してください：%s。症状、原因、可能な治療法を詳しく説明してください。日本語で回答してください。",
		Instruction: "日本語で回答してください。",
	},
	entity.LanguageArabic: {
		Text:        "صف مرض النبات: %s. قدم الأعراض والأسباب والعلاجات المحتملة بالتفصيل. أجب باللغة العربية.",
		Instruction: "أجب باللغة العربية.",
	},
}

func init() {
	if err := Validate(); err != nil {
		panic(err)
	}
}

// Validate проверяет, что у каждого поддерживаемого языка есть корректный шаблон.
func Validate() error {
	for _, info := range entity.Languages() {
		tpl, ok := templates[info.Code]
		if !ok {
			return fmt.Errorf("prompt: no template for %s", info.Code)
		}
		if strings.Count(tpl.Text, "%s") != 1 || strings.Count(tpl.Text, "%") != 1 {
			return fmt.Errorf("prompt: template for %s must contain exactly one %%s", info.Code)
		}
		if tpl.Instruction == "" || !strings.Contains(tpl.Text, tpl.Instruction) {
			return fmt.Errorf("prompt: template for %s lacks its language instruction", info.Code)
		}
	}
	if len(templates) != len(entity.Languages()) {
		return fmt.Errorf("prompt: %d templates for %d languages", len(templates), len(entity.Languages()))
	}
	return nil
}

// TemplateFor возвращает шаблон языка или английский для неподдерживаемых кодов.
func TemplateFor(lang entity.Language) (Template, entity.Language) {
	if tpl, ok := templates[lang]; ok {
		return tpl, lang
	}
	return templates[entity.DefaultLanguage], entity.DefaultLanguage
}

// Build формирует запрос описания болезни на выбранном языке.
func Build(label entity.DiseaseLabel, lang entity.Language) entity.DescriptionRequest {
	tpl, lang := TemplateFor(lang)
	return entity.DescriptionRequest{
		Label:    label,
		Language: lang,
		Prompt:   fmt.Sprintf(tpl.Text, label.DisplayName()),
	}
}
