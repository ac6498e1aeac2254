package telegram

import (
	"errors"
	"fmt"
	"strings"

	"cropscan/internal/domain/entity"
)

const (
	msgStart = `👋 Hi! I recognise crop leaf diseases.

📸 Send me a photo of a single leaf and I will name the crop and the disease, then explain causes, symptoms and treatment.

🌐 Description language: %s

📋 Commands:
/check — diagnose a leaf
/language <code> — change description language
/languages — list languages
/help — help
/cancel — cancel current operation`

	msgHelp = `ℹ️ How to use the bot:

1️⃣ Send a photo of one leaf
2️⃣ The bot classifies the disease
3️⃣ You get the diagnosis and a description in your language

💡 Tips:
• Shoot in good daylight
• Fill the frame with the leaf
• Keep the photo sharp

📋 Commands:
/check — diagnose a leaf
/language hi — descriptions in Hindi
/languages — list languages
/cancel — cancel current operation`

	msgAwaitingPhoto  = "📸 Send a photo of the leaf to diagnose."
	msgChooseLanguage = "🌐 Send a language code or name."
	msgCancelled      = "❌ Cancelled. Send /check to diagnose a leaf."
	msgSendPhoto      = "📸 Please send a photo of the leaf."
	msgUnknownCommand = "❓ Unknown command. Use /help."
	msgDownloadError  = "⚠️ Could not download the photo. Please send it again."
	msgInternalError  = "⚠️ Something went wrong. Please try again."
)

// formatDiagnosis текст ответа: заголовок, уверенность и описание или причина его отсутствия
func formatDiagnosis(d *entity.Diagnosis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🌿 %s\n", d.Label.Headline())
	fmt.Fprintf(&sb, "📊 Confidence: %.1f%%\n\n", d.Confidence*100)

	if d.Description.OK() {
		sb.WriteString(d.Description.Text)
	} else {
		sb.WriteString(describeFailure(d.Description.Err))
	}
	return sb.String()
}

func describeFailure(err error) string {
	switch entity.KindOf(err) {
	case entity.KindAuth:
		return "⚠️ Description service is not configured."
	case entity.KindTimeout:
		return "⏱ Description service did not answer in time. The diagnosis above is still valid."
	case entity.KindNetwork:
		return "⚠️ Description service is unreachable. The diagnosis above is still valid."
	case entity.KindUpstream:
		var upstream *entity.UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == 429 {
			return "⚠️ Description service is busy, try again in a minute. The diagnosis above is still valid."
		}
		return "⚠️ Description service returned an error. The diagnosis above is still valid."
	case entity.KindDisabled:
		return "ℹ️ Descriptions are turned off."
	}
	return "⚠️ Description is unavailable."
}

// formatFailure текст для ошибки классификации
func formatFailure(err error) string {
	switch entity.KindOf(err) {
	case entity.KindDecode:
		return "⚠️ This file is not an image I can read. Send a JPEG or PNG photo."
	case entity.KindShape:
		return "⚠️ The image has an unsupported size or format. Try another photo."
	case entity.KindModelContract, entity.KindUnknownClass:
		return "⚠️ The classifier is misconfigured. Please contact the operator."
	}
	return msgInternalError
}

func formatLanguages(current entity.Language) string {
	var sb strings.Builder
	sb.WriteString("🌐 Languages:\n")
	for _, info := range entity.Languages() {
		mark := "  "
		if info.Code == current {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s %s — %s\n", mark, info.Code, info.DisplayName())
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatLanguageChosen подтверждает выбор и предупреждает о замене неизвестного кода
func formatLanguageChosen(requested string, chosen entity.Language) string {
	name := chosen.Info().DisplayName()
	if entity.Language(strings.ToLower(requested)) != chosen && !strings.EqualFold(requested, chosen.Info().Name) {
		return fmt.Sprintf("⚠️ Unknown language %q, using %s.", requested, name)
	}
	return fmt.Sprintf("✅ Descriptions will be in %s.", name)
}
