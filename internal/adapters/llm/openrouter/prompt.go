package openrouter

import (
	"fmt"
	"strings"

	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

var languages = map[string]string{
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"ja": "Japanese",
	"pt": "Portuguese",
	"ru": "Russian",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

var outputSchema = `{"text": "<your interpretation>", "style": "neutral", "disclaimer": "` + defaultDisclaimer + `"}`

func buildSystemPrompt(lang string) string {
	var b strings.Builder
	b.WriteString("You are an oracle narrating a three-card fortune (past, present, future).\n")
	b.WriteString("The cards were drawn by a verifiable shuffle; never question or change them.\n\n")
	b.WriteString("Rules:\n")
	for _, rule := range []string{
		"Stay neutral and reflective.",
		"Never give medical, legal or financial advice.",
		"Never predict specific outcomes or disasters.",
		"Mention the fortune's rarity tier once, lightly.",
		"If a question is provided, address it without guarantees.",
	} {
		fmt.Fprintf(&b, "- %s\n", rule)
	}
	if lang != "" && lang != "en" {
		name, ok := languages[lang]
		if !ok {
			name = lang
		}
		fmt.Fprintf(&b, "- Respond entirely in %s.\n", name)
	}
	fmt.Fprintf(&b, "\nRespond with ONLY a JSON object, no markdown, matching:\n%s", outputSchema)
	return b.String()
}

func buildUserPrompt(in ports.InterpretInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Fortune #%d\nRarity: %s\n\nCards drawn:\n", in.FortuneID, in.Rarity)
	for _, card := range in.Cards {
		fmt.Fprintf(&b, "  %s: %s (card %d)\n", card.Slot, card.Name, card.ID)
	}
	if in.Question != "" {
		fmt.Fprintf(&b, "\nThe querent asks: %q\n", in.Question)
	}
	b.WriteString("\nProvide a cohesive interpretation as a single JSON object.")
	return b.String()
}

func retryPrompt() string {
	return "Your previous answer was not valid JSON. Return ONLY the corrected JSON object matching:\n" + outputSchema
}
