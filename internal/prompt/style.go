package prompt

import "strings"

// StyleDescriptor is always the head of the positive prompt. User input can
// extend it but never replace it.
const StyleDescriptor = "Jujutsu Kaisen anime style by Studio MAPPA, " +
	"with glowing blue curse energy, Shibuya arc aesthetic, " +
	"dark blue and purple color palette, high-contrast shadows"

// NegativePrompt captures undesirable artefacts we want the model to avoid.
// Only backends that accept a negative prompt use it.
const NegativePrompt = "text, watermark, signature, blurry, deformed, extra limbs, low quality"

const separator = ", "

// Build composes the positive and negative prompts for a generation request.
// The trimmed user prompt is appended after the style descriptor only when it
// is non-empty; an empty or whitespace-only prompt yields the descriptor
// verbatim. Pure function: same input, same output.
func Build(userPrompt string) (positive, negative string) {
	positive = StyleDescriptor
	if trimmed := strings.TrimSpace(userPrompt); trimmed != "" {
		positive += separator + trimmed
	}
	return positive, NegativePrompt
}
