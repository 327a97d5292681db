package prompt

import "strings"

const maxSuggestions = 5

var suggestionLibrary = []string{
	"octane render", "highly detailed", "masterpiece", "8k resolution", "trending on artstation",
	"volumetric lighting", "unreal engine 5", "soft bokeh", "extremely intricate", "hyperrealistic",
	"vibrant colors", "muted tones", "dramatic shadows", "neon lighting", "vaporwave aesthetic",
	"mythical", "cybernetic", "ethereal glow", "bokeh background", "film grain", "macro lens",
	"concept art", "digital painting", "surrealism", "minimalist", "anatomically correct",
}

// Suggest completes the last word of text from the suggestion library,
// skipping entries already present in text.
func Suggest(text string) []string {
	words := strings.Split(text, " ")
	last := strings.ToLower(words[len(words)-1])
	if len(last) <= 1 {
		return []string{}
	}

	out := make([]string, 0, maxSuggestions)
	for _, s := range suggestionLibrary {
		if strings.Contains(strings.ToLower(s), last) && !strings.Contains(text, s) {
			out = append(out, s)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

// ApplySuggestion replaces the last word of text with suggestion.
func ApplySuggestion(text, suggestion string) string {
	words := strings.Split(text, " ")
	words[len(words)-1] = suggestion
	return strings.Join(words, " ") + ", "
}
