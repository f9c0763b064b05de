package narrative

import (
	"fmt"
	"html"
)

// promptTemplate is the Mistral instruct prompt. %s is the user's text.
const promptTemplate = `<s>[INST] Provide immediate, helpful context about this text with the following priorities:

- Focus on CURRENT information and context, with strong bias for recent events and trends
- Highlight **trending topics** and **viral moments** directly related to the text
- Provide factual context about ongoing discussions, debates, or news related to the topic
- Use **bold** for key terms or topics (2-3 max) that deserve special attention
- Be direct and concise - keep to 80 words or less
- Prioritize recency and relevance above all else
- Skip explanations about what the user typed - focus only on adding valuable context
- When appropriate, note how recently the context you're providing emerged
- If public companies are mentioned, identify them with [COMPANY:Name] tag
- If public figures are mentioned, identify them with [PERSON:Name] tag

Provide helpful, current context for: "%s" [/INST]</s>`

// BuildPrompt wraps text in the instruction template.
func BuildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

const fallbackPrefixLen = 30

// FallbackNarrative is the whole result when generation fails. It echoes the
// first 30 characters of the input, escaped.
func FallbackNarrative(text string) string {
	r := []rune(text)
	if len(r) > fallbackPrefixLen {
		r = r[:fallbackPrefixLen]
	}
	return fmt.Sprintf(`We couldn't fetch context right now. You were typing about "%s..."`, html.EscapeString(string(r)))
}
