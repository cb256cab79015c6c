package llm

import "strings"

// ExtractJSON returns the outermost JSON object in text, tolerating markdown
// code fences and prose around it. It returns "" when no object is found.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}
