package promptstyle

import "strings"

const marker = "RIKAI_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to a system prompt. Applying it
// twice is a no-op.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are part of Rikai, a learning companion for Japanese-speaking learners.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nWrite learner-facing text in natural Japanese unless asked otherwise.")
	switch mode {
	case "json":
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	case "chat":
		b.WriteString("\nAnswer the latest user message using the earlier turns as context.")
		b.WriteString("\nKeep answers focused on the current topic.")
	default:
		b.WriteString("\nBe concise and structured when helpful.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
