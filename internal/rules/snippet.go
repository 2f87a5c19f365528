package rules

const maxSnippet = 10

// Snippet shortens a hex string for log lines.
func Snippet(value string) string {
	if len(value) <= maxSnippet {
		return value
	}
	return value[:maxSnippet] + "..."
}
