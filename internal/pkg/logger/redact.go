package logger

import "strings"

// RedactEmail masks an address for safe logging while keeping enough of the
// local part to correlate log lines: "john.doe@example.com" → "jo***@example.com".
// Short local parts (≤2 chars) are fully masked. Anything that doesn't look
// like an address is masked entirely.
func RedactEmail(email string) string {
	local, dom, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(dom, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + dom
	}
	return "***@" + dom
}
