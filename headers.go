package balancecheck

import "strings"

// headerSeparator joins entries in a compact header spec.
const headerSeparator = "&&"

// ParseHeaders converts a compact header spec such as
// "Authorization:Bearer sk-1&&X-Org:acme" into a header map.
//
// Each entry is split on its first colon, so values may contain colons.
// Names and values are trimmed. Entries without a colon or with an empty
// name are skipped; for duplicate names the last entry wins.
func ParseHeaders(spec string) map[string]string {
	headers := make(map[string]string)

	for _, entry := range strings.Split(spec, headerSeparator) {
		name, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}

	return headers
}
