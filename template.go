package balancecheck

import (
	"regexp"
	"strings"
)

// missingValue replaces placeholders whose path does not resolve.
const missingValue = "N/A"

// placeholderPattern matches {path} placeholders; nested braces are not supported.
var placeholderPattern = regexp.MustCompile(`\{([^{}]+?)\}`)

// Render substitutes every {path} placeholder in tmpl with the value found
// at that path in value, using [Lookup] and [FormatValue].
//
// Unresolvable placeholders render as "N/A" and never stop the rest of the
// template from rendering. Text outside placeholders is kept as is.
//
// Example:
//
//	balancecheck.Render("余额: {data.balance} 元", body)
func Render(tmpl string, value any) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := strings.TrimSpace(match[1 : len(match)-1])
		v, ok := Lookup(value, path)
		if !ok {
			return missingValue
		}
		return FormatValue(v)
	})
}

// Placeholders returns the paths referenced by tmpl, in order of appearance.
func Placeholders(tmpl string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(tmpl, -1)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, strings.TrimSpace(m[1]))
	}
	return paths
}
