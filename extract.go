package balancecheck

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// jsonAPI decodes numbers as json.Number so values are reported exactly as
// the upstream service wrote them.
var jsonAPI = sonic.Config{
	UseNumber:   true,
	SortMapKeys: true,
}.Froze()

// DecodeJSON decodes a response body into a tree of map[string]any, []any,
// json.Number, string, bool and nil values.
func DecodeJSON(body []byte) (any, error) {
	var v any
	if err := jsonAPI.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// Lookup resolves a dotted path against a decoded JSON value.
//
// Segments are applied left to right. On an array the segment must be an
// integer index; negative indices count from the end. On an object the
// segment is a key. Any other node before the path is exhausted, a missing
// key, an invalid or out-of-range index, or a null result all report false.
//
// Example:
//
//	v, ok := balancecheck.Lookup(body, "data.list.0.balance")
func Lookup(value any, path string) (any, bool) {
	current := value

	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, false
			}
			if idx < 0 {
				idx += len(node)
			}
			if idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}

	if current == nil {
		return nil, false
	}
	return current, true
}

// FormatValue converts a value found by [Lookup] into report text.
//
// Strings are returned verbatim and numbers keep their JSON literal.
// Objects and arrays are rendered as compact JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any, []any:
		s, err := jsonAPI.MarshalToString(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return s
	default:
		return fmt.Sprint(t)
	}
}
