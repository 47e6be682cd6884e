package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jpalmerr/balancecheck"
)

// flatFieldCount is the number of pipe-separated fields in a flat line:
// remark|url|header_spec|json_path|unit
const flatFieldCount = 5

var errEmptyRemark = errors.New("备注不能为空")

// ParseFlat parses the flat dialect into entries, one per non-blank line.
//
// Lines starting with '#' are comments. A line with the wrong number of
// fields, an empty remark, or an unset environment variable becomes an entry
// with Err set; other lines are unaffected. The options in common are
// applied to every service before the line's own settings.
//
// Example line:
//
//	main|https://api.example.com/balance|Authorization:Bearer ${KEY}&&X-Org:acme|data.total|USD
func ParseFlat(text string, common ...balancecheck.ServiceOption) []Entry {
	names := nameRegistry{}
	var entries []Entry

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, parseFlatLine(line, names, common))
	}

	return entries
}

// parseFlatLine builds the entry for a single non-blank line.
func parseFlatLine(line string, names nameRegistry, common []balancecheck.ServiceOption) Entry {
	fields := strings.Split(line, "|")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	label := fields[0]
	if label == "" {
		label = line
	}

	if len(fields) != flatFieldCount {
		return Entry{
			Label: label,
			Err:   fmt.Errorf("需要 %d 个字段，实际 %d 个", flatFieldCount, len(fields)),
		}
	}

	remark, rawURL, headerSpec, path, unit := fields[0], fields[1], fields[2], fields[3], fields[4]
	if remark == "" {
		return Entry{Label: label, Err: errEmptyRemark}
	}

	url, err := expandEnvVars(rawURL)
	if err != nil {
		return Entry{Label: remark, Err: fmt.Errorf("url: %w", err)}
	}

	headers, err := expandHeaders(balancecheck.ParseHeaders(headerSpec))
	if err != nil {
		return Entry{Label: remark, Err: err}
	}

	opts := make([]balancecheck.ServiceOption, 0, len(common)+3)
	opts = append(opts, common...)
	opts = append(opts,
		balancecheck.WithDisplayName(remark),
		balancecheck.WithHeaderMap(headers),
		balancecheck.WithValuePath(path, unit),
	)

	svc, err := balancecheck.NewService(names.claim(remark), url, opts...)
	if err != nil {
		return Entry{Label: remark, Err: err}
	}

	return Entry{Label: remark, Service: svc}
}
