package config

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/balancecheck"
)

// ErrNotMapping is returned when the structured document is not a mapping
// of service keys to service records.
var ErrNotMapping = errors.New("顶层必须是映射")

var errServiceNotMapping = errors.New("服务配置必须是映射")

// servicesKey optionally wraps the service map:
//
//	services:
//	  name: {url: ...}
const servicesKey = "services"

// serviceDoc is one record of the structured dialect.
type serviceDoc struct {
	URL            string      `yaml:"url"`
	Method         string      `yaml:"method"`
	Headers        headerField `yaml:"headers"`
	DisplayName    string      `yaml:"display_name"`
	ResultTemplate *string     `yaml:"result_template"`
}

// headerField accepts headers either as a mapping or as a compact
// "name:value&&name:value" string.
type headerField map[string]string

// UnmarshalYAML implements yaml.Unmarshaler for headerField.
func (h *headerField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*h = balancecheck.ParseHeaders(s)
		return nil
	case yaml.MappingNode:
		m := make(map[string]string, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("header %q 的值必须是标量", key.Value)
			}
			m[key.Value] = val.Value
		}
		*h = m
		return nil
	default:
		return errors.New("headers 必须是映射或字符串")
	}
}

// ParseServices parses the structured dialect.
//
// The document is either a mapping wrapped under a top-level "services" key
// or the service mapping itself. Services are returned in document order.
// Services without a url, including empty records, are left out and listed in ServiceSet.Skipped. A
// record that cannot be built becomes an entry with Err set.
//
// Returns [ErrNotMapping] when the document is not a mapping, and a wrapped
// yaml error when it is not valid YAML. An empty document yields an empty set.
func ParseServices(text string, common ...balancecheck.ServiceOption) (ServiceSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return ServiceSet{}, fmt.Errorf("failed to parse services_config: %w", err)
	}

	if len(doc.Content) == 0 {
		return ServiceSet{}, nil
	}
	root := resolveAlias(doc.Content[0])
	if isNull(root) {
		return ServiceSet{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return ServiceSet{}, ErrNotMapping
	}

	services, err := servicesNode(root)
	if err != nil {
		return ServiceSet{}, err
	}

	names := nameRegistry{}
	var set ServiceSet

	for i := 0; i+1 < len(services.Content); i += 2 {
		key := services.Content[i].Value
		val := resolveAlias(services.Content[i+1])

		if isNull(val) {
			set.Skipped = append(set.Skipped, key)
			continue
		}
		if val.Kind != yaml.MappingNode {
			set.Entries = append(set.Entries, Entry{Label: key, Err: errServiceNotMapping})
			continue
		}

		var sd serviceDoc
		if err := val.Decode(&sd); err != nil {
			set.Entries = append(set.Entries, Entry{Label: key, Err: err})
			continue
		}

		if strings.TrimSpace(sd.URL) == "" {
			set.Skipped = append(set.Skipped, key)
			continue
		}

		set.Entries = append(set.Entries, buildService(key, sd, names, common))
	}

	return set, nil
}

// buildService converts one record into an entry.
func buildService(key string, sd serviceDoc, names nameRegistry, common []balancecheck.ServiceOption) Entry {
	label := strings.TrimSpace(sd.DisplayName)
	if label == "" {
		label = key
	}

	url, err := expandEnvVars(strings.TrimSpace(sd.URL))
	if err != nil {
		return Entry{Label: label, Err: fmt.Errorf("url: %w", err)}
	}

	headers, err := expandHeaders(sd.Headers)
	if err != nil {
		return Entry{Label: label, Err: err}
	}

	opts := make([]balancecheck.ServiceOption, 0, len(common)+4)
	opts = append(opts, common...)
	opts = append(opts,
		balancecheck.WithDisplayName(label),
		balancecheck.WithHeaderMap(headers),
	)
	if strings.TrimSpace(sd.Method) != "" {
		opts = append(opts, balancecheck.WithMethod(sd.Method))
	}
	if sd.ResultTemplate != nil {
		opts = append(opts, balancecheck.WithTemplate(*sd.ResultTemplate))
	}

	svc, err := balancecheck.NewService(names.claim(key), url, opts...)
	if err != nil {
		return Entry{Label: label, Err: err}
	}

	return Entry{Label: label, Service: svc}
}

// servicesNode returns the mapping that holds the services.
//
// A top-level "services" key is treated as a wrapper unless its value looks
// like a service record itself (it has a url).
func servicesNode(root *yaml.Node) (*yaml.Node, error) {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != servicesKey {
			continue
		}
		val := resolveAlias(root.Content[i+1])
		switch {
		case isNull(val):
			return &yaml.Node{Kind: yaml.MappingNode}, nil
		case val.Kind != yaml.MappingNode:
			return nil, ErrNotMapping
		case !hasKey(val, "url"):
			return val, nil
		}
	}
	return root, nil
}

// hasKey reports whether a mapping node contains key.
func hasKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
