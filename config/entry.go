package config

import (
	"fmt"

	"github.com/jpalmerr/balancecheck"
)

// Entry is one configured service in configuration order: either a service
// ready to query, or a problem that prevented building it.
type Entry struct {
	// Label names the entry in report lines, usually the display name.
	Label string

	// Service is valid when Err is nil.
	Service balancecheck.Service

	// Err describes why the entry could not become a service.
	Err error
}

// OK reports whether the entry holds a usable service.
func (e Entry) OK() bool {
	return e.Err == nil
}

// ServiceSet is the result of parsing the structured dialect.
type ServiceSet struct {
	// Entries are the services in document order.
	Entries []Entry

	// Skipped lists service keys left out because they have no url.
	Skipped []string
}

// Services returns the usable services among entries, in order.
func Services(entries []Entry) []balancecheck.Service {
	services := make([]balancecheck.Service, 0, len(entries))
	for _, e := range entries {
		if e.OK() {
			services = append(services, e.Service)
		}
	}
	return services
}

// nameRegistry hands out service names that are unique within one parse.
type nameRegistry map[string]int

// claim returns name, or name#n when name was already claimed n-1 times.
func (r nameRegistry) claim(name string) string {
	r[name]++
	if n := r[name]; n > 1 {
		return fmt.Sprintf("%s#%d", name, n)
	}
	return name
}

// expandHeaders applies environment expansion to every header value.
func expandHeaders(headers map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return nil, fmt.Errorf("headers[%s]: %w", k, err)
		}
		out[k] = expanded
	}
	return out, nil
}
