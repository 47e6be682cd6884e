package config

import (
	"errors"
	"strings"
	"testing"
)

func TestParseServices_Wrapped(t *testing.T) {
	text := `
services:
  zeta:
    url: https://z.example.com
    method: post
    headers:
      Authorization: Bearer z
    display_name: Zeta
    result_template: "余额: {data.total}"
  alpha:
    url: https://a.example.com
`
	set, err := ParseServices(text)
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	if len(set.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(set.Entries))
	}

	// document order, not sorted
	z, a := set.Entries[0], set.Entries[1]
	if z.Label != "Zeta" || a.Label != "alpha" {
		t.Errorf("labels = %q, %q, want Zeta, alpha", z.Label, a.Label)
	}

	if z.Service.Name() != "zeta" {
		t.Errorf("Name() = %q, want zeta", z.Service.Name())
	}
	if z.Service.Method() != "POST" {
		t.Errorf("Method() = %q, want POST", z.Service.Method())
	}
	if z.Service.Headers()["Authorization"] != "Bearer z" {
		t.Errorf("Headers() = %v", z.Service.Headers())
	}
	if tmpl, ok := z.Service.Template(); !ok || tmpl != "余额: {data.total}" {
		t.Errorf("Template() = %q, %v", tmpl, ok)
	}

	if a.Service.Method() != "GET" {
		t.Errorf("Method() = %q, want GET", a.Service.Method())
	}
	if _, ok := a.Service.Template(); ok {
		t.Error("service without result_template should have no template")
	}
}

func TestParseServices_DirectMapping(t *testing.T) {
	set, err := ParseServices("a:\n  url: https://a.example.com\nb:\n  url: https://b.example.com\n")
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	if len(set.Entries) != 2 || set.Entries[0].Label != "a" || set.Entries[1].Label != "b" {
		t.Errorf("entries = %+v", set.Entries)
	}
}

func TestParseServices_ServiceNamedServices(t *testing.T) {
	set, err := ParseServices("services:\n  url: https://s.example.com\n")
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	if len(set.Entries) != 1 || set.Entries[0].Label != "services" {
		t.Errorf("entries = %+v, want one service named services", set.Entries)
	}
}

func TestParseServices_SkipsMissingURL(t *testing.T) {
	text := `
services:
  a:
    url: https://a.example.com
  nourl:
    display_name: Nothing
  blank:
    url: "  "
  empty:
  tilde: ~
`
	set, err := ParseServices(text)
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	if len(set.Entries) != 1 {
		t.Errorf("len(Entries) = %d, want 1", len(set.Entries))
	}
	if strings.Join(set.Skipped, ",") != "nourl,blank,empty,tilde" {
		t.Errorf("Skipped = %v, want [nourl blank empty tilde]", set.Skipped)
	}
}

func TestParseServices_CompactHeaders(t *testing.T) {
	set, err := ParseServices("a:\n  url: https://a.example.com\n  headers: \"A:1&&B: 2\"\n")
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	h := set.Entries[0].Service.Headers()
	if h["A"] != "1" || h["B"] != "2" {
		t.Errorf("Headers() = %v", h)
	}
}

func TestParseServices_EntryErrors(t *testing.T) {
	text := `
good:
  url: https://g.example.com
scalar: just a string
badheaders:
  url: https://b.example.com
  headers: [1, 2]
badscheme:
  url: ftp://x.example.com
missingenv:
  url: https://m.example.com/${BALANCE_SERVICES_UNSET}
`
	set, err := ParseServices(text)
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	if len(set.Entries) != 5 {
		t.Fatalf("len(Entries) = %d, want 5", len(set.Entries))
	}
	if !set.Entries[0].OK() {
		t.Errorf("good entry error = %v", set.Entries[0].Err)
	}
	if !errors.Is(set.Entries[1].Err, errServiceNotMapping) {
		t.Errorf("scalar entry Err = %v", set.Entries[1].Err)
	}
	for _, e := range set.Entries[2:] {
		if e.OK() {
			t.Errorf("entry %q should have an error", e.Label)
		}
	}
}

func TestParseServices_NotMapping(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"list", "- a\n- b\n"},
		{"scalar", "hello"},
		{"services list", "services:\n  - a\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseServices(tt.text)
			if !errors.Is(err, ErrNotMapping) {
				t.Errorf("error = %v, want ErrNotMapping", err)
			}
		})
	}
}

func TestParseServices_InvalidYAML(t *testing.T) {
	_, err := ParseServices("a: [unclosed")
	if err == nil || errors.Is(err, ErrNotMapping) {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestParseServices_Empty(t *testing.T) {
	for _, text := range []string{"", "   \n", "~", "services:\n"} {
		set, err := ParseServices(text)
		if err != nil {
			t.Errorf("ParseServices(%q) error = %v", text, err)
		}
		if len(set.Entries) != 0 {
			t.Errorf("ParseServices(%q) entries = %d, want 0", text, len(set.Entries))
		}
	}
}

func TestParseServices_Aliases(t *testing.T) {
	text := `
base: &base
  url: https://a.example.com
  display_name: Shared
copy: *base
`
	set, err := ParseServices(text)
	if err != nil {
		t.Fatalf("ParseServices() error = %v", err)
	}
	if len(set.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(set.Entries))
	}
	if set.Entries[1].Service.Name() != "copy" || set.Entries[1].Label != "Shared" {
		t.Errorf("alias entry = %+v", set.Entries[1])
	}
}
