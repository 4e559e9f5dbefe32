// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tags turns scenario tags into a namespace -> value map and derives
// the cassette name a scenario replays from.
package tags

import "strings"

// NoNamespace is the key bare tags (a single token) are stored under.
const NoNamespace = ""

// CassetteNamespace is the namespace whose value names the cassette.
const CassetteNamespace = "vcr"

// Map holds one value per namespace. It is rebuilt for every scenario.
type Map map[string]string

// Extract parses raw tags of the form "<namespace> <value>" or "<value>".
// Only the first space separates namespace from value, so values may contain
// spaces. Later tags win over earlier ones with the same namespace.
func Extract(raw []string) Map {
	m := make(Map, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		ns, value, found := strings.Cut(tag, " ")
		if !found {
			m[NoNamespace] = tag
			continue
		}
		m[ns] = strings.TrimLeft(value, " ")
	}
	return m
}

// Get returns the value stored under ns.
func (m Map) Get(ns string) (string, bool) {
	v, ok := m[ns]
	return v, ok
}

// Bare returns the value of the last single-token tag.
func (m Map) Bare() (string, bool) {
	return m.Get(NoNamespace)
}

// Cassette returns the cassette name for a scenario, if its tags name one.
func Cassette(m Map) (string, bool) {
	return m.Get(CassetteNamespace)
}

// Normalize adapts a Gherkin tag to the "<namespace> <value>" form.
// Gherkin tags cannot contain whitespace, so "@vcr:site_info" and
// "@vcr=site_info" both stand for "vcr site_info".
func Normalize(tag string) string {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "@")
	if strings.Contains(tag, " ") {
		return tag
	}
	if i := strings.IndexAny(tag, ":="); i > 0 {
		return tag[:i] + " " + tag[i+1:]
	}
	return tag
}

// NormalizeAll applies Normalize to every tag.
func NormalizeAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		out = append(out, Normalize(t))
	}
	return out
}
