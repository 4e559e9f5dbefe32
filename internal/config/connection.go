// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "sort"

// Recognised connection keys.
const (
	KeyUsername = "username"
	KeyPassword = "password"
	KeyHost     = "host"
	KeyVCRMode  = "vcr_mode"
)

// Connection is the parameter bundle handed to the harness at start-up.
// It is never mutated after construction.
type Connection struct {
	params map[string]string
}

// NewConnection copies params. Blank values are dropped so that a key that
// is configured but empty reads as absent.
func NewConnection(params map[string]string) Connection {
	c := Connection{params: make(map[string]string, len(params))}
	for k, v := range params {
		if v == "" {
			continue
		}
		c.params[k] = v
	}
	return c
}

// Lookup returns the value for key and whether it is present.
func (c Connection) Lookup(key string) (string, bool) {
	v, ok := c.params[key]
	return v, ok
}

// Has reports whether every key is present.
func (c Connection) Has(keys ...string) bool {
	for _, k := range keys {
		if _, ok := c.params[k]; !ok {
			return false
		}
	}
	return true
}

// Keys returns the present keys in sorted order.
func (c Connection) Keys() []string {
	keys := make([]string, 0, len(c.params))
	for k := range c.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
