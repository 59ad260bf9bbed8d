// Package ident turns free-form appliance object names into Terraform
// resource identifiers and tracks which identifiers have been handed out.
package ident

import (
	"strings"
)

// Marker is prefixed to identifiers that would otherwise not start with a letter
const Marker = "_"

// Sanitize maps an arbitrary name to a valid Terraform identifier.
// The name is lowercased, every character outside [a-z0-9_-] becomes "_",
// and Marker is prepended unless the result starts with a letter.
// It never returns an empty string.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 1)

	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	id := b.String()
	if id == "" || id[0] < 'a' || id[0] > 'z' {
		id = Marker + id
	}
	return id
}

// IsBlank reports whether an identifier carries no information from its
// source name, i.e. it has no letter or digit.
func IsBlank(id string) bool {
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
