// Package id mints the prefixed identifiers used for collection records.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Record id prefixes. Reference tables carry their own prefixes.
const (
	PrefixPerfume = "pf"
	PrefixEvent   = "ev"
	PrefixNote    = "nt"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "pf-V1StGXR8_Z5jdHi6B-myT")
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	// Use default NanoID (21 characters, URL-safe alphabet)
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Prefix returns the part of an id before the first hyphen, or "" for
// ids without one (such as ids imported verbatim from legacy files).
func Prefix(id string) string {
	prefix, _, ok := strings.Cut(id, "-")
	if !ok {
		return ""
	}
	return prefix
}
