// Package schema resolves manifest schemas and validates XML documents
// against XML Schema definitions.
package schema

import (
	"embed"
	"errors"
	"fmt"
	"strings"
)

//go:embed xsd/*.xsd
var builtin embed.FS

// ErrResourceNotFound indicates that no built-in manifest schema exists for a
// product family.
var ErrResourceNotFound = errors.New("schema resource not found")

// Schema is a schema document, either inline text (built-in resources) or a
// file on disk. Name is used in diagnostics.
type Schema struct {
	Name   string
	Inline []byte
	Path   string
}

// FromFile returns a Schema backed by the given file path.
func FromFile(path string) Schema {
	return Schema{Name: path, Path: path}
}

// Resolve returns the manifest schema for a product family. An explicit
// schema path always wins, then a per-family override, then the built-in
// resource for the family. A family without a built-in resource is an error,
// never a silent skip.
func Resolve(family, explicitPath string, overrides map[string]string) (Schema, error) {
	if explicitPath != "" {
		return FromFile(explicitPath), nil
	}
	if path, ok := overrides[strings.ToUpper(family)]; ok && strings.TrimSpace(path) != "" {
		return FromFile(path), nil
	}

	resource := fmt.Sprintf("xsd/%s_manifest.xsd", strings.ToLower(family))
	raw, err := builtin.ReadFile(resource)
	if err != nil {
		return Schema{}, fmt.Errorf("%w: %s", ErrResourceNotFound, resource)
	}

	return Schema{Name: fmt.Sprintf("built-in %s manifest schema", strings.ToLower(family)), Inline: raw}, nil
}
