// Package common provides utility functions for field reference replacement.
//
// The {field-name} syntax allows prompt templates to reference fields from a
// per-call field map. At render time, these references are replaced with the
// mapped values.
//
// Example:
//
//	Input:  "Analyze this page: {main_text}"
//	Fields: {"main_text": "Welcome to ..."}
//	Output: "Analyze this page: Welcome to ..."
//
// Replacement is case-sensitive. Missing fields are logged as warnings but
// not treated as errors, allowing graceful degradation.
package common

import (
	"regexp"

	"github.com/ternarybob/arbor"
)

// fieldRefPattern matches {field-name} references in strings.
// Allows alphanumeric characters, hyphens, and underscores.
var fieldRefPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// ReplaceFieldReferences replaces all {field-name} references in the input
// string with values from the provided field map. If a field is not found,
// the reference is left unchanged and a warning is logged.
func ReplaceFieldReferences(input string, fields map[string]string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	logUnresolvedFields(input, fields, logger)

	return fieldRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		// Extract field name (remove braces)
		name := match[1 : len(match)-1]

		if value, exists := fields[name]; exists {
			return value
		}

		// Field not found - return unchanged
		return match
	})
}

// logUnresolvedFields finds all {field-name} references and logs warnings for missing fields
func logUnresolvedFields(input string, fields map[string]string, logger arbor.ILogger) {
	if logger == nil {
		return
	}
	matches := fieldRefPattern.FindAllStringSubmatch(input, -1)
	for _, match := range matches {
		if len(match) > 1 {
			name := match[1]
			if _, exists := fields[name]; !exists {
				logger.Warn().
					Str("reference", match[0]).
					Str("field", name).
					Msg("Unresolved field reference in prompt template")
			}
		}
	}
}
