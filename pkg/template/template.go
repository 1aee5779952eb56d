// Package template substitutes {{variable}} placeholders in automation
// payloads using the execution context's flat variable map.
package template

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Render replaces every {{name}} occurrence with the stringified value
// from variables. A name absent from the map is left literally
// unchanged. Rendering is a single pass: substituted values are never
// re-scanned for further placeholders, and Render never fails.
func Render(input string, variables map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(input, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]

		value, ok := variables[name]
		if !ok {
			return match
		}

		return fmt.Sprintf("%v", value)
	})
}
