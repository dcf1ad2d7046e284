package provider

import (
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

var yamlErrorLine = regexp.MustCompile(`line (\d+)`)

// LintYAML parses pipeline YAML locally and reports syntax errors with line
// numbers. Unlike every other Provider operation this never touches
// internal/engine: no provider in this spec validates YAML client-side over
// HTTP, so there is nothing to cache, throttle or retry (spec.md §4.7).
func LintYAML(content string) (*LintResult, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(content), &node); err != nil {
		return &LintResult{
			Valid:  false,
			Errors: []LintError{{Line: lineFromYAMLError(err), Message: err.Error()}},
		}, nil
	}

	return &LintResult{Valid: true}, nil
}

// lineFromYAMLError extracts the line number yaml.v3 embeds in its error
// messages (formatted as "yaml: line N: ..."), defaulting to 0 when absent.
func lineFromYAMLError(err error) int {
	m := yamlErrorLine.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}

	line, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}

	return line
}
