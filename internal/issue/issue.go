// Package issue extracts an issue-tracker reference from a merge/pull
// request title and expands it into a URL via a per-domain template
// (internal/config's issue_url_template, kept from the teacher's Issuer).
package issue

import (
	"bytes"
	"fmt"
	"regexp"
	"text/template"
)

// defaultPattern matches Jira-style references like "PROJ-123". Domains
// hosting GitHub-numbered issues ("#123") configure their own pattern via
// New's pattern argument.
var defaultPattern = regexp.MustCompile(`[A-Z]+-[0-9]+`)

// Issuer extracts issue references from titles and expands them into URLs.
type Issuer struct {
	urlTemplate *template.Template
	pattern     *regexp.Regexp
}

// New builds an Issuer. An empty urlTemplate disables MakeURL (it always
// returns ""). An empty pattern falls back to the Jira-style default.
func New(urlTemplate, pattern string) (*Issuer, error) {
	iss := &Issuer{pattern: defaultPattern}

	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling issue pattern: %w", err)
		}
		iss.pattern = re
	}

	if urlTemplate != "" {
		tmpl, err := template.New("issueURL").Parse(urlTemplate)
		if err != nil {
			return nil, fmt.Errorf("parsing issue URL template: %w", err)
		}
		iss.urlTemplate = tmpl
	}

	return iss, nil
}

// ExtractNumber returns the first issue reference found in title, or "".
func (i *Issuer) ExtractNumber(title string) string {
	return i.pattern.FindString(title)
}

// MakeURL expands the configured template with issueNumber. Returns ""
// without error when no template is configured or issueNumber is empty.
func (i *Issuer) MakeURL(issueNumber string) (string, error) {
	if issueNumber == "" || i.urlTemplate == nil {
		return "", nil
	}

	var buf bytes.Buffer
	data := struct{ Issue string }{Issue: issueNumber}

	if err := i.urlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing issue URL template: %w", err)
	}

	return buf.String(), nil
}
