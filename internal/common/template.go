package common

import (
	"strings"
	"text/template"
)

// RenderTemplate executes source against data. Referencing a key which data
// does not hold is an error rather than "<no value>".
func RenderTemplate(name, source string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(source)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", err
	}

	return strings.TrimSpace(sb.String()), nil
}
