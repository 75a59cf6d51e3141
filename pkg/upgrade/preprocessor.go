package upgrade

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Preprocessor transforms script contents before execution. Preprocessors
	// run in the order they appear in Configuration.Preprocessors.
	Preprocessor interface {
		Process(contents string) string
	}

	// PreprocessorFunc adapts a function to Preprocessor.
	PreprocessorFunc func(string) string

	// MySQLPreprocessor strips a leading UTF-8 byte order mark and normalizes
	// line endings so DELIMITER directives are recognized.
	MySQLPreprocessor struct{}
)

var variablePattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_\-]*)\$`)

// Process implements Preprocessor.
func (f PreprocessorFunc) Process(contents string) string {
	return f(contents)
}

// Process implements Preprocessor.
func (MySQLPreprocessor) Process(contents string) string {
	contents = strings.TrimPrefix(contents, "\ufeff")
	return strings.ReplaceAll(contents, "\r\n", "\n")
}

// SubstituteVariables replaces $name$ tokens with their values. A token with no
// matching variable is an error.
func SubstituteVariables(contents string, variables map[string]string) (string, error) {
	var missing []string

	out := variablePattern.ReplaceAllStringFunc(contents, func(token string) string {
		name := token[1 : len(token)-1]
		value, ok := variables[name]
		if !ok {
			missing = append(missing, name)
			return token
		}

		return value
	})

	if len(missing) > 0 {
		return "", errors.Errorf("variable %s has no value defined", missing[0])
	}

	return out, nil
}
