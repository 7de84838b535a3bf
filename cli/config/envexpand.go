package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches $${...} escapes, ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$(\$)?\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
//
// A set, non-empty variable wins; otherwise the default is used; otherwise
// the reference expands to the empty string. "$${VAR}" is an escape and
// produces the literal text "${VAR}".
func ExpandEnv(input string) string {
	if !strings.Contains(input, "${") {
		return input
	}

	var b strings.Builder
	last := 0
	for _, m := range envVarPattern.FindAllStringSubmatchIndex(input, -1) {
		b.WriteString(input[last:m[0]])
		last = m[1]

		if m[2] >= 0 {
			// Escaped: drop the leading '$' and keep the reference verbatim.
			b.WriteString(input[m[0]+1 : m[1]])
			continue
		}

		name := input[m[4]:m[5]]
		if value, ok := os.LookupEnv(name); ok && value != "" {
			b.WriteString(value)
			continue
		}
		if m[6] >= 0 {
			b.WriteString(input[m[6]:m[7]])
		}
	}
	b.WriteString(input[last:])
	return b.String()
}
