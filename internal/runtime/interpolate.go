package runtime

import (
	"fmt"
	"regexp"
	"strconv"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Interpolate replaces {{name}} tokens with bound variables.
// nome/name fall back to contactName when unbound; any other unresolved
// token is left verbatim.
func Interpolate(text string, vars map[string]any, contactName string) string {
	if text == "" {
		return text
	}
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := tokenPattern.FindStringSubmatch(token)[1]
		if v, ok := vars[name]; ok && v != nil {
			return stringify(v)
		}
		if (name == "nome" || name == "name") && contactName != "" {
			return contactName
		}
		return token
	})
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		if t {
			return "sim"
		}
		return "não"
	}
	return fmt.Sprint(v)
}
