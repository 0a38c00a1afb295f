package runtime

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
)

var (
	yesWords = map[string]bool{"sim": true, "s": true, "yes": true, "y": true, "true": true, "1": true, "claro": true, "ok": true}
	noWords  = map[string]bool{"não": true, "nao": true, "n": true, "no": true, "false": true, "0": true}
)

// Coerce applies the light conversion for an input node's expected type.
// Only typed conversions look at the trimmed text. Text, unknown types and
// values that do not parse are returned exactly as received, so the bound
// variable matches the user message in the transcript.
func Coerce(text, expectedType string) any {
	clean := strings.TrimSpace(text)
	switch expectedType {
	case domain.ExpectNumber:
		if f, ok := parseNumber(clean); ok {
			return f
		}
	case domain.ExpectCurrency:
		if f, ok := parseCurrency(clean); ok {
			return f
		}
	case domain.ExpectYesNo:
		lower := strings.ToLower(strings.Trim(clean, ".!"))
		if yesWords[lower] {
			return true
		}
		if noWords[lower] {
			return false
		}
	}
	return text
}

// dotGrouped matches thousands written with dots and no decimal part, like "250.000".
var dotGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// parseNumber accepts "42", "3,5", "3.5" and dot-grouped thousands ("1.500").
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	switch {
	case dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	case strings.Contains(s, ",") && !strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

// parseCurrency accepts Brazilian notation ("R$ 1.500,50", "R$ 250.000") and plain decimals.
func parseCurrency(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.ToUpper(s), "R$")
	s = strings.ReplaceAll(s, " ", "")
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case dotGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
