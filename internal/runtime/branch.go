package runtime

import (
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
)

// ResolveBranch returns the index of the first branch, in declaration order,
// with a keyword contained case-insensitively in input.
func ResolveBranch(input string, branches []domain.ConditionBranch) (int, bool) {
	text := strings.ToLower(input)
	for i, b := range branches {
		for _, kw := range b.MatchKeywords() {
			if strings.Contains(text, strings.ToLower(kw)) {
				return i, true
			}
		}
	}
	return -1, false
}
