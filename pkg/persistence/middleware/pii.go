package middleware

import (
	"context"
	"regexp"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/ports"
)

// Mask replaces every masked value.
const Mask = "***"

// DefaultPIIPatterns cover the contact data a flow usually collects.
var DefaultPIIPatterns = []string{`(?i)telefone|phone|celular`, `(?i)cpf|cnpj`, `(?i)e-?mail`}

type piiMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the patterns.
// Variables are matched by name; the contact fields of the run config by
// their JSON names (contactName, contactPhone).
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, t *domain.Transcript) error {
	// Work on a copy; the caller's snapshot stays untouched.
	cloned := *t
	cloned.State = *t.State.Clone()
	cloned.State.Variables = deepCopyMap(t.State.Variables)

	maskMap(cloned.State.Variables, m.patterns)
	if cloned.Config.ContactPhone != "" && m.matches("contactPhone") {
		cloned.Config.ContactPhone = Mask
	}
	if cloned.Config.ContactName != "" && m.matches("contactName") {
		cloned.Config.ContactName = Mask
	}

	return m.next.Save(ctx, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, conversationID string) (*domain.Transcript, error) {
	return m.next.Load(ctx, conversationID)
}

func (m *piiMiddleware) Delete(ctx context.Context, conversationID string) error {
	return m.next.Delete(ctx, conversationID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok && m[k] != Mask {
			maskMap(subMap, patterns)
		}
	}
}
