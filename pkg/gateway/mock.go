package gateway

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// Mock returns deterministic synthetic payloads without network access.
// The same effect and payload always yield the same Result.
type Mock struct{}

// NewMock creates a mock gateway.
func NewMock() *Mock {
	return &Mock{}
}

// Invoke implements Gateway. The mode argument is ignored.
func (m *Mock) Invoke(_ context.Context, effect EffectType, payload map[string]any, _ Mode) Result {
	switch effect {
	case EffectUpdateVista:
		return Result{Success: true, Data: map[string]any{
			"status":         "ok",
			"mock":           true,
			"updated_fields": fieldNames(payload),
			"contact_phone":  stringField(payload, "contact_phone"),
		}}
	case EffectIntegration:
		method := strings.ToUpper(stringField(payload, "method"))
		if method == "" {
			method = http.MethodPost
		}
		return Result{Success: true, Data: map[string]any{
			"status": http.StatusOK,
			"mock":   true,
			"url":    stringField(payload, "url"),
			"method": method,
		}}
	default:
		return Result{Success: true, Data: map[string]any{
			"status": "ok",
			"mock":   true,
			"effect": string(effect),
		}}
	}
}

func fieldNames(payload map[string]any) []string {
	names := []string{}
	switch fields := payload["fields"].(type) {
	case map[string]string:
		for k := range fields {
			names = append(names, k)
		}
	case map[string]any:
		for k := range fields {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}
