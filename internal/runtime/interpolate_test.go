package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		vars    map[string]any
		contact string
		want    string
	}{
		{"bound variable", "Oi {{nome}}", map[string]any{"nome": "Maria"}, "", "Oi Maria"},
		{"unbound token stays verbatim", "Tel {{tel}}", map[string]any{}, "", "Tel {{tel}}"},
		{"whitespace inside braces", "Oi {{ nome }}!", map[string]any{"nome": "Ana"}, "", "Oi Ana!"},
		{"nome falls back to contact", "Olá {{nome}}", nil, "Cliente Teste", "Olá Cliente Teste"},
		{"name falls back to contact", "Hi {{name}}", nil, "Bia", "Hi Bia"},
		{"variable wins over contact", "{{nome}}", map[string]any{"nome": "Carla"}, "Bia", "Carla"},
		{"no contact keeps token", "Olá {{nome}}", nil, "", "Olá {{nome}}"},
		{"numbers are plain", "Valor {{v}}", map[string]any{"v": 1500.5}, "", "Valor 1500.5"},
		{"large numbers avoid exponent", "{{v}}", map[string]any{"v": 2500000.0}, "", "2500000"},
		{"booleans in portuguese", "{{ok}}", map[string]any{"ok": true}, "", "sim"},
		{"multiple tokens", "{{a}}-{{b}}-{{c}}", map[string]any{"a": "1", "b": 2}, "", "1-2-{{c}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.text, tt.vars, tt.contact))
		})
	}
}
