package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNode_UnmarshalJSON_DecodesVariant(t *testing.T) {
	data := `{
		"id": "c1",
		"type": "condition",
		"label": "Interesse",
		"config": {
			"conditionType": "button",
			"branches": [
				{"id": "b1", "label": "Comprar", "value": "comprar", "keywords": ["comprar", "compra"]},
				{"id": "b2", "label": "Alugar", "value": "alugar"}
			]
		}
	}`

	var n Node
	require.NoError(t, json.Unmarshal([]byte(data), &n))

	cfg, ok := n.Config.(ConditionConfig)
	require.True(t, ok, "expected ConditionConfig, got %T", n.Config)
	assert.Equal(t, "button", cfg.ConditionType)
	require.Len(t, cfg.Branches, 2)
	assert.Equal(t, []string{"comprar", "compra"}, cfg.Branches[0].Keywords)
	assert.Equal(t, []string{"alugar", "Alugar"}, cfg.Branches[1].MatchKeywords())
}

func TestNode_UnmarshalYAML_WeakNumbers(t *testing.T) {
	data := `
id: d1
type: delay
config:
  duration: "5"
  unit: minutes
`
	var n Node
	require.NoError(t, yaml.Unmarshal([]byte(data), &n))

	cfg, ok := n.Config.(DelayConfig)
	require.True(t, ok)
	assert.Equal(t, 5.0, cfg.Duration)
	assert.Equal(t, "minutes", cfg.Unit)
}

func TestNode_UnknownTypeKeepsRawConfig(t *testing.T) {
	var n Node
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"carousel","config":{"cards":3}}`), &n))

	cfg, ok := n.Config.(UnknownConfig)
	require.True(t, ok)
	assert.Equal(t, NodeType("carousel"), ConfigType(cfg))
	assert.False(t, n.Type.Known())

	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","type":"carousel","config":{"cards":3}}`, string(out))
}

func TestNode_InvalidConfig(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`{"id":"m1","type":"message","config":{"text":["not","a","string"]}}`), &n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `node "m1"`)
}

func TestConditionBranch_MatchKeywordsSkipsBlank(t *testing.T) {
	b := ConditionBranch{Label: "Sim", Value: "  ", Keywords: nil}
	assert.Equal(t, []string{"Sim"}, b.MatchKeywords())

	b = ConditionBranch{Keywords: []string{" ", "ok "}}
	assert.Equal(t, []string{"ok"}, b.MatchKeywords())
}

func TestEdge_SourceHandleAlias(t *testing.T) {
	var e Edge
	require.NoError(t, json.Unmarshal([]byte(`{"source":"c1","target":"n2","sourceHandle":"branch-1"}`), &e))
	assert.Equal(t, "branch-1", e.BranchSelector)
	assert.False(t, e.Unconditional())

	i, ok := ParseBranchHandle(e.BranchSelector)
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = ParseBranchHandle("b1")
	assert.False(t, ok)
	assert.Equal(t, "branch-3", BranchHandle(3))
}
