package dsl

import (
	"testing"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New()

	b.Add("start").Start().Go("hello")
	b.Add("hello").Message("Olá {{nome}}").Go("ask")
	b.Add("ask").Input("Telefone?", "telefone").Expect(domain.ExpectPhone).Go("end")
	b.Add("end").End("Até mais!")

	def, err := b.Build()
	require.NoError(t, err)

	require.Len(t, def.Nodes, 4)
	assert.Equal(t, []string{"start", "hello", "ask", "end"}, []string{def.Nodes[0].ID, def.Nodes[1].ID, def.Nodes[2].ID, def.Nodes[3].ID})

	ask, ok := def.Node("ask")
	require.True(t, ok)
	cfg := ask.Config.(domain.InputConfig)
	assert.Equal(t, "telefone", cfg.VariableName)
	assert.Equal(t, domain.ExpectPhone, cfg.ExpectedType)

	out := def.OutgoingEdges("hello")
	require.Len(t, out, 1)
	assert.Equal(t, "ask", out[0].Target)
	assert.True(t, out[0].Unconditional())
}

func TestBuilder_ConditionBranches(t *testing.T) {
	b := New()
	b.Add("c").Condition("keywords").
		Branch("sim", "Sim", "yes", "sim").
		Branch("nao", "Não", "no", "não").
		Branch("talvez", "Talvez", "")
	b.Add("yes").End("")
	b.Add("no").End("")

	def := b.MustBuild()
	c, _ := def.Node("c")
	cfg := c.Config.(domain.ConditionConfig)
	require.Len(t, cfg.Branches, 3)

	edges := def.OutgoingEdges("c")
	require.Len(t, edges, 2)
	assert.Equal(t, "branch-0", edges[0].BranchSelector)
	assert.Equal(t, "branch-1", edges[1].BranchSelector)
}

func TestBuilder_DuplicateIDReturnsExisting(t *testing.T) {
	b := New()
	first := b.Add("x")
	assert.Same(t, first, b.Add("x"))
}
