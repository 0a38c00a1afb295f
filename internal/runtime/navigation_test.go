package runtime_test

import (
	"context"
	"testing"

	"github.com/imovia/fluxo/internal/runtime"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// suspended runs def from start and asserts the run is waiting on nodeID.
func suspended(t *testing.T, e *runtime.Engine, def *domain.Definition, cfg domain.RunConfig, nodeID string) *domain.RunState {
	t.Helper()
	state := runFromStart(t, e, def, cfg)
	require.Equal(t, domain.StatusWaitingInput, state.Status)
	require.Equal(t, nodeID, state.CurrentNodeID)
	return state
}

func TestResume_InputBindsCoercedValue(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("ask")
	b.Add("ask").Input("Quanto pode pagar?", "orcamento").Expect(domain.ExpectCurrency).Go("end")
	b.Add("end").End("Orçamento: {{orcamento}}")
	def := b.MustBuild()
	e := runtime.NewEngine(nil)

	state := suspended(t, e, def, domain.RunConfig{}, "ask")
	step, err := e.Resume(context.Background(), def, state, domain.RunConfig{}, "R$ 350.000,00")
	require.NoError(t, err)

	assert.Equal(t, 350000.0, state.Variables["orcamento"])
	require.NotNil(t, step.Next)
	assert.Equal(t, "end", step.Next.ID)
	last := state.ExecutionLog[len(state.ExecutionLog)-1]
	assert.Equal(t, "bind_input", last.Action)
	assert.Equal(t, "ask", last.NodeID)
}

func conditionFlow() *domain.Definition {
	b := dsl.New()
	b.Add("start").Start().Go("c")
	b.Add("c").Condition("keywords").
		Branch("b-sim", "Sim", "", "sim").
		Branch("b-nao", "Não", "", "não")
	b.Add("yes").End("Ótimo!")
	b.Add("no").End("Que pena.")
	b.Add("other").End("Não entendi.")
	// Positional handle for the first branch, branch id for the second.
	b.Edge("c", "yes", domain.BranchHandle(0))
	b.Edge("c", "no", "b-nao")
	b.Edge("c", "other", "")
	return b.MustBuild()
}

func TestResume_ConditionBySelector(t *testing.T) {
	def := conditionFlow()
	e := runtime.NewEngine(nil)

	tests := []struct {
		reply string
		want  string
	}{
		{"sim, pode ser", "yes"},
		{"NÃO quero", "no"},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			state := suspended(t, e, def, domain.RunConfig{}, "c")
			step, err := e.Resume(context.Background(), def, state, domain.RunConfig{}, tt.reply)
			require.NoError(t, err)
			require.NotNil(t, step.Next)
			assert.Equal(t, tt.want, step.Next.ID)
		})
	}
}

func TestResume_UnmatchedFallback(t *testing.T) {
	def := conditionFlow()
	e := runtime.NewEngine(nil)
	state := suspended(t, e, def, domain.RunConfig{}, "c")

	step, err := e.Resume(context.Background(), def, state, domain.RunConfig{}, "talvez")
	require.NoError(t, err)
	require.NotNil(t, step.Next)
	assert.Equal(t, "other", step.Next.ID)
	assert.Equal(t, "Nenhuma opção correspondeu à resposta; seguindo caminho padrão", state.Messages[len(state.Messages)-1].Content)
}

func TestResume_UnmatchedFallbackWithoutUnconditionalEdge(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("c")
	b.Add("c").Condition("").Branch("a", "A", "x", "alpha").Branch("b", "B", "y", "beta")
	b.Add("x").End("")
	b.Add("y").End("")
	def := b.MustBuild()
	e := runtime.NewEngine(nil)
	state := suspended(t, e, def, domain.RunConfig{}, "c")

	step, err := e.Resume(context.Background(), def, state, domain.RunConfig{}, "gamma")
	require.NoError(t, err)
	require.NotNil(t, step.Next)
	assert.Equal(t, "x", step.Next.ID, "falls back to the first edge of the node")
}

func TestResume_UnmatchedStay(t *testing.T) {
	def := conditionFlow()
	e := runtime.NewEngine(nil)
	cfg := domain.RunConfig{UnmatchedBranchPolicy: domain.UnmatchedStay}
	state := suspended(t, e, def, cfg, "c")

	step, err := e.Resume(context.Background(), def, state, cfg, "talvez")
	require.NoError(t, err)
	assert.True(t, step.WaitForInput)
	assert.Nil(t, step.Next)
}

func TestResume_NoEdgesStaysWaiting(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("c")
	b.Add("c").Condition("").Branch("a", "A", "", "alpha")
	def := b.MustBuild()
	e := runtime.NewEngine(nil)
	state := suspended(t, e, def, domain.RunConfig{}, "c")

	step, err := e.Resume(context.Background(), def, state, domain.RunConfig{}, "alpha")
	require.NoError(t, err)
	assert.True(t, step.WaitForInput)
}

func TestResume_WrongNodeType(t *testing.T) {
	b := dsl.New()
	b.Add("m").Message("x")
	def := b.MustBuild()

	state := domain.NewRunState()
	state.CurrentNodeID = "m"
	_, err := runtime.NewEngine(nil).Resume(context.Background(), def, state, domain.RunConfig{}, "hi")
	require.Error(t, err)
	assert.Len(t, state.ExecutionLog, 1)
	assert.False(t, state.ExecutionLog[0].Success)
}
