package runtime_test

import (
	"context"
	"testing"

	"github.com/imovia/fluxo/internal/runtime"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/dsl"
	"github.com/imovia/fluxo/pkg/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(state *domain.RunState) []string {
	out := make([]string, 0, len(state.Messages))
	for _, m := range state.Messages {
		out = append(out, m.Content)
	}
	return out
}

func runFromStart(t *testing.T, e *runtime.Engine, def *domain.Definition, cfg domain.RunConfig) *domain.RunState {
	t.Helper()
	state := domain.NewRunState()
	start, ok := def.StartNode()
	require.True(t, ok)
	require.NoError(t, e.ContinueExecution(context.Background(), def, start, state, cfg))
	return state
}

func TestEngine_LinearCompletion(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("hello")
	b.Add("hello").Message("Oi {{nome}}").Go("end")
	b.Add("end").End("Tchau!")
	def := b.MustBuild()

	state := domain.NewRunState()
	state.Variables["nome"] = "Maria"
	start, _ := def.StartNode()
	require.NoError(t, runtime.NewEngine(nil).ContinueExecution(context.Background(), def, start, state, domain.RunConfig{}))

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Empty(t, state.CurrentNodeID)
	assert.Equal(t, []string{"Fluxo iniciado", "Oi Maria", "Tchau!", "Fluxo finalizado"}, contents(state))
	assert.Equal(t, []string{"start", "hello", "end"}, state.VisitedNodes.IDs())
	require.Len(t, state.ExecutionLog, 3)
	for _, entry := range state.ExecutionLog {
		assert.True(t, entry.Success, entry.NodeID)
	}
}

func TestEngine_DeadEndCompletes(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("hello")
	b.Add("hello").Message("sem saída")
	state := runFromStart(t, runtime.NewEngine(nil), b.MustBuild(), domain.RunConfig{})

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Empty(t, state.Error)
	assert.NotContains(t, contents(state), "Fluxo finalizado")
}

func TestEngine_SuspendsAtInput(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("ask")
	b.Add("ask").Input("Qual seu e-mail?", "email").Go("end")
	b.Add("end").End("")
	state := runFromStart(t, runtime.NewEngine(nil), b.MustBuild(), domain.RunConfig{})

	assert.Equal(t, domain.StatusWaitingInput, state.Status)
	assert.Equal(t, "ask", state.CurrentNodeID)
	assert.Equal(t, []string{"Fluxo iniciado", "Qual seu e-mail?", "Aguardando entrada: email"}, contents(state))
	assert.Equal(t, domain.MessageBot, state.Messages[1].Type)
	assert.Equal(t, domain.MessageSystem, state.Messages[2].Type)
}

func TestEngine_SuspendsAtCondition(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("c")
	b.Add("c").Condition("button").Branch("sim", "Sim", "", "sim")
	state := runFromStart(t, runtime.NewEngine(nil), b.MustBuild(), domain.RunConfig{})

	assert.Equal(t, domain.StatusWaitingInput, state.Status)
	assert.Equal(t, "Aguardando resposta (condição: button)", state.Messages[len(state.Messages)-1].Content)
}

func TestEngine_NoticeNodes(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("esc")
	b.Add("esc").Escalate("vendas", "alta").Go("wait")
	b.Add("wait").Delay(5, "minutes").Go("set")
	b.Add("set").SetVariable("origem", "bot de {{nome}}").Go("end")
	b.Add("end").End("")

	def := b.MustBuild()
	state := domain.NewRunState()
	start, _ := def.StartNode()
	require.NoError(t, runtime.NewEngine(nil).ContinueExecution(context.Background(), def, start, state, domain.RunConfig{ContactName: "Ana"}))

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.Contains(t, contents(state), "Escalado para vendas (prioridade: alta)")
	assert.Contains(t, contents(state), "Aguardaria 5 minutes (ignorado no modo de teste)")
	assert.Equal(t, "bot de Ana", state.Variables["origem"])
}

func TestEngine_UnknownNodeIsPassThrough(t *testing.T) {
	def, err := domain.NewDefinition(
		[]domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "carousel", Type: "carousel", Config: domain.UnknownConfig{Type: "carousel"}},
			{ID: "end", Type: domain.NodeTypeEnd},
		},
		[]domain.Edge{{Source: "start", Target: "carousel"}, {Source: "carousel", Target: "end"}},
	)
	require.NoError(t, err)

	state := runFromStart(t, runtime.NewEngine(nil), def, domain.RunConfig{})

	assert.Equal(t, domain.StatusCompleted, state.Status)
	require.Len(t, state.ExecutionLog, 3)
	assert.False(t, state.ExecutionLog[1].Success)
	assert.Equal(t, "unknown_node_type", state.ExecutionLog[1].Action)
	assert.True(t, state.ExecutionLog[2].Success)
}

func TestEngine_MalformedNodeHaltsRun(t *testing.T) {
	def, err := domain.NewDefinition(
		[]domain.Node{
			{ID: "start", Type: domain.NodeTypeStart},
			{ID: "ask", Type: domain.NodeTypeInput, Config: domain.InputConfig{Prompt: "?"}},
		},
		[]domain.Edge{{Source: "start", Target: "ask"}},
	)
	require.NoError(t, err)

	state := runFromStart(t, runtime.NewEngine(nil), def, domain.RunConfig{})

	assert.Equal(t, domain.StatusError, state.Status)
	assert.Contains(t, state.Error, "variableName")
	assert.Empty(t, state.CurrentNodeID)
	require.Len(t, state.ExecutionLog, 2)
	assert.False(t, state.ExecutionLog[1].Success)
}

func TestEngine_ProcessNodeReturnsNodeError(t *testing.T) {
	def, err := domain.NewDefinition([]domain.Node{
		{ID: "c", Type: domain.NodeTypeCondition, Config: domain.ConditionConfig{}},
	}, nil)
	require.NoError(t, err)
	node, _ := def.Node("c")

	_, err = runtime.NewEngine(nil).ProcessNode(context.Background(), def, node, domain.NewRunState(), domain.RunConfig{})
	var nodeErr *runtime.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "c", nodeErr.NodeID)
}

func TestEngine_EdgeToMissingNode(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("ghost")
	state := runFromStart(t, runtime.NewEngine(nil), b.MustBuild(), domain.RunConfig{})

	assert.Equal(t, domain.StatusError, state.Status)
	assert.Contains(t, state.Error, "ghost")
}

func TestEngine_MockVistaUpdate(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("crm")
	b.Add("crm").UpdateVista(map[string]string{"Nome": "{{nome}}"}).Go("end")
	b.Add("end").End("")
	def := b.MustBuild()

	first := runFromStart(t, runtime.NewEngine(gateway.NewMock()), def, domain.RunConfig{ContactPhone: "4899"})
	second := runFromStart(t, runtime.NewEngine(gateway.NewMock()), def, domain.RunConfig{ContactPhone: "4899"})

	assert.Equal(t, first.ExecutionLog[1].Output, second.ExecutionLog[1].Output)
	assert.True(t, first.ExecutionLog[1].Success)
	assert.Contains(t, contents(first), "Vista atualizado (mock): Nome")
}

func TestEngine_RealModeWithoutGateway(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("crm")
	b.Add("crm").UpdateVista(map[string]string{"Status": "novo"}).Go("end")
	b.Add("end").End("")

	state := runFromStart(t, runtime.NewEngine(nil), b.MustBuild(), domain.RunConfig{UseRealIntegrations: true})

	assert.Equal(t, domain.StatusCompleted, state.Status)
	assert.False(t, state.ExecutionLog[1].Success)
	assert.Contains(t, contents(state), "Falha em update_vista: real integrations are not configured")
	assert.NotContains(t, contents(state), "Vista atualizado (real): Status")
}

func failingGateway() gateway.Gateway {
	return gateway.Func(func(ctx context.Context, effect gateway.EffectType, payload map[string]any, mode gateway.Mode) gateway.Result {
		return gateway.Result{Success: false, Error: "connection refused"}
	})
}

func TestEngine_EffectFailurePolicy(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("hook")
	b.Add("hook").Integration("POST", "https://crm.test/{{nome}}", nil).Go("end")
	b.Add("end").End("Fim")
	def := b.MustBuild()

	t.Run("continue", func(t *testing.T) {
		state := runFromStart(t, runtime.NewEngine(failingGateway()), def, domain.RunConfig{UseRealIntegrations: true})

		assert.Equal(t, domain.StatusCompleted, state.Status)
		assert.False(t, state.ExecutionLog[1].Success)
		assert.Contains(t, contents(state), "Falha em integration: connection refused")
		assert.Contains(t, contents(state), "Fim")
	})

	t.Run("halt", func(t *testing.T) {
		cfg := domain.RunConfig{UseRealIntegrations: true, EffectFailurePolicy: domain.EffectFailureHalt}
		state := runFromStart(t, runtime.NewEngine(failingGateway()), def, cfg)

		assert.Equal(t, domain.StatusError, state.Status)
		assert.Contains(t, state.Error, "external effect failed")
		assert.NotContains(t, contents(state), "Fim")
		assert.Len(t, state.ExecutionLog, 2)
	})
}

func TestEngine_LifecycleHooks(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("crm")
	b.Add("crm").UpdateVista(map[string]string{"Status": "Lead"}).Go("ask")
	b.Add("ask").Input("", "x")
	def := b.MustBuild()

	var entered, left []string
	var effects []string
	var statuses []domain.RunStatus
	hooks := domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) { left = append(left, e.NodeID) },
		OnEffectCall: func(ctx context.Context, e *domain.EffectEvent) {
			effects = append(effects, e.Effect+":"+e.Mode)
		},
		OnStatusChange: func(ctx context.Context, e *domain.StatusEvent) { statuses = append(statuses, e.To) },
	}

	runFromStart(t, runtime.NewEngine(nil, runtime.WithLifecycleHooks(hooks)), def, domain.RunConfig{})

	assert.Equal(t, []string{"start", "crm", "ask"}, entered)
	assert.Equal(t, []string{"start", "crm", "ask"}, left)
	assert.Equal(t, []string{"update_vista:mock"}, effects)
	assert.Equal(t, []domain.RunStatus{domain.StatusRunning, domain.StatusWaitingInput}, statuses)
}

func TestEngine_CancelledContextStopsLoop(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("m")
	b.Add("m").Message("x")
	def := b.MustBuild()
	start, _ := def.StartNode()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := domain.NewRunState()
	err := runtime.NewEngine(nil).ContinueExecution(ctx, def, start, state, domain.RunConfig{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, state.ExecutionLog)
}
