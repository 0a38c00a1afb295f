package runtime

import (
	"context"
	"fmt"

	"github.com/imovia/fluxo/pkg/domain"
)

// Warnings emitted when a condition reply matches no branch.
const (
	unmatchedFallbackNotice = "Nenhuma opção correspondeu à resposta; seguindo caminho padrão"
	unmatchedStayNotice     = "Nenhuma opção correspondeu à resposta; aguardando nova resposta"
)

// nextUnconditional follows the first selector-free edge leaving id, or the
// first edge at all when every edge carries a selector. No edge is a dead end.
func nextUnconditional(def *domain.Definition, id string) (*domain.Node, error) {
	edges := def.OutgoingEdges(id)
	if len(edges) == 0 {
		return nil, nil
	}
	chosen := edges[0]
	for _, e := range edges {
		if e.Unconditional() {
			chosen = e
			break
		}
	}
	return target(def, chosen)
}

// branchEdge finds the edge bound to branch i, by positional handle or branch id.
func branchEdge(def *domain.Definition, nodeID string, i int, branch domain.ConditionBranch) (domain.Edge, bool) {
	handle := domain.BranchHandle(i)
	for _, e := range def.OutgoingEdges(nodeID) {
		if e.BranchSelector == handle || (branch.ID != "" && e.BranchSelector == branch.ID) {
			return e, true
		}
	}
	return domain.Edge{}, false
}

func target(def *domain.Definition, e domain.Edge) (*domain.Node, error) {
	n, ok := def.Node(e.Target)
	if !ok {
		return nil, fmt.Errorf("%w: edge %s -> %s", domain.ErrNodeNotFound, e.Source, e.Target)
	}
	return n, nil
}

// Resume feeds text to the node the run is suspended on and returns where to go next.
// It records one LogEntry for the resumed node. A Step with WaitForInput set means
// the run stays suspended on the same node.
func (e *Engine) Resume(ctx context.Context, def *domain.Definition, state *domain.RunState, cfg domain.RunConfig, text string) (Step, error) {
	cfg = cfg.WithDefaults()
	node, ok := def.Node(state.CurrentNodeID)
	if !ok {
		return Step{}, &NodeError{NodeID: state.CurrentNodeID, Err: domain.ErrNodeNotFound}
	}

	started := e.now()
	x := &nodeExec{engine: e, ctx: ctx, def: def, node: node, state: state, cfg: cfg, success: true, input: text}

	var (
		step Step
		err  error
	)
	switch c := node.Config.(type) {
	case domain.InputConfig:
		step, err = x.bindInput(c, text)
	case domain.ConditionConfig:
		step, err = x.route(c, text)
	default:
		err = fmt.Errorf("node of type %s cannot receive input", node.Type)
	}
	if err != nil {
		x.success = false
		x.output = err.Error()
		err = &NodeError{NodeID: node.ID, NodeType: node.Type, Err: err}
	}

	e.appendLog(state, node, x, started, e.now().Sub(started))
	return step, err
}

func (x *nodeExec) bindInput(cfg domain.InputConfig, text string) (Step, error) {
	value := Coerce(text, cfg.ExpectedType)
	x.state.Variables[cfg.VariableName] = value
	x.action = "bind_input"
	x.output = map[string]any{"variable": cfg.VariableName, "value": value}
	return x.next()
}

func (x *nodeExec) route(cfg domain.ConditionConfig, text string) (Step, error) {
	x.action = "resolve_branch"

	if i, ok := ResolveBranch(text, cfg.Branches); ok {
		branch := cfg.Branches[i]
		x.output = map[string]any{"branch": branch.ID, "label": branch.Label, "index": i}
		if e, found := branchEdge(x.def, x.node.ID, i, branch); found {
			next, err := target(x.def, e)
			if err != nil {
				return Step{}, err
			}
			return Step{Next: next}, nil
		}
		// Matched a branch nobody wired: treat like no match.
	} else {
		x.output = map[string]any{"branch": nil}
	}

	if x.cfg.UnmatchedBranchPolicy == domain.UnmatchedStay {
		x.say(domain.MessageSystem, unmatchedStayNotice)
		return Step{WaitForInput: true}, nil
	}

	edges := x.def.OutgoingEdges(x.node.ID)
	if len(edges) == 0 {
		x.say(domain.MessageSystem, unmatchedStayNotice)
		return Step{WaitForInput: true}, nil
	}
	x.say(domain.MessageSystem, unmatchedFallbackNotice)
	return x.next()
}
