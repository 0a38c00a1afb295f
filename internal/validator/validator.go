package validator

import (
	"fmt"
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
)

// Report lists the problems found in a flow definition.
// Errors make a flow unfit to run; warnings do not.
type Report struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Err aggregates the errors, or returns nil when there are none.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateGraph reports structural problems. It never repairs the definition.
func ValidateGraph(def *domain.Definition) error {
	return Validate(def).Err()
}

// Validate checks the definition and returns every problem it finds.
func Validate(def *domain.Definition) *Report {
	r := &Report{Errors: []string{}, Warnings: []string{}}

	var starts []string
	for _, n := range def.Nodes {
		if n.Type == domain.NodeTypeStart {
			starts = append(starts, n.ID)
		}
		checkNode(r, def, n)
	}
	switch len(starts) {
	case 0:
		r.errorf("no start node")
	case 1:
		if in := def.IncomingEdges(starts[0]); len(in) > 0 {
			r.errorf("start node '%s' has %d incoming edges", starts[0], len(in))
		}
	default:
		r.errorf("multiple start nodes: %s", strings.Join(starts, ", "))
	}

	for _, e := range def.Edges {
		if _, ok := def.Node(e.Source); !ok {
			r.errorf("edge '%s' references missing source '%s'", e.ID, e.Source)
		}
		if _, ok := def.Node(e.Target); !ok {
			r.errorf("edge '%s' references missing target '%s'", e.ID, e.Target)
		}
	}

	if len(starts) > 0 {
		for _, id := range unreachable(def, starts[0]) {
			r.warnf("node '%s' is unreachable from start", id)
		}
	}
	return r
}

func checkNode(r *Report, def *domain.Definition, n domain.Node) {
	switch cfg := n.Config.(type) {
	case domain.InputConfig:
		if strings.TrimSpace(cfg.VariableName) == "" {
			r.errorf("input node '%s' has no variable name", n.ID)
		}
	case domain.ConditionConfig:
		checkCondition(r, def, n.ID, cfg)
	case domain.UnknownConfig:
		r.warnf("node '%s' has unknown type '%s'", n.ID, cfg.Type)
	}
}

func checkCondition(r *Report, def *domain.Definition, id string, cfg domain.ConditionConfig) {
	if len(cfg.Branches) == 0 {
		r.errorf("condition node '%s' declares no branches", id)
		return
	}

	ids := make(map[string]bool, len(cfg.Branches))
	for _, b := range cfg.Branches {
		ids[b.ID] = true
	}
	wired := make(map[int]bool)
	for _, e := range def.OutgoingEdges(id) {
		if e.Unconditional() {
			continue
		}
		if i, ok := domain.ParseBranchHandle(e.BranchSelector); ok && i < len(cfg.Branches) {
			wired[i] = true
			continue
		}
		if ids[e.BranchSelector] {
			for i, b := range cfg.Branches {
				if b.ID == e.BranchSelector {
					wired[i] = true
				}
			}
			continue
		}
		r.errorf("edge '%s' on condition '%s' selects unknown branch '%s'", e.ID, id, e.BranchSelector)
	}
	for i, b := range cfg.Branches {
		if !wired[i] {
			name := b.Label
			if name == "" {
				name = b.ID
			}
			r.warnf("branch '%s' of condition '%s' has no edge", name, id)
		}
	}
}

// unreachable walks the graph breadth-first from start and returns the ids never visited.
func unreachable(def *domain.Definition, start string) []string {
	visited := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range def.OutgoingEdges(current) {
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	var out []string
	for _, n := range def.Nodes {
		if !visited[n.ID] {
			out = append(out, n.ID)
		}
	}
	return out
}
