package graph

import (
	"fmt"
	"strings"

	"github.com/imovia/fluxo/pkg/domain"
)

// GraphOverlay contains run state to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart for a flow definition.
// Node shapes follow the node type:
//   - start, end: ((Circle))
//   - input: [/Parallelogram/]
//   - condition: {Rhombus}
//   - action, integration: [[Subroutine]]
//   - escalation: >Flag]
//   - everything else: [Rectangle]
//
// Edges leaving a condition node are labeled with the branch they select.
// Overlay styles (visited/current) are applied if overlay is not nil.
func GenerateMermaid(def *domain.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range def.Nodes {
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := shape(node.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.DisplayLabel()), closer)
	}

	for _, e := range def.Edges {
		from, to := sanitizeMermaidID(e.Source), sanitizeMermaidID(e.Target)
		if label := edgeLabel(def, e); label != "" {
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escapeLabel(label), to)
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func shape(t domain.NodeType) (string, string) {
	switch t {
	case domain.NodeTypeStart, domain.NodeTypeEnd:
		return "((", "))"
	case domain.NodeTypeInput:
		return "[/", "/]"
	case domain.NodeTypeCondition:
		return "{", "}"
	case domain.NodeTypeAction, domain.NodeTypeIntegration:
		return "[[", "]]"
	case domain.NodeTypeEscalation:
		return ">", "]"
	}
	return "[", "]"
}

// edgeLabel names the branch an edge selects, falling back to the raw selector.
func edgeLabel(def *domain.Definition, e domain.Edge) string {
	if e.Unconditional() {
		return ""
	}
	n, ok := def.Node(e.Source)
	if !ok {
		return e.BranchSelector
	}
	cfg, ok := n.Config.(domain.ConditionConfig)
	if !ok {
		return e.BranchSelector
	}
	for i, b := range cfg.Branches {
		if e.BranchSelector == b.ID || e.BranchSelector == domain.BranchHandle(i) {
			if b.Label != "" {
				return b.Label
			}
			return b.ID
		}
	}
	return e.BranchSelector
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
