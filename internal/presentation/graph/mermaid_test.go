package graph_test

import (
	"strings"
	"testing"

	"github.com/imovia/fluxo/internal/presentation/graph"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/dsl"
)

func sampleFlow() *domain.Definition {
	b := dsl.New()
	b.Add("start").Start().Go("ask-name")
	b.Add("ask-name").Label("Pergunta nome").Input("Nome?", "nome").Go("menu")
	b.Add("menu").Condition("keywords").
		Branch("buy", "Comprar", "crm", "comprar").
		Branch("help", "Ajuda \"humana\"", "human", "ajuda")
	b.Add("crm").UpdateVista(map[string]string{"interesse": "compra"}).Go("end")
	b.Add("human").Escalate("vendas", "alta")
	b.Add("end").End("Tchau")
	return b.MustBuild()
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(sampleFlow(), nil)

	for _, want := range []string{
		"graph TD\n",
		"start((\"start\"))",
		"ask_name[/\"Pergunta nome\"/]",
		"menu{\"menu\"}",
		"crm[[\"crm\"]]",
		"human>\"human\"]",
		"end((\"end\"))",
		"start --> ask_name",
		"menu -- \"Comprar\" --> crm",
		"menu -- \"Ajuda 'humana'\" --> human",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "classDef") {
		t.Error("no overlay requested, styles should be absent")
	}
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(sampleFlow(), &graph.GraphOverlay{
		VisitedNodes: []string{"start", "ask-name", "start"},
		CurrentNode:  "menu",
	})

	if strings.Count(out, "class start visited;") != 1 {
		t.Errorf("visited nodes should be deduplicated:\n%s", out)
	}
	for _, want := range []string{
		"classDef visited",
		"class ask_name visited;",
		"class menu current;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
}
