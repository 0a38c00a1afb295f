package tests

import (
	"testing"

	"github.com/imovia/fluxo/pkg/ports"
)

// FlowLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.FlowLoader.
// expected maps each flow name to the number of nodes its definition must hold.
func FlowLoaderContractTest(t *testing.T, loader ports.FlowLoader, expected map[string]int) {
	t.Helper()

	t.Run("Load_Success", func(t *testing.T) {
		for name, nodes := range expected {
			def, err := loader.Load(name)
			if err != nil {
				t.Fatalf("unexpected error loading flow %s: %v", name, err)
			}
			if len(def.Nodes) != nodes {
				t.Errorf("node count mismatch for %s. got %d, want %d", name, len(def.Nodes), nodes)
			}
			if _, ok := def.Node(def.Nodes[0].ID); !ok {
				t.Errorf("definition %s is not indexed", name)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load("non-existent-flow")
		if err == nil {
			t.Error("expected error for non-existent flow, got nil")
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := loader.List()
		if err != nil {
			t.Fatalf("unexpected error listing flows: %v", err)
		}
		if len(names) != len(expected) {
			t.Errorf("expected %d flows, got %d", len(expected), len(names))
		}
		lookup := make(map[string]bool)
		for _, n := range names {
			lookup[n] = true
		}
		for name := range expected {
			if !lookup[name] {
				t.Errorf("flow %s missing from list", name)
			}
		}
	})
}
