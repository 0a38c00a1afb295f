package memory_test

import (
	"testing"

	"github.com/imovia/fluxo/pkg/adapters/memory"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/dsl"
	contract "github.com/imovia/fluxo/pkg/ports/tests"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	b := dsl.New()
	b.Add("start").Start().Go("end")
	b.Add("end").End("Tchau")

	loader := memory.NewLoader(map[string]*domain.Definition{
		"simple": b.MustBuild(),
	})

	contract.FlowLoaderContractTest(t, loader, map[string]int{"simple": 2})
}
