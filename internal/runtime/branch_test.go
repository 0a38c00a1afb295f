package runtime

import (
	"testing"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveBranch_FirstMatchWins(t *testing.T) {
	branches := []domain.ConditionBranch{
		{ID: "b1", Keywords: []string{"sim"}},
		{ID: "b2", Keywords: []string{"não"}},
	}

	for i := 0; i < 20; i++ {
		idx, ok := ResolveBranch("sim, pode ser", branches)
		assert.True(t, ok)
		assert.Equal(t, 0, idx)
	}

	// Both keywords present: declaration order decides.
	idx, ok := ResolveBranch("não sei, talvez sim", branches)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestResolveBranch_CaseInsensitive(t *testing.T) {
	branches := []domain.ConditionBranch{
		{ID: "compra", Label: "Comprar", Value: "comprar"},
		{ID: "aluguel", Label: "Alugar", Value: "alugar"},
	}
	idx, ok := ResolveBranch("Quero ALUGAR um apê", branches)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestResolveBranch_NoMatch(t *testing.T) {
	branches := []domain.ConditionBranch{{ID: "b1", Keywords: []string{"sim"}}}
	idx, ok := ResolveBranch("talvez", branches)
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	_, ok = ResolveBranch("qualquer", nil)
	assert.False(t, ok)
}

func TestResolveBranch_BlankKeywordsNeverMatch(t *testing.T) {
	branches := []domain.ConditionBranch{
		{ID: "empty", Keywords: []string{"", "  "}},
		{ID: "b2", Value: "ok"},
	}
	idx, ok := ResolveBranch("ok", branches)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}
