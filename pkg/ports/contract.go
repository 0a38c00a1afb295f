package ports

import (
	"context"
	"testing"
	"time"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTranscript(id string) *domain.Transcript {
	state := domain.NewRunState()
	state.Status = domain.StatusCompleted
	state.Variables["nome"] = "Maria"
	state.Variables["count"] = 42
	state.Messages = append(state.Messages, domain.Message{ID: "m1", Type: domain.MessageBot, Content: "Olá Maria"})
	state.VisitedNodes.Add("start")
	state.VisitedNodes.Add("end")
	return &domain.Transcript{
		ConversationID: id,
		Flow:           "lead",
		State:          *state,
		ArchivedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

// RunTranscriptStoreContract runs a suite of tests to verify that a TranscriptStore
// implementation adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	conversationID := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		tr := sampleTranscript(conversationID)
		require.NoError(t, store.Save(ctx, tr), "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, conversationID, loaded.ConversationID)
		assert.Equal(t, domain.StatusCompleted, loaded.State.Status)
		assert.Equal(t, "Maria", loaded.State.Variables["nome"])
		// JSON persistence may turn ints into float64; only check presence.
		assert.NotNil(t, loaded.State.Variables["count"])
		assert.Equal(t, []string{"start", "end"}, loaded.State.VisitedNodes.IDs())
		require.Len(t, loaded.State.Messages, 1)
		assert.True(t, tr.ArchivedAt.Equal(loaded.ArchivedAt))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleTranscript(conversationID)))
		require.NoError(t, store.Delete(ctx, conversationID), "Delete should not return error")

		_, err := store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		_ = store.Save(ctx, sampleTranscript(id1))
		_ = store.Save(ctx, sampleTranscript(id2))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
