package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/imovia/fluxo/pkg/domain"
	"github.com/imovia/fluxo/pkg/dsl"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()
	count := 1000

	b := dsl.New()
	b.Add("start").Start().Go("end")
	b.Add("end").End("")
	def := b.MustBuild()

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("session-%d", i)
		_, _ = mgr.Create(ctx, id, def, domain.RunConfig{})
		_ = mgr.Delete(ctx, id)
	}

	mgr.mu.Lock()
	lockCount := len(mgr.locks)
	mgr.mu.Unlock()

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
