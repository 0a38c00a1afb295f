package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/imovia/fluxo/internal/config"
	"github.com/imovia/fluxo/internal/logging"
	"github.com/imovia/fluxo/pkg/adapters/file"
	"github.com/imovia/fluxo/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetingFlow = `
name: saudacao
nodes:
  - id: start
    type: start
  - id: ask
    type: input
    config:
      prompt: Qual é o seu telefone?
      variableName: telefone
  - id: bye
    type: end
    config:
      message: "Anotado: {{telefone}}"
edges:
  - {id: e1, source: start, target: ask}
  - {id: e2, source: ask, target: bye}
`

func writeFlow(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "saudacao.yaml")
	require.NoError(t, os.WriteFile(path, []byte(greetingFlow), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Flows.Dir = t.TempDir()
	writeFlow(t, cfg.Flows.Dir)
	return cfg
}

func TestNewApp_StoreSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		app, err := NewApp(ctx, testConfig(t), logging.NewNop())
		require.NoError(t, err)
		defer app.Close()
		assert.NotNil(t, app.Manager)
		assert.NotNil(t, app.Store)
	})

	t.Run("file archive", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Archive.Dir = t.TempDir()
		app, err := NewApp(ctx, cfg, logging.NewNop())
		require.NoError(t, err)
		defer app.Close()

		run, err := app.Manager.Create(ctx, "c1", mustLoad(t, cfg), cfg.RunConfig())
		require.NoError(t, err)
		require.NoError(t, app.Manager.SendInput(ctx, run.ID(), "11999990000"))

		entries, err := os.ReadDir(cfg.Archive.Dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Redis.Addr = mr.Addr()
		app, err := NewApp(ctx, cfg, logging.NewNop())
		require.NoError(t, err)
		defer app.Close()

		run, err := app.Manager.Create(ctx, "c1", mustLoad(t, cfg), cfg.RunConfig())
		require.NoError(t, err)
		require.NoError(t, app.Manager.SendInput(ctx, run.ID(), "11999990000"))

		tr, err := app.Store.Load(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "***", tr.State.Variables["telefone"], "PII is masked before archiving")
		assert.True(t, mr.Exists("fluxo:transcript:c1"))
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Redis.Addr = "127.0.0.1:1"
		_, err := NewApp(ctx, cfg, logging.NewNop())
		assert.ErrorContains(t, err, "failed to connect to redis")
	})
}

func TestMiddlewares(t *testing.T) {
	mws, err := Middlewares(config.ArchiveConfig{})
	require.NoError(t, err)
	assert.Len(t, mws, 1)

	mws, err = Middlewares(config.ArchiveConfig{KeepPII: true})
	require.NoError(t, err)
	assert.Empty(t, mws)

	mws, err = Middlewares(config.ArchiveConfig{EncryptionKey: strings.Repeat("ab", 32)})
	require.NoError(t, err)
	assert.Len(t, mws, 2)

	_, err = Middlewares(config.ArchiveConfig{EncryptionKey: strings.Repeat("zz", 32)})
	assert.Error(t, err)
}

func TestResolveFlow(t *testing.T) {
	dir := t.TempDir()
	path := writeFlow(t, dir)
	loader := file.NewLoader(dir)

	def, name, err := ResolveFlow(loader, path)
	require.NoError(t, err)
	assert.Equal(t, "saudacao", name)
	assert.Len(t, def.Nodes, 3)

	_, name, err = ResolveFlow(loader, "saudacao")
	require.NoError(t, err)
	assert.Equal(t, "saudacao", name)

	_, _, err = ResolveFlow(loader, "missing")
	assert.Error(t, err)

	_, _, err = ResolveFlow(loader, "")
	assert.Error(t, err)
}

func TestRunSimulator_Headless(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	app, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunSimulator(ctx, app, RunOptions{
		Flow:     "saudacao",
		Headless: true,
		Input:    strings.NewReader("11999990000\n"),
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Qual é o seu telefone?")
	assert.Contains(t, out.String(), "Anotado: 11999990000")

	ids, err := app.Store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1, "finished simulator runs are archived")
}

func TestRunSimulator_InputEndsEarly(t *testing.T) {
	ctx := context.Background()
	app, err := NewApp(ctx, testConfig(t), logging.NewNop())
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunSimulator(ctx, app, RunOptions{
		Flow:     "saudacao",
		Headless: true,
		Input:    strings.NewReader(""),
		Output:   &out,
	})
	require.NoError(t, err)

	ids, err := app.Store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids, "unfinished runs are not archived")
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, HandleExecutionError(nil))
	assert.NoError(t, HandleExecutionError(context.Canceled))
	assert.NoError(t, HandleExecutionError(errInterrupted))
	assert.Error(t, HandleExecutionError(domain.ErrBusy))
}

func mustLoad(t *testing.T, cfg *config.Config) *domain.Definition {
	t.Helper()
	def, err := file.NewLoader(cfg.Flows.Dir).Load("saudacao")
	require.NoError(t, err)
	return def
}
