package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_UpdateVistaIsDeterministic(t *testing.T) {
	m := NewMock()
	payload := map[string]any{
		"fields":        map[string]string{"Status": "Quente", "Bairro": "Centro"},
		"contact_phone": "48999999999",
	}

	first := m.Invoke(context.Background(), EffectUpdateVista, payload, ModeMock)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Invoke(context.Background(), EffectUpdateVista, payload, ModeMock))
	}

	require.True(t, first.Success)
	data := first.Data.(map[string]any)
	assert.Equal(t, true, data["mock"])
	assert.Equal(t, []string{"Bairro", "Status"}, data["updated_fields"])
	assert.Equal(t, "48999999999", data["contact_phone"])
}

func TestMock_IntegrationDefaultsToPost(t *testing.T) {
	res := NewMock().Invoke(context.Background(), EffectIntegration, map[string]any{"url": "https://example.test/hook"}, ModeMock)
	require.True(t, res.Success)
	data := res.Data.(map[string]any)
	assert.Equal(t, http.MethodPost, data["method"])
	assert.Equal(t, http.StatusOK, data["status"])
}

func TestRegistry_FoldsErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("boom", func(ctx context.Context, payload map[string]any) (any, error) {
		return nil, errors.New("crm offline")
	})
	r.Register("panic", func(ctx context.Context, payload map[string]any) (any, error) {
		panic("nil map")
	})

	res := r.Invoke(context.Background(), "boom", nil, ModeReal)
	assert.False(t, res.Success)
	assert.Equal(t, "crm offline", res.Error)

	res = r.Invoke(context.Background(), "panic", nil, ModeReal)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panicked")

	res = r.Invoke(context.Background(), "missing", nil, ModeReal)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not registered")
}

func TestDual_RoutesByMode(t *testing.T) {
	var realCalls int
	real := Func(func(ctx context.Context, effect EffectType, payload map[string]any, mode Mode) Result {
		realCalls++
		return Result{Success: true, Data: "real"}
	})
	d := NewDual(NewMock(), real)

	res := d.Invoke(context.Background(), EffectIntegration, nil, ModeMock)
	assert.True(t, res.Success)
	assert.Equal(t, 0, realCalls)

	res = d.Invoke(context.Background(), EffectIntegration, nil, ModeReal)
	assert.Equal(t, "real", res.Data)
	assert.Equal(t, 1, realCalls)

	res = NewDual(NewMock(), nil).Invoke(context.Background(), EffectIntegration, nil, ModeReal)
	assert.False(t, res.Success)
	assert.Equal(t, ErrRealNotConfigured.Error(), res.Error)
}

func TestHTTP_UpdateVista(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/clientes/detalhes", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	gw := NewRealGateway(HTTPConfig{Timeout: time.Second, VistaBaseURL: srv.URL + "/", VistaAPIKey: "secret"})
	res := gw.Invoke(context.Background(), EffectUpdateVista, map[string]any{
		"fields": map[string]string{"Status": "Quente"},
	}, ModeReal)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, map[string]any{"cadastro": map[string]any{"fields": map[string]any{"Status": "Quente"}}}, gotBody)
	data := res.Data.(map[string]any)
	assert.Equal(t, http.StatusOK, data["status_code"])
	assert.Equal(t, map[string]any{"status": "success"}, data["body"])
}

func TestHTTP_IntegrationFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc", r.Header.Get("X-Token"))
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := NewRealGateway(HTTPConfig{Timeout: time.Second})
	res := gw.Invoke(context.Background(), EffectIntegration, map[string]any{
		"url":     srv.URL,
		"method":  "post",
		"headers": map[string]any{"X-Token": "abc"},
		"body":    map[string]any{"lead": "Maria"},
	}, ModeReal)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "502")
}

func TestHTTP_MissingConfiguration(t *testing.T) {
	gw := NewRealGateway(HTTPConfig{})
	assert.False(t, gw.Invoke(context.Background(), EffectUpdateVista, nil, ModeReal).Success)
	assert.False(t, gw.Invoke(context.Background(), EffectIntegration, map[string]any{}, ModeReal).Success)
}
