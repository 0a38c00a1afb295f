package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPConfig holds the live client configuration.
type HTTPConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWait    time.Duration
	VistaBaseURL string
	VistaAPIKey  string
}

// HTTP implements the live effects over resty.
type HTTP struct {
	cfg    HTTPConfig
	client *resty.Client
}

// NewHTTP creates the live client.
func NewHTTP(cfg HTTPConfig) *HTTP {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetHeader("Accept", "application/json")
	return &HTTP{cfg: cfg, client: client}
}

// Register binds the live handlers into r.
func (h *HTTP) Register(r *Registry) {
	r.Register(EffectUpdateVista, h.UpdateVista)
	r.Register(EffectIntegration, h.Integration)
}

// NewRealGateway returns a Registry populated with the live handlers.
func NewRealGateway(cfg HTTPConfig) *Registry {
	r := NewRegistry()
	NewHTTP(cfg).Register(r)
	return r
}

// UpdateVista sends the "fields" of payload to the Vista CRM contact endpoint.
func (h *HTTP) UpdateVista(ctx context.Context, payload map[string]any) (any, error) {
	if h.cfg.VistaBaseURL == "" {
		return nil, errors.New("vista: base url not configured")
	}

	fields := map[string]any{}
	switch f := payload["fields"].(type) {
	case map[string]string:
		for k, v := range f {
			fields[k] = v
		}
	case map[string]any:
		fields = f
	}

	body := map[string]any{
		"cadastro": map[string]any{"fields": fields},
	}
	url := strings.TrimRight(h.cfg.VistaBaseURL, "/") + "/clientes/detalhes"

	return h.do(ctx, http.MethodPut, url, nil, map[string]string{"key": h.cfg.VistaAPIKey}, body)
}

// Integration performs the configured webhook call.
func (h *HTTP) Integration(ctx context.Context, payload map[string]any) (any, error) {
	url := stringField(payload, "url")
	if url == "" {
		return nil, errors.New("integration: url is required")
	}
	method := strings.ToUpper(stringField(payload, "method"))
	if method == "" {
		method = http.MethodPost
	}

	headers := map[string]string{}
	switch hs := payload["headers"].(type) {
	case map[string]string:
		headers = hs
	case map[string]any:
		for k, v := range hs {
			headers[k] = fmt.Sprint(v)
		}
	}

	var body any
	if b, ok := payload["body"]; ok && b != nil && method != http.MethodGet && method != http.MethodHead {
		body = b
	}

	return h.do(ctx, method, url, headers, nil, body)
}

func (h *HTTP) do(ctx context.Context, method, url string, headers, query map[string]string, body any) (any, error) {
	response := map[string]any{}
	errorResponse := map[string]any{}

	req := h.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParams(query).
		SetResult(&response).
		SetError(&errorResponse)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, url, err)
	}

	data := map[string]any{
		"status_code": resp.StatusCode(),
	}
	if resp.IsError() {
		data["body"] = errorResponse
		return data, fmt.Errorf("%s %s: unexpected status %s", method, url, resp.Status())
	}
	data["body"] = response
	return data, nil
}
