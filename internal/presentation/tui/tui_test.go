package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("**Olá**")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "Olá") {
		t.Errorf("rendered output lost the text: %q", out)
	}
}

func TestSystemStyle(t *testing.T) {
	if got := SystemStyle()("Fluxo iniciado"); !strings.Contains(got, "Fluxo iniciado") {
		t.Errorf("styled line lost the text: %q", got)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if strings.Count(buf.String(), "\n") < 5 {
		t.Errorf("banner too short: %q", buf.String())
	}
}
