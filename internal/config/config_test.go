package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	work := t.TempDir()
	oldwd, _ := os.Getwd()
	if err := os.Chdir(work); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	for _, v := range []string{
		"WEBCHAT_CONFIG_PATH", "WEBCHAT_BASE_URL", "WEBCHAT_MODEL",
		"WEBCHAT_API_KEY", "GOOGLE_API_KEY", "WEBCHAT_TIMEOUT_MS",
		"WEBCHAT_FETCH_TIMEOUT_SEC",
	} {
		t.Setenv(v, "")
	}
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "gemini-1.5-flash" {
		t.Errorf("model=%q", cfg.Provider.Model)
	}
	if cfg.Provider.TimeoutMS != 0 {
		t.Errorf("timeout_ms=%d, model calls default to no deadline", cfg.Provider.TimeoutMS)
	}
	if cfg.Fetch.TimeoutSec != 10 {
		t.Errorf("fetch timeout=%d, want 10", cfg.Fetch.TimeoutSec)
	}
	if !cfg.Render.Markdown {
		t.Error("markdown rendering should default on")
	}
}

func TestLoadJSONCAndPrecedence(t *testing.T) {
	isolate(t)

	home, _ := os.UserHomeDir()
	globalDir := filepath.Join(home, ".webchat")
	if err := os.MkdirAll(globalDir, 0o755); err != nil {
		t.Fatal(err)
	}
	globalCfg := `{
  // global
  "provider": {"model": "global-model"},
  "render": {"markdown": false}
}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalCfg), 0o644); err != nil {
		t.Fatal(err)
	}
	projectCfg := `{
  "provider": {"model": "project-model", "timeout_ms": 30000},
  "fetch": {"timeout_sec": 20}
}`
	if err := os.WriteFile("webchat.config.json", []byte(projectCfg), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "project-model" {
		t.Fatalf("model=%q", cfg.Provider.Model)
	}
	if cfg.Provider.TimeoutMS != 30000 {
		t.Fatalf("timeout_ms=%d", cfg.Provider.TimeoutMS)
	}
	if cfg.Fetch.TimeoutSec != 20 {
		t.Fatalf("fetch timeout=%d", cfg.Fetch.TimeoutSec)
	}
	if cfg.Render.Markdown {
		t.Fatal("global render.markdown=false should survive project merge")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("WEBCHAT_MODEL", "env-model")
	t.Setenv("GOOGLE_API_KEY", "AIzaGoogleKey")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.Model != "env-model" {
		t.Errorf("model=%q", cfg.Provider.Model)
	}
	if cfg.Provider.APIKey != "AIzaGoogleKey" {
		t.Errorf("api key=%q", cfg.Provider.APIKey)
	}
}

func TestWebchatKeyWinsOverGoogleKey(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("WEBCHAT_API_KEY", "webchat")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Provider.APIKey != "webchat" {
		t.Errorf("api key=%q, want WEBCHAT_API_KEY to win", cfg.Provider.APIKey)
	}
}

func TestInvalidEnvTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("WEBCHAT_TIMEOUT_MS", "soon")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric WEBCHAT_TIMEOUT_MS")
	}
}

func TestStripJSONComments(t *testing.T) {
	in := []byte(`{
  // line comment
  "a": "value // not a comment",
  /* block
     comment */
  "b": 2
}`)
	out := string(stripJSONComments(in))
	if want := `"value // not a comment"`; !strings.Contains(out, want) {
		t.Errorf("string content mangled: %s", out)
	}
	if strings.Contains(out, "line comment") || strings.Contains(out, "block") {
		t.Errorf("comments survived: %s", out)
	}
}
