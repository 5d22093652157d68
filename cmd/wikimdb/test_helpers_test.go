package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"wikimdb/internal/config"
	"wikimdb/internal/testsupport"
)

// fakeUpstream serves the encyclopedia and OMDb endpoints the CLI reaches.
type fakeUpstream struct {
	links   map[string][]string
	pages   map[string]string
	ratings map[string]string
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch r.URL.Path {
	case "/w/api.php":
		page := q.Get("page")
		var payload map[string]any
		switch q.Get("prop") {
		case "externallinks":
			if links, ok := f.links[page]; ok {
				payload = map[string]any{"parse": map[string]any{"title": page, "externallinks": links}}
			}
		case "text":
			if html, ok := f.pages[page]; ok {
				payload = map[string]any{"parse": map[string]any{"title": page, "text": html}}
			}
		}
		if payload == nil {
			payload = map[string]any{"error": map[string]any{"code": "missingtitle", "info": "The page you specified doesn't exist."}}
		}
		_ = json.NewEncoder(w).Encode(payload)
	case "/omdb/":
		rating, ok := f.ratings[q.Get("i")]
		if !ok {
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"Response": "True", "imdbRating": rating})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, upstream http.Handler) *cliTestEnv {
	t.Helper()

	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithProvider(config.ProviderOMDb),
		testsupport.WithUpstream(server.URL))
	cfg.Logging.Level = "error"

	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	configPath := filepath.Join(base, "config.toml")
	testsupport.WriteConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
