package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawl.APIBaseURL != "https://doaj.org/api/v2" {
		t.Fatalf("unexpected api base url %q", cfg.Crawl.APIBaseURL)
	}
	if len(cfg.Crawl.Queries) != 9 {
		t.Fatalf("expected 9 default queries, got %d", len(cfg.Crawl.Queries))
	}
	if len(cfg.Filter.Keywords) != 9 {
		t.Fatalf("expected 9 default keywords, got %d", len(cfg.Filter.Keywords))
	}
	if cfg.Filter.Language != "id" {
		t.Fatalf("expected default language id, got %q", cfg.Filter.Language)
	}
	if cfg.Download.MaxPDFs != 450 {
		t.Fatalf("expected default cap 450, got %d", cfg.Download.MaxPDFs)
	}
	if !cfg.Download.FilenameByTitle {
		t.Fatal("expected filename_by_title on by default")
	}
	if cfg.Index.Path != "jurnal_kesehatan_indonesia.csv" {
		t.Fatalf("unexpected index path %q", cfg.Index.Path)
	}
	if got := cfg.Timeout(); got != 25*time.Second {
		t.Fatalf("expected 25s timeout, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: false
ops:
  enabled: true
  port: 9191
crawl:
  api_base_url: http://localhost:8080/api/v2
  queries: ["gizi", "klinis"]
  page_size: 25
http:
  user_agent: custom-agent
  timeout_seconds: 10
  per_domain_parallelism: 2
  delay_ms: 250
filter:
  keywords: ["gizi"]
  language: id
  detector_languages: ["id", "en", "ms"]
download:
  max_pdfs: 5
  store_root: /tmp/pdf-store
  filename_by_title: false
index:
  path: /tmp/index.csv
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Ops.Port != 9191 {
		t.Fatalf("expected port 9191, got %d", cfg.Ops.Port)
	}
	if cfg.Crawl.APIBaseURL != "http://localhost:8080/api/v2" || cfg.Crawl.PageSize != 25 {
		t.Fatalf("expected crawl overrides to apply: %+v", cfg.Crawl)
	}
	if len(cfg.Crawl.Queries) != 2 || cfg.Crawl.Queries[0] != "gizi" {
		t.Fatalf("expected queries override, got %v", cfg.Crawl.Queries)
	}
	if len(cfg.Filter.DetectorLanguages) != 3 {
		t.Fatalf("expected detector language override, got %v", cfg.Filter.DetectorLanguages)
	}
	if cfg.Download.MaxPDFs != 5 || cfg.Download.FilenameByTitle {
		t.Fatalf("expected download overrides to apply: %+v", cfg.Download)
	}
	if cfg.Logging.Development {
		t.Fatal("expected production logging")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing api base url", func(c *Config) { c.Crawl.APIBaseURL = "" }},
		{"empty queries", func(c *Config) { c.Crawl.Queries = nil }},
		{"invalid page size", func(c *Config) { c.Crawl.PageSize = 0 }},
		{"invalid timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"empty keywords", func(c *Config) { c.Filter.Keywords = nil }},
		{"missing language", func(c *Config) { c.Filter.Language = "" }},
		{"invalid cap", func(c *Config) { c.Download.MaxPDFs = 0 }},
		{"missing store root", func(c *Config) { c.Download.StoreRoot = "" }},
		{"missing index path", func(c *Config) { c.Index.Path = "" }},
		{"invalid ops port", func(c *Config) { c.Ops.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
