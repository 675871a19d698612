package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Addons.Definitions != "" || cfg.GitHub.Token != "" {
		t.Errorf("LoadFrom() = %+v, want zero config", cfg)
	}
}

func TestLoadFromParsesAllSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
addons:
  definitions: /etc/addonsync/addons.toml
  build_file: docker/Dockerfile
  anchor: "COPY policies /zap/policies"
github:
  api_base: https://github.example.com/api/v3
  token: secret
publish:
  repository: org/dast-build
  base_branch: main
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Addons.Definitions != "/etc/addonsync/addons.toml" {
		t.Errorf("Definitions = %q", cfg.Addons.Definitions)
	}
	if cfg.Addons.Anchor != "COPY policies /zap/policies" {
		t.Errorf("Anchor = %q", cfg.Addons.Anchor)
	}
	if cfg.GitHub.APIBase != "https://github.example.com/api/v3" {
		t.Errorf("APIBase = %q", cfg.GitHub.APIBase)
	}
	if cfg.GitHub.Token != "secret" {
		t.Errorf("Token = %q", cfg.GitHub.Token)
	}
	if cfg.Publish.Repository != "org/dast-build" || cfg.Publish.BaseBranch != "main" {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &Config{
		Addons: AddonsConfig{
			Definitions: "addons.toml",
			BuildFile:   "Dockerfile",
		},
		GitHub: GitHubConfig{Token: "tok"},
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Addons.Definitions != "addons.toml" || loaded.GitHub.Token != "tok" {
		t.Errorf("round trip = %+v", loaded)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("addons: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Fatal("LoadFrom() error = nil, want parse error")
	}
}

func TestConfigPathsOrder(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	paths, err := ConfigPaths()
	if err != nil {
		t.Fatalf("ConfigPaths() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("ConfigPaths() returned %d paths, want 2", len(paths))
	}
	if paths[0] != "/tmp/xdg/addonsync/config.yaml" {
		t.Errorf("paths[0] = %q", paths[0])
	}
	if filepath.Base(filepath.Dir(paths[1])) != ".addonsync" {
		t.Errorf("paths[1] = %q, want legacy ~/.addonsync path", paths[1])
	}
}
