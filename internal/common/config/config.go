package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration. Values here are handed
// into constructors explicitly; no engine package reads tokens or endpoints
// from the environment on its own.
type Config struct {
	Addons  AddonsConfig  `yaml:"addons"`
	GitHub  GitHubConfig  `yaml:"github"`
	Publish PublishConfig `yaml:"publish,omitempty"`
}

// AddonsConfig holds the reconciliation input paths.
type AddonsConfig struct {
	// Definitions is the path to the addon-definitions TOML file
	Definitions string `yaml:"definitions"`
	// BuildFile is the path to the build definition owning the generated block
	BuildFile string `yaml:"build_file"`
	// Anchor is the line a fresh block is inserted after when the build
	// file carries no markers yet
	Anchor string `yaml:"anchor,omitempty"`
}

// GitHubConfig holds GitHub API settings for release resolution.
type GitHubConfig struct {
	// APIBase overrides the API endpoint (empty for the public API)
	APIBase string `yaml:"api_base,omitempty"`
	// Token is a personal access token for higher rate limits
	Token string `yaml:"token,omitempty"`
}

// PublishConfig holds settings for the external change-delivery collaborator.
type PublishConfig struct {
	// Repository is the canonical repository the change is proposed against
	Repository string `yaml:"repository,omitempty"`
	// BaseBranch is the branch the change targets
	BaseBranch string `yaml:"base_branch,omitempty"`
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/addonsync/config.yaml (XDG standard - priority)
// 2. ~/.addonsync/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "addonsync", "config.yaml"),
		filepath.Join(home, ".addonsync", "config.yaml"),
	}, nil
}

// FindConfigPath returns the first existing config file path, or the default
// (XDG) path if no config file exists yet.
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// Load reads configuration from the first available config file.
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path. A missing file
// yields an empty config rather than an error: every setting has a flag or a
// default, so the config file is optional.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes configuration to the default config file.
func (c *Config) Save() error {
	paths, err := ConfigPaths()
	if err != nil {
		return err
	}
	return c.SaveTo(paths[0])
}

// SaveTo writes configuration to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
