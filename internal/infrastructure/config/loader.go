// Package config loads YAML configuration in the file-first style: the
// embedded default is written out on first run and read back thereafter.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/deepchat/assets"
	"github.com/doeshing/deepchat/internal/domain"
	"github.com/doeshing/deepchat/internal/ports"
)

// FileLoader loads configuration from ~/.deepchat/config.yaml (overridable
// via DEEPCHAT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, 0o600); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("DEEPCHAT_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".deepchat", "config.yaml")
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.Preferences.DefaultModel == "" {
		cfg.Preferences.DefaultModel = domain.ModelDeepseekChat
	}
	if cfg.Preferences.TimeoutSeconds == 0 {
		cfg.Preferences.TimeoutSeconds = 30
	}
	if cfg.History.DatabasePath == "" {
		cfg.History.DatabasePath = filepath.Join(userHomeDir(), ".deepchat", "history", "history.db")
	}
	if cfg.Bootstrap.MaxAttempts == 0 {
		cfg.Bootstrap.MaxAttempts = 3
	}
	if cfg.Bootstrap.BackoffSeconds == 0 {
		cfg.Bootstrap.BackoffSeconds = 30
	}
	for i := range cfg.Models {
		m := &cfg.Models[i]
		switch m.Kind {
		case domain.ProviderKindOllama:
			if host := os.Getenv("OLLAMA_HOST"); host != "" {
				m.Endpoint = host
			}
		case domain.ProviderKindGumtree:
			if url := os.Getenv("GUMTREE_API_URL"); url != "" {
				m.Endpoint = url
			}
		}
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
