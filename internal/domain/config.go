package domain

// Config is the root configuration structure persisted as YAML under
// ~/.deepchat/config.yaml.
type Config struct {
	ConfigFormatVersion string          `yaml:"config_format_version"`
	Preferences         Preferences     `yaml:"preferences"`
	History             HistorySettings `yaml:"history"`
	Bootstrap           BootstrapPolicy `yaml:"bootstrap"`
	Models              []ModelEndpoint `yaml:"models"`
}

// Preferences holds session-level defaults.
type Preferences struct {
	DefaultModel   string `yaml:"default_model"`
	RenderMarkdown bool   `yaml:"render_markdown"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HistorySettings configures the durable exchange log.
type HistorySettings struct {
	DatabasePath string `yaml:"database_path"`
}

// BootstrapPolicy configures local model acquisition retries.
type BootstrapPolicy struct {
	MaxAttempts    int `yaml:"max_attempts"`
	BackoffSeconds int `yaml:"backoff_seconds"`
}

// ModelEndpoint binds a descriptor id to its wire configuration.
type ModelEndpoint struct {
	ID         string       `yaml:"id"`
	Kind       ProviderKind `yaml:"kind"`
	Endpoint   string       `yaml:"endpoint"`
	AuthEnvVar string       `yaml:"auth_env_var"`
	WireModel  string       `yaml:"wire_model"`
	MaxTokens  int          `yaml:"max_tokens,omitempty"`
}

// EndpointFor returns the wire configuration for a descriptor id.
func (c Config) EndpointFor(id string) (ModelEndpoint, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelEndpoint{}, false
}
