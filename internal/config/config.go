package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse methods an institution can be configured with.
const (
	MethodText = "text"
	MethodAI   = "ai"
)

// Default Paperless tag IDs; overridable in the config file.
const (
	DefaultAccountsTagID  = 14
	DefaultProcessedTagID = 15
)

// Config is the top-level statement-processor configuration.
type Config struct {
	DefaultCategory string          `yaml:"default_category"`
	Categories      []CategoryRule  `yaml:"categories,omitempty"`
	Parsers         ParsersConfig   `yaml:"parsers,omitempty"`
	AIProviders     ProvidersConfig `yaml:"ai_providers,omitempty"`
	Paperless       PaperlessConfig `yaml:"paperless,omitempty"`
}

// CategoryRule maps a regex pattern to a category label. Order in the file is
// evaluation order.
type CategoryRule struct {
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
}

// ParsersConfig selects the extraction method per institution.
type ParsersConfig struct {
	CBA InstitutionParser `yaml:"cba,omitempty"`
	ANZ InstitutionParser `yaml:"anz,omitempty"`
}

// InstitutionParser configures how one institution's statements are parsed.
type InstitutionParser struct {
	Method   string `yaml:"method,omitempty"`   // "text" or "ai"
	Provider string `yaml:"provider,omitempty"` // AI provider name when method is "ai"
}

// UseAI reports whether AI-based extraction is configured.
func (p InstitutionParser) UseAI() bool {
	return p.Method == MethodAI
}

// ProvidersConfig holds the known AI provider configurations.
type ProvidersConfig struct {
	Anthropic *AIProvider `yaml:"anthropic,omitempty"`
	Gemini    *AIProvider `yaml:"gemini,omitempty"`
	LlamaCpp  *AIProvider `yaml:"llamacpp,omitempty"`
}

// AIProvider declares where an inference provider lives and which environment
// variable carries its API key. The key itself never appears in the file.
type AIProvider struct {
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
}

// PaperlessConfig carries repository tag IDs used for filtering and marking.
type PaperlessConfig struct {
	AccountsTagID  int `yaml:"accounts_tag_id,omitempty"`
	ProcessedTagID int `yaml:"processed_tag_id,omitempty"`
}

// Default returns the configuration used when no file is given: everything
// lands in the default category and all institutions use text parsing.
func Default() *Config {
	return &Config{
		DefaultCategory: "Uncategorised",
		Paperless: PaperlessConfig{
			AccountsTagID:  DefaultAccountsTagID,
			ProcessedTagID: DefaultProcessedTagID,
		},
	}
}

// Load reads the configuration file at path. An empty path yields Default().
// An unreadable or malformed file is a startup error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = "Uncategorised"
	}
	if cfg.Paperless.AccountsTagID == 0 {
		cfg.Paperless.AccountsTagID = DefaultAccountsTagID
	}
	if cfg.Paperless.ProcessedTagID == 0 {
		cfg.Paperless.ProcessedTagID = DefaultProcessedTagID
	}

	for name, p := range map[string]InstitutionParser{"cba": cfg.Parsers.CBA, "anz": cfg.Parsers.ANZ} {
		if p.Method != "" && p.Method != MethodText && p.Method != MethodAI {
			return nil, fmt.Errorf("parsing config: parser %q has unknown method %q", name, p.Method)
		}
		if p.UseAI() && p.Provider == "" {
			return nil, fmt.Errorf("parsing config: parser %q uses AI but names no provider", name)
		}
	}

	return cfg, nil
}

// Provider returns the configuration block for the named provider, or nil if
// it is not declared.
func (c *Config) Provider(name string) *AIProvider {
	switch name {
	case "anthropic":
		return c.AIProviders.Anthropic
	case "gemini":
		return c.AIProviders.Gemini
	case "llamacpp":
		return c.AIProviders.LlamaCpp
	default:
		return nil
	}
}

// ResolveAPIKey reads the provider's API key from the environment variable it
// names. Empty when unset or when no env var is configured.
func (p *AIProvider) ResolveAPIKey() string {
	if p == nil || p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}
