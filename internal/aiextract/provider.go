package aiextract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"stmtproc/internal/config"
)

// Provider is one inference backend capable of turning a statement PDF into
// the model's raw text response. Providers that cannot accept document
// uploads report it via SupportsDocuments so callers can fail before any
// network traffic.
type Provider interface {
	Name() string
	SupportsDocuments() bool
	Call(ctx context.Context, pdf []byte) (string, error)
}

// NewProvider builds a provider from its configuration. The provider set is
// closed; unknown names are a configuration error. The resolved API key is
// held in memory only and must never appear in logs.
func NewProvider(name string, cfg *config.AIProvider, log zerolog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ai provider %q is not configured", name)
	}
	switch strings.ToLower(name) {
	case "anthropic":
		key := cfg.ResolveAPIKey()
		if key == "" {
			return nil, fmt.Errorf("anthropic: environment variable %q is empty or unset", cfg.APIKeyEnv)
		}
		return newAnthropicProvider(cfg.Model, cfg.BaseURL, key, log), nil
	case "gemini":
		key := cfg.ResolveAPIKey()
		if key == "" {
			return nil, fmt.Errorf("gemini: environment variable %q is empty or unset", cfg.APIKeyEnv)
		}
		return newGeminiProvider(cfg.Model, key, log), nil
	case "llamacpp":
		return &llamaCppProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", name)
	}
}

// llamaCppProvider exists so a configured llama.cpp endpoint fails with a
// clear message: the server has no document-upload endpoint, so statement
// PDFs cannot be sent to it.
type llamaCppProvider struct{}

func (p *llamaCppProvider) Name() string            { return "llamacpp" }
func (p *llamaCppProvider) SupportsDocuments() bool { return false }

func (p *llamaCppProvider) Call(ctx context.Context, pdf []byte) (string, error) {
	return "", fmt.Errorf("llamacpp provider does not support document upload")
}
