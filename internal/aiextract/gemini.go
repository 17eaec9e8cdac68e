package aiextract

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// geminiProvider sends the PDF to the Gemini API as inline blob data.
type geminiProvider struct {
	model  string
	apiKey string
	log    zerolog.Logger
}

func newGeminiProvider(model, apiKey string, log zerolog.Logger) *geminiProvider {
	return &geminiProvider{
		model:  model,
		apiKey: apiKey,
		log:    log.With().Str("provider", "gemini").Logger(),
	}
}

func (p *geminiProvider) Name() string            { return "gemini" }
func (p *geminiProvider) SupportsDocuments() bool { return true }

func (p *geminiProvider) Call(ctx context.Context, pdf []byte) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      p.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: systemPrompt + "\n\n" + userPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdf,
					},
				},
			},
		},
	}

	p.log.Debug().Str("model", p.model).Int("pdf_bytes", len(pdf)).Msg("sending extraction request")

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response from model")
	}
	return text, nil
}
