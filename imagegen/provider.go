// provider.go implements the Provider abstraction and its OpenAI-backed
// implementation.
//
// This molecule composes:
//   - go-openai client: plain text-to-image generation
//   - edits.go: multi-reference edit calls (hand-built multipart)
package imagegen

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"paintflow/core"
)

// ImageResult is the outcome of a provider call. Exactly one of B64JSON
// or URL is expected to be set; the renderer normalizes both to bytes.
type ImageResult struct {
	// B64JSON is the base64-encoded image payload, if returned inline
	B64JSON string

	// URL is a temporary hosted URL for the image, if returned by reference
	URL string
}

// Provider is the interface for image generation backends.
//
// Generate creates an image from a prompt alone. Edit creates an image
// from a prompt plus reference image files; every supplied file is part
// of the call, there is no partial-reference mode.
type Provider interface {
	Generate(ctx context.Context, prompt string) (*ImageResult, error)
	Edit(ctx context.Context, prompt string, imagePaths []string) (*ImageResult, error)
}

// OpenAIProvider implements Provider against the OpenAI images API.
//
// Thread safety: safe for concurrent use. The render pool calls Generate
// and Edit from several workers at once.
type OpenAIProvider struct {
	client     *openai.Client
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	size       string
	quality    string
}

// NewOpenAIProvider creates an image provider from the service configuration.
func NewOpenAIProvider(cfg *core.Config) (*OpenAIProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("imagegen: config cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("imagegen: OpenAI API key is required for image generation")
	}

	baseURL := core.GetEnvOrDefault("OPENAI_URL", "https://api.openai.com/v1")

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.BaseURL = baseURL
	httpClient := core.GetHTTPClient(cfg.AITimeout)
	clientConfig.HTTPClient = httpClient

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
		apiKey:     cfg.OpenAIAPIKey,
		baseURL:    baseURL,
		model:      cfg.ImageModel,
		size:       cfg.ImageSize,
		quality:    cfg.ImageQuality,
	}, nil
}

// Generate creates an image from the prompt using the generations endpoint.
// Used when a title has no reference images.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (*ImageResult, error) {
	if prompt == "" {
		return nil, fmt.Errorf("imagegen: prompt cannot be empty")
	}

	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:  prompt,
		Model:   p.model,
		N:       1,
		Size:    p.size,
		Quality: p.quality,
	})
	if err != nil {
		return nil, fmt.Errorf("imagegen: image generation failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("imagegen: no image data in generation response")
	}
	result := &ImageResult{
		B64JSON: resp.Data[0].B64JSON,
		URL:     resp.Data[0].URL,
	}
	if result.B64JSON == "" && result.URL == "" {
		return nil, fmt.Errorf("imagegen: generation response contained neither payload nor URL")
	}
	return result, nil
}
