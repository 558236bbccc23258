// Package openai provides an image-generation provider backed by the
// OpenAI Images API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/ashfall-games/scenecaster/pkg/provider/imagegen"
)

// Provider implements imagegen.Provider using the OpenAI Images API.
type Provider struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the provider.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI image-generation Provider.
func New(apiKey string, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("openai: model must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Provider{client: client, model: model}, nil
}

// Generate implements imagegen.Provider.
func (p *Provider) Generate(ctx context.Context, req imagegen.Request) (*imagegen.Response, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("openai: prompt must not be empty")
	}

	params := oai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  oai.ImageModel(p.model),
	}
	if req.ImageSize != "" {
		params.Size = oai.ImageGenerateParamsSize(req.ImageSize)
	}
	n := req.NumImages
	if n <= 0 {
		n = 1
	}
	params.N = param.NewOpt(int64(n))

	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai: empty image data in response")
	}

	out := &imagegen.Response{Images: make([]imagegen.Image, 0, len(resp.Data))}
	for _, d := range resp.Data {
		if d.URL == "" {
			continue
		}
		out.Images = append(out.Images, imagegen.Image{URL: d.URL})
	}
	if len(out.Images) == 0 {
		return nil, fmt.Errorf("openai: no image URLs in response")
	}
	return out, nil
}
