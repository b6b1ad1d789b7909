// Package genai connects hueforge to Google Gen AI: text embeddings for the
// semantic sub-score and prompt-to-image generation for seeding palettes.
package genai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/genai"
)

const (
	// DefaultEmbeddingModel embeds palette descriptions and prompts.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// DefaultImageModel generates seed images.
	DefaultImageModel = "gemini-2.5-flash-image"

	// BackendGeminiAPI and BackendVertexAI select the service.
	BackendGeminiAPI = "gemini-api"
	BackendVertexAI  = "vertex-ai"

	// imageEnhancement steers generated images towards a few large, clean
	// colour regions that k-means can pick out.
	imageEnhancement = ", bold flat colour fields, clear separation between colours, no text, no borders"

	apiKeyEnv = "GOOGLE_API_KEY"
)

// ErrNoImage is returned when the model response carries no image bytes.
var ErrNoImage = errors.New("no inline image data found in response")

// Config selects models and backend.
type Config struct {
	Backend        string
	APIKey         string
	EmbeddingModel string
	ImageModel     string
	AspectRatio    string
	// CacheDir holds generated images keyed by prompt and model. Empty
	// disables caching.
	CacheDir string
	// NoExtendedPrompt sends the prompt to the image model unchanged.
	NoExtendedPrompt bool
	Logger           hclog.Logger
}

// DefaultCacheDir returns ~/.cache/hueforge/genai, or a relative path when
// the home directory is unknown.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "hueforge", "genai")
	}
	return filepath.Join(home, ".cache", "hueforge", "genai")
}

func (c Config) withDefaults() Config {
	if c.Backend == "" {
		c.Backend = BackendGeminiAPI
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(apiKeyEnv)
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.ImageModel == "" {
		c.ImageModel = DefaultImageModel
	}
	if c.AspectRatio == "" {
		c.AspectRatio = "1:1"
	}
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	return c
}

// Client wraps a Gen AI client with hueforge's model choices.
type Client struct {
	cfg    Config
	client *genai.Client
	logger hclog.Logger
}

// NewClient configures a Gen AI client. The Gemini API backend needs an API
// key, taken from GOOGLE_API_KEY when Config.APIKey is empty.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	clientConfig := &genai.ClientConfig{}
	switch cfg.Backend {
	case BackendVertexAI:
		clientConfig.Backend = genai.BackendVertexAI
	case BackendGeminiAPI:
		clientConfig.Backend = genai.BackendGeminiAPI
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%s environment variable is required\nGet one at: https://aistudio.google.com/api-keys", apiKeyEnv)
		}
		clientConfig.APIKey = cfg.APIKey
	default:
		return nil, fmt.Errorf("unknown Gen AI backend %q (want %s or %s)", cfg.Backend, BackendGeminiAPI, BackendVertexAI)
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gen AI client: %w", err)
	}

	logger := cfg.Logger.Named("genai")
	logger.Debug("client ready", "backend", cfg.Backend, "embedding_model", cfg.EmbeddingModel, "image_model", cfg.ImageModel)
	return &Client{cfg: cfg, client: client, logger: logger}, nil
}

// EmbedText returns the embedding of a single text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	resp, err := c.client.Models.EmbedContent(ctx, c.cfg.EmbeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}

	values := resp.Embeddings[0].Values
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

// EmbedPrompt embeds a user prompt for use with reward.WithPromptEmbedding.
func (c *Client) EmbedPrompt(ctx context.Context, prompt string) ([]float64, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	return c.EmbedText(ctx, prompt)
}

// Embedder returns a palette embedder backed by this client. Calls made
// through it use ctx.
func (c *Client) Embedder(ctx context.Context) *Embedder {
	return NewEmbedder(ctx, c.EmbedText, c.logger)
}

// ImagePath returns the cache location for an image generated from prompt by
// model.
func ImagePath(cacheDir, prompt, model string) string {
	hash := sha256.Sum256([]byte(prompt + model))
	return filepath.Join(cacheDir, fmt.Sprintf("genai-%s.png", hex.EncodeToString(hash[:])[:16]))
}

func (c *Client) enhancePrompt(prompt string) string {
	if c.cfg.NoExtendedPrompt {
		return prompt
	}
	return prompt + imageEnhancement
}

// GenerateImage creates an image from prompt and returns the path it was
// written to. A cached image is reused unless overwrite is set.
func (c *Client) GenerateImage(ctx context.Context, prompt string, overwrite bool) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}

	path, err := c.imagePath(prompt)
	if err != nil {
		return "", err
	}
	if !overwrite && c.cfg.CacheDir != "" && fileExists(path) {
		c.logger.Debug("using cached image", "path", path)
		return path, nil
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"Image"},
	}
	promptText := fmt.Sprintf("Generate an image with aspect ratio %s: %s", c.cfg.AspectRatio, c.enhancePrompt(prompt))

	c.logger.Debug("generating image", "model", c.cfg.ImageModel, "prompt", promptText)
	response, err := c.client.Models.GenerateContent(ctx, c.cfg.ImageModel, genai.Text(promptText), genConfig)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}

	data, err := inlineImage(response)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write image to file: %w", err)
	}
	c.logger.Debug("image generated", "path", path, "bytes", len(data))
	return path, nil
}

func (c *Client) imagePath(prompt string) (string, error) {
	if c.cfg.CacheDir == "" {
		tmpFile, err := os.CreateTemp("", "hueforge-genai-*.png")
		if err != nil {
			return "", fmt.Errorf("failed to create temp file: %w", err)
		}
		tmpFile.Close()
		return tmpFile.Name(), nil
	}

	if err := os.MkdirAll(c.cfg.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return ImagePath(c.cfg.CacheDir, prompt, c.cfg.ImageModel), nil
}

// inlineImage pulls the first inline image out of a content response.
func inlineImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoImage
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, ErrNoImage
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
