// Package falai is a minimal client for the fal.ai synchronous inference API,
// scoped to the single text-to-image call the renderer needs.
package falai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"colorbook/internal/domain"
)

const defaultModel = "fal-ai/flux/dev"

// Options controls how the fal.ai client is configured.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client calls the fal.ai run endpoint for one prompt at a time.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	key        string
}

// NewClient constructs a fal.ai client with sane defaults.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://fal.run"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		model:      model,
		key:        strings.TrimSpace(opts.APIKey),
	}
}

type runRequest struct {
	Prompt            string  `json:"prompt"`
	ImageSize         string  `json:"image_size"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumImages         int     `json:"num_images"`
	OutputFormat      string  `json:"output_format"`
}

type runResponse struct {
	Images []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	Detail string `json:"detail"`
}

// Generate submits one prompt and returns the URL of the generated image.
// Transport failures and retryable statuses are wrapped in
// domain.ErrProviderFailure so callers can distinguish transient from
// terminal errors.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", errors.New("falai: client not configured")
	}
	if c.key == "" {
		return "", errors.New("falai: API key is missing")
	}

	payload := runRequest{
		Prompt:            prompt,
		ImageSize:         "portrait_4_3",
		NumInferenceSteps: 28,
		GuidanceScale:     3.5,
		NumImages:         1,
		OutputFormat:      "png",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: falai request: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(data))
		if retryableStatus(resp.StatusCode) {
			return "", fmt.Errorf("%w: falai status %d: %s", domain.ErrProviderFailure, resp.StatusCode, detail)
		}
		return "", fmt.Errorf("falai status %d: %s", resp.StatusCode, detail)
	}

	var parsed runResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("falai: decode response: %w", err)
	}
	if len(parsed.Images) == 0 || parsed.Images[0].URL == "" {
		return "", errors.New("falai: response contains no image")
	}
	return parsed.Images[0].URL, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= http.StatusInternalServerError
}
