package image

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

	"stylizer/internal/infra"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// DalleOptions configures the URL-returning OpenAI image client.
type DalleOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// DalleClient calls the OpenAI image-generation endpoint and returns the
// hosted URL of the result.
//
// This variant submits the prompt only. The uploaded photo is not part of
// its request: the revision it reproduces called a text-to-image endpoint
// from an image-to-image flow, and that asymmetry is kept rather than
// silently changed.
type DalleClient struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	httpClient *http.Client
	logger     *infra.Logger
}

type dalleRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type dalleImageData struct {
	URL     string `json:"url"`
	B64JSON string `json:"b64_json"`
}

type dalleResponse struct {
	Created int64            `json:"created"`
	Data    []dalleImageData `json:"data"`
	Error   *openAIError     `json:"error"`
}

type openAIError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewDalleClient constructs a client with sane defaults and injected
// dependencies.
func NewDalleClient(opts DalleOptions) (*DalleClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("dalle: api key is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "dall-e-2"
	}
	size := strings.TrimSpace(opts.Size)
	if size == "" {
		size = "512x512"
	}
	return &DalleClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		size:       size,
		httpClient: httpClient,
		logger:     discardIfNil(opts.Logger),
	}, nil
}

// Transform fulfils the Transformer interface.
func (c *DalleClient) Transform(ctx context.Context, req TransformRequest) (*Result, error) {
	promptText := strings.TrimSpace(req.Prompt)
	if promptText == "" {
		return nil, errors.New("dalle: prompt is required")
	}

	payload := dalleRequest{Model: c.model, Prompt: promptText, N: 1, Size: c.size}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dalle: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dalle: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Provider: "dalle", Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dalle: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		var decoded dalleResponse
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil && decoded.Error.Message != "" {
			detail = decoded.Error.Message
		}
		return nil, &BackendError{Provider: "dalle", StatusCode: resp.StatusCode, Body: detail}
	}

	var decoded dalleResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("dalle: decode response: %w", err)
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].URL) == "" {
		return nil, errors.New("dalle: empty image url in response")
	}

	url := strings.TrimSpace(decoded.Data[0].URL)
	c.logger.Debug().Str("model", c.model).Str("url", url).Msg("dalle: generated image")
	return &Result{Kind: ResultURL, URL: url}, nil
}

var _ Transformer = (*DalleClient)(nil)
