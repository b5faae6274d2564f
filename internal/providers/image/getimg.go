package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stylizer/internal/infra"
)

const defaultGetimgURL = "https://api.getimg.ai/v1/stable-diffusion-xl/image-to-image"

// GetimgOptions configures the getimg.ai SDXL image-to-image client.
type GetimgOptions struct {
	APIKey         string
	EndpointURL    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// GetimgClient submits the canonical image as standard base64 inside a JSON
// payload and expects a JSON object with a base64 image field back. Some
// responses arrive with a data-URI prefix, which is stripped before the
// result leaves the adapter.
type GetimgClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	logger     *infra.Logger
}

type getimgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Image          string  `json:"image"`
	Strength       float64 `json:"strength"`
	Steps          int     `json:"steps"`
	Guidance       float64 `json:"guidance"`
	OutputFormat   string  `json:"output_format"`
}

type getimgResponse struct {
	Image string  `json:"image"`
	Seed  int64   `json:"seed"`
	Cost  float64 `json:"cost"`
}

type getimgErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGetimgClient constructs a client with sane defaults and injected
// dependencies.
func NewGetimgClient(opts GetimgOptions) (*GetimgClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("getimg: api key is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	endpoint := strings.TrimSpace(opts.EndpointURL)
	if endpoint == "" {
		endpoint = defaultGetimgURL
	}
	return &GetimgClient{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     discardIfNil(opts.Logger),
	}, nil
}

// Transform fulfils the Transformer interface.
func (c *GetimgClient) Transform(ctx context.Context, req TransformRequest) (*Result, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("getimg: source image is required")
	}
	payload := getimgRequest{
		Prompt:         strings.TrimSpace(req.Prompt),
		NegativePrompt: strings.TrimSpace(req.NegativePrompt),
		Image:          base64.StdEncoding.EncodeToString(req.Image),
		Strength:       req.Knobs.Strength,
		Steps:          req.Knobs.Steps,
		Guidance:       req.Knobs.Guidance,
		OutputFormat:   "png",
	}
	if payload.Prompt == "" {
		return nil, errors.New("getimg: prompt is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("getimg: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("getimg: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Provider: "getimg", Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("getimg: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		var decoded getimgErrorResponse
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error.Message != "" {
			detail = decoded.Error.Message
		}
		return nil, &BackendError{Provider: "getimg", StatusCode: resp.StatusCode, Body: detail}
	}

	var decoded getimgResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("getimg: decode response: %w", err)
	}
	encoded := stripDataURIPrefix(strings.TrimSpace(decoded.Image))
	if encoded == "" {
		return nil, errors.New("getimg: empty image in response")
	}

	c.logger.Debug().Int64("seed", decoded.Seed).Msg("getimg: generated image")
	return &Result{Kind: ResultBase64, Base64: encoded, MIME: "image/png"}, nil
}

var _ Transformer = (*GetimgClient)(nil)

// stripDataURIPrefix removes at most one "data:<mime>;base64," scheme prefix.
func stripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if idx := strings.Index(s, ";base64,"); idx >= 0 {
		return s[idx+len(";base64,"):]
	}
	return s
}
