package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	goimage "image"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stylizer/internal/infra"
)

const (
	defaultReplicateBaseURL = "https://api.replicate.com/v1"

	// SDXL img2img version pin. Hosted inference rejects requests without an
	// explicit version.
	defaultReplicateVersion = "39ed52f2a78e934b3ba6e2a89f5b1c712de7dfea535525255b1aa35c5565e08b"
)

// ReplicateOptions configures the hosted-inference client.
type ReplicateOptions struct {
	APIToken       string
	BaseURL        string
	Version        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// ReplicateClient runs the transformation on Replicate's managed inference
// API: the canonical image goes up as a data URI, the hosted output is
// downloaded, decoded, and re-encoded as base64 PNG so the outbound contract
// never leaks the vendor's temporary URLs.
type ReplicateClient struct {
	apiToken   string
	baseURL    string
	version    string
	httpClient *http.Client
	logger     *infra.Logger
}

type replicateInput struct {
	Image          string  `json:"image"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	PromptStrength float64 `json:"prompt_strength"`
	Steps          int     `json:"num_inference_steps"`
	GuidanceScale  float64 `json:"guidance_scale"`
}

type replicateRequest struct {
	Version string         `json:"version"`
	Input   replicateInput `json:"input"`
}

type replicateResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
	Detail string          `json:"detail"`
}

// NewReplicateClient constructs a client with sane defaults and injected
// dependencies.
func NewReplicateClient(opts ReplicateOptions) (*ReplicateClient, error) {
	apiToken := strings.TrimSpace(opts.APIToken)
	if apiToken == "" {
		return nil, errors.New("replicate: api token is required")
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
		baseURL = defaultReplicateBaseURL
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = defaultReplicateVersion
	}
	return &ReplicateClient{
		apiToken:   apiToken,
		baseURL:    baseURL,
		version:    version,
		httpClient: httpClient,
		logger:     discardIfNil(opts.Logger),
	}, nil
}

// Transform fulfils the Transformer interface.
func (c *ReplicateClient) Transform(ctx context.Context, req TransformRequest) (*Result, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("replicate: source image is required")
	}
	promptText := strings.TrimSpace(req.Prompt)
	if promptText == "" {
		return nil, errors.New("replicate: prompt is required")
	}

	payload := replicateRequest{
		Version: c.version,
		Input: replicateInput{
			Image:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(req.Image),
			Prompt:         promptText,
			NegativePrompt: strings.TrimSpace(req.NegativePrompt),
			PromptStrength: req.Knobs.Strength,
			Steps:          req.Knobs.Steps,
			GuidanceScale:  req.Knobs.Guidance,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	// Hold the request open until the prediction settles instead of polling.
	httpReq.Header.Set("Prefer", "wait=60")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Provider: "replicate", Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		var decoded replicateResponse
		if err := json.Unmarshal(raw, &decoded); err == nil {
			if decoded.Detail != "" {
				detail = decoded.Detail
			} else if decoded.Error != "" {
				detail = decoded.Error
			}
		}
		return nil, &BackendError{Provider: "replicate", StatusCode: resp.StatusCode, Body: detail}
	}

	var decoded replicateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("replicate: decode response: %w", err)
	}
	if decoded.Status != "succeeded" {
		detail := decoded.Error
		if detail == "" {
			detail = fmt.Sprintf("prediction status %q", decoded.Status)
		}
		return nil, &BackendError{Provider: "replicate", StatusCode: resp.StatusCode, Body: detail}
	}
	outputURL := firstOutputURL(decoded.Output)
	if outputURL == "" {
		return nil, errors.New("replicate: empty output in response")
	}

	data, err := c.download(ctx, outputURL)
	if err != nil {
		return nil, err
	}
	encoded, err := reencodePNGBase64(data)
	if err != nil {
		return nil, fmt.Errorf("replicate: normalize output: %w", err)
	}

	c.logger.Debug().Str("prediction_id", decoded.ID).Str("url", outputURL).Msg("replicate: generated image")
	return &Result{Kind: ResultBase64, Base64: encoded, MIME: "image/png"}, nil
}

var _ Transformer = (*ReplicateClient)(nil)

func (c *ReplicateClient) download(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("replicate: invalid output url: %s", rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("replicate: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &BackendError{Provider: "replicate", Body: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, &BackendError{Provider: "replicate", StatusCode: resp.StatusCode, Body: "output download failed"}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("replicate: read output: %w", err)
	}
	return data, nil
}

// firstOutputURL accepts the two output shapes the predictions API uses: a
// bare string or an array of strings.
func firstOutputURL(output json.RawMessage) string {
	if len(output) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(output, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(output, &many); err == nil && len(many) > 0 {
		return strings.TrimSpace(many[0])
	}
	return ""
}

func reencodePNGBase64(data []byte) (string, error) {
	img, _, err := goimage.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
