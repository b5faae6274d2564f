package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"stylizer/internal/infra"
)

// OpenAIEditOptions configures the image-edit client.
type OpenAIEditOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// OpenAIEditClient posts the canonical PNG as a named file part plus the
// composed prompt to the image-edit endpoint and decodes the base64 response
// into raw PNG bytes.
type OpenAIEditClient struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	httpClient *http.Client
	logger     *infra.Logger
}

type openAIEditResponse struct {
	Created int64            `json:"created"`
	Data    []dalleImageData `json:"data"`
	Error   *openAIError     `json:"error"`
}

// NewOpenAIEditClient constructs a client with sane defaults and injected
// dependencies.
func NewOpenAIEditClient(opts OpenAIEditOptions) (*OpenAIEditClient, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai-edit: api key is required")
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
		model = "gpt-image-1"
	}
	size := strings.TrimSpace(opts.Size)
	if size == "" {
		size = "1024x1024"
	}
	return &OpenAIEditClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		size:       size,
		httpClient: httpClient,
		logger:     discardIfNil(opts.Logger),
	}, nil
}

// Transform fulfils the Transformer interface.
func (c *OpenAIEditClient) Transform(ctx context.Context, req TransformRequest) (*Result, error) {
	if len(req.Image) == 0 {
		return nil, errors.New("openai-edit: source image is required")
	}
	promptText := strings.TrimSpace(req.Prompt)
	if promptText == "" {
		return nil, errors.New("openai-edit: prompt is required")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("openai-edit: build form: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, fmt.Errorf("openai-edit: write image part: %w", err)
	}
	for field, value := range map[string]string{
		"model":  c.model,
		"prompt": promptText,
		"n":      "1",
		"size":   c.size,
	} {
		if err := writer.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("openai-edit: write field %s: %w", field, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("openai-edit: finalize form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/edits", &body)
	if err != nil {
		return nil, fmt.Errorf("openai-edit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &BackendError{Provider: "openai-edit", Body: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai-edit: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(raw))
		var decoded openAIEditResponse
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil && decoded.Error.Message != "" {
			detail = decoded.Error.Message
		}
		return nil, &BackendError{Provider: "openai-edit", StatusCode: resp.StatusCode, Body: detail}
	}

	var decoded openAIEditResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("openai-edit: decode response: %w", err)
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].B64JSON) == "" {
		return nil, errors.New("openai-edit: empty image in response")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(decoded.Data[0].B64JSON))
	if err != nil {
		return nil, fmt.Errorf("openai-edit: decode image payload: %w", err)
	}

	c.logger.Debug().Str("model", c.model).Int("bytes", len(data)).Msg("openai-edit: generated image")
	return &Result{Kind: ResultBytes, Data: data, MIME: "image/png"}, nil
}

var _ Transformer = (*OpenAIEditClient)(nil)
