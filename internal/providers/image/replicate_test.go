package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	goimage "image"
	"image/color"
	"image/jpeg"
	"net/http"
	"strings"
	"testing"
)

func smallJPEG(t *testing.T) []byte {
	t.Helper()
	img := goimage.NewRGBA(goimage.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 73, G: 109, B: 137, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func newReplicateForTest(t *testing.T, transport *captureTransport) *ReplicateClient {
	t.Helper()
	client, err := NewReplicateClient(ReplicateOptions{
		APIToken:   "r8_test",
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestReplicateTransformNormalizesToBase64PNG(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/predictions", http.StatusCreated, map[string]any{
		"id":     "pred-1",
		"status": "succeeded",
		"output": []string{"https://replicate.delivery/out.jpg"},
	})
	transport.setBinaryResponse("https://replicate.delivery/out.jpg", smallJPEG(t))
	client := newReplicateForTest(t, transport)

	result, err := client.Transform(context.Background(), TransformRequest{
		Image:          []byte{0x01, 0x02},
		Prompt:         "a cat",
		NegativePrompt: "text",
		Knobs:          DefaultKnobs(),
	})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if result.Kind != ResultBase64 || result.MIME != "image/png" {
		t.Fatalf("unexpected result: kind=%q mime=%q", result.Kind, result.MIME)
	}
	decoded, err := base64.StdEncoding.DecodeString(result.Base64)
	if err != nil {
		t.Fatalf("result not base64: %v", err)
	}
	if _, format, err := goimage.Decode(bytes.NewReader(decoded)); err != nil || format != "png" {
		t.Fatalf("output not PNG: format=%q err=%v", format, err)
	}
}

func TestReplicatePayloadCarriesDataURIAndKnobs(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/predictions", http.StatusCreated, map[string]any{
		"status": "succeeded",
		"output": []string{"https://replicate.delivery/out.jpg"},
	})
	transport.setBinaryResponse("https://replicate.delivery/out.jpg", smallJPEG(t))
	client := newReplicateForTest(t, transport)

	source := []byte("png bytes")
	if _, err := client.Transform(context.Background(), TransformRequest{
		Image:  source,
		Prompt: "a cat",
		Knobs:  DefaultKnobs(),
	}); err != nil {
		t.Fatalf("transform: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	input := payload["input"].(map[string]any)
	img := input["image"].(string)
	wantPrefix := "data:image/png;base64,"
	if !strings.HasPrefix(img, wantPrefix) {
		t.Fatalf("image missing data-URI prefix: %q", img[:min(len(img), 30)])
	}
	if img[len(wantPrefix):] != base64.StdEncoding.EncodeToString(source) {
		t.Fatal("image payload mismatch")
	}
	if input["prompt_strength"] != 0.7 || input["num_inference_steps"] != float64(30) || input["guidance_scale"] != 7.5 {
		t.Fatalf("knobs mismatch: %v", input)
	}
}

func TestReplicateFailedPredictionIsBackendError(t *testing.T) {
	transport := newCaptureTransport()
	transport.setJSONResponse("/v1/predictions", http.StatusCreated, map[string]any{
		"status": "failed",
		"error":  "NSFW content detected",
	})
	client := newReplicateForTest(t, transport)

	_, err := client.Transform(context.Background(), TransformRequest{
		Image:  []byte{0x01},
		Prompt: "a cat",
		Knobs:  DefaultKnobs(),
	})
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.Body != "NSFW content detected" {
		t.Fatalf("body = %q", backendErr.Body)
	}
}

func TestFirstOutputURLShapes(t *testing.T) {
	if got := firstOutputURL(json.RawMessage(`"https://a/b.png"`)); got != "https://a/b.png" {
		t.Fatalf("string shape: %q", got)
	}
	if got := firstOutputURL(json.RawMessage(`["https://a/1.png","https://a/2.png"]`)); got != "https://a/1.png" {
		t.Fatalf("array shape: %q", got)
	}
	if got := firstOutputURL(nil); got != "" {
		t.Fatalf("nil shape: %q", got)
	}
}
