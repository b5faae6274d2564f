package image

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"stylizer/internal/infra"
)

// ResultKind tags which field of a Result carries the payload.
type ResultKind string

const (
	ResultURL    ResultKind = "url"
	ResultBase64 ResultKind = "base64"
	ResultBytes  ResultKind = "bytes"
)

// Knobs are the diffusion parameters shared by the image-to-image backends.
type Knobs struct {
	Strength float64 // how strongly the source image constrains the output, 0..1
	Steps    int     // diffusion iterations
	Guidance float64 // prompt adherence
}

// DefaultKnobs returns the tuning the service ships with.
func DefaultKnobs() Knobs {
	return Knobs{Strength: 0.7, Steps: 30, Guidance: 7.5}
}

// TransformRequest is the normalized input handed to any backend adapter.
// Image holds the canonical PNG bytes produced by the preprocessor (or the
// raw upload when preprocessing fell back).
type TransformRequest struct {
	Image          []byte
	Prompt         string
	NegativePrompt string
	Knobs          Knobs
}

// Result is the single-variant output of a backend adapter. Exactly one of
// URL, Base64, or Data is populated, per Kind.
type Result struct {
	Kind   ResultKind
	URL    string
	Base64 string
	Data   []byte
	MIME   string
}

// Transformer is the capability implemented by every image backend. The
// active implementation is chosen once at startup; request handling never
// branches on the vendor.
type Transformer interface {
	Transform(ctx context.Context, req TransformRequest) (*Result, error)
}

// BackendError reports a non-success response from a vendor API. StatusCode
// is the vendor's HTTP status (0 when the call never produced one) and Body
// carries the vendor's error detail. The authorization credential is never
// part of the message.
type BackendError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: backend request failed: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s: backend status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func discardIfNil(l *infra.Logger) *infra.Logger {
	if l != nil {
		return l
	}
	discard := zerolog.New(io.Discard)
	logger := infra.Logger(discard)
	return &logger
}
