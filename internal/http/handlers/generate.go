package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"stylizer/internal/imaging"
	"stylizer/internal/prompt"
	providerimage "stylizer/internal/providers/image"
)

// maxUploadBytes caps the multipart body; diffusion backends reject anything
// near this size anyway.
const maxUploadBytes = 15 << 20

type generateURLResponse struct {
	URL string `json:"url"`
}

type generateBase64Response struct {
	ImageBase64 string `json:"image_base64"`
}

// Generate accepts a multipart upload (file field "file", optional text
// field "prompt"), runs the preprocess → prompt → backend pipeline, and
// responds with the canonical envelope: {"url": ...} when the active backend
// yields a hosted URL, {"image_base64": ...} otherwise.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	uploaded, err := io.ReadAll(file)
	if err != nil || len(uploaded) == 0 {
		a.error(w, http.StatusBadRequest, "Uploaded file is empty")
		return
	}

	canonical := imaging.Canonicalize(uploaded)
	positive, negative := prompt.Build(r.FormValue("prompt"))

	result, err := a.Transformer.Transform(r.Context(), providerimage.TransformRequest{
		Image:          canonical,
		Prompt:         positive,
		NegativePrompt: negative,
		Knobs:          providerimage.DefaultKnobs(),
	})
	if err != nil {
		a.generateError(w, err)
		return
	}

	switch result.Kind {
	case providerimage.ResultURL:
		a.json(w, http.StatusOK, generateURLResponse{URL: result.URL})
	case providerimage.ResultBase64:
		a.json(w, http.StatusOK, generateBase64Response{ImageBase64: result.Base64})
	case providerimage.ResultBytes:
		a.json(w, http.StatusOK, generateBase64Response{ImageBase64: base64.StdEncoding.EncodeToString(result.Data)})
	default:
		a.Logger.Error().Str("kind", string(result.Kind)).Msg("unknown generation result kind")
		a.error(w, http.StatusInternalServerError, "Image generation failed")
	}
}

// generateError maps pipeline failures onto the response contract: vendor
// failures keep the vendor's status code and detail (502 when the call never
// reached a status), everything else collapses to a generic 500. The backend
// credential never appears in any message.
func (a *App) generateError(w http.ResponseWriter, err error) {
	var backendErr *providerimage.BackendError
	if errors.As(err, &backendErr) {
		status := backendErr.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		a.Logger.Error().
			Str("provider", backendErr.Provider).
			Int("vendor_status", backendErr.StatusCode).
			Msg("image backend call failed")
		a.error(w, status, "Image generation failed: "+backendErr.Body)
		return
	}
	a.Logger.Error().Err(err).Msg("image generation failed")
	a.error(w, http.StatusInternalServerError, "Image generation failed")
}
