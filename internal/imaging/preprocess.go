package imaging

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxDimension is the longest edge accepted by the diffusion backends.
const MaxDimension = 1024

// Canonicalize normalizes arbitrary uploaded image bytes into the canonical
// form sent to every backend: RGB, longest edge capped at MaxDimension,
// PNG-encoded. Preprocessing is best effort, not a precondition: when the
// bytes cannot be decoded or re-encoded, the original upload is returned
// unchanged and the backend gets to decide whether it accepts them.
func Canonicalize(data []byte) []byte {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return data
	}

	targetW, targetH := fitWithin(width, height, MaxDimension)

	// Flatten onto an opaque white canvas so alpha channels and exotic
	// color modes collapse to plain RGB before PNG encoding.
	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if targetW == width && targetH == height {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data
	}
	return buf.Bytes()
}

// Dimensions reports the decoded width and height of image bytes.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// fitWithin scales (w, h) so that neither exceeds limit, preserving aspect
// ratio. Images already inside the limit keep their exact dimensions.
func fitWithin(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		scaled := (h*limit + w/2) / w
		if scaled < 1 {
			scaled = 1
		}
		return limit, scaled
	}
	scaled := (w*limit + h/2) / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, limit
}
