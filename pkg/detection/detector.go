// Package detection locates faces with a vision model and turns the answer
// into the mask the placement randomizer consumes.
package detection

import (
	"context"
	"strings"

	"github.com/menta2k/snapfx/pkg/client"
	"github.com/menta2k/snapfx/pkg/tensor"
	"github.com/menta2k/snapfx/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks for every visible face as normalized boxes
const DefaultPrompt = `You are a face locator.

Return JSON only:
{
  "faces": [
    {"label": "face", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ],
  "description": "short neutral sentence (≤ 20 words)"
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels); x,y is the top-left corner.
- One entry per visible human face, most prominent first.
- Boxes cover the face from hairline to chin.
- Do not guess real identities.
- If no face is visible, return {"faces": [], "description": "no face"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Detector locates faces using a vision client
type Detector struct {
	client client.VisionClient
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient) *Detector {
	return &Detector{client: client}
}

// LocateFace asks the model for faces in the image. imgW and imgH are the
// dimensions of the image that was sent; they convert pixel boxes from
// models that ignore the normalization rule.
func (d *Detector) LocateFace(ctx context.Context, model, imageB64 string, imgW, imgH int) (*types.LocateResult, error) {
	return d.LocateFaceWithPrompt(ctx, model, imageB64, DefaultPrompt, imgW, imgH)
}

// LocateFaceWithPrompt is LocateFace with a custom prompt
func (d *Detector) LocateFaceWithPrompt(ctx context.Context, model, imageB64, prompt string, imgW, imgH int) (*types.LocateResult, error) {
	result, err := d.client.LocateFaces(ctx, model, prompt, imageB64)
	if err != nil {
		return nil, err
	}

	faces := result.Faces[:0]
	for _, f := range result.Faces {
		if strings.EqualFold(strings.TrimSpace(f.Label), "none") {
			continue
		}
		f.Box = normalizeBox(f.Box, imgW, imgH)
		f.Confidence = clamp(f.Confidence, 0, 1)
		if f.Box.Empty() {
			continue
		}
		faces = append(faces, f)
	}
	result.Faces = faces
	return result, nil
}

// TestVision tests if the model can actually see the image with a simple prompt
func (d *Detector) TestVision(ctx context.Context, model, imageB64 string) (string, error) {
	return d.client.SimpleQuery(ctx, model, SimpleTestPrompt, imageB64)
}

// Mask rasterizes the primary face of result into an h x w mask batch. A
// result without faces gives an empty mask, which places text at the center.
func Mask(result *types.LocateResult, h, w int) *tensor.Masks {
	if result == nil {
		return tensor.NewMasks(1, h, w)
	}
	face, ok := result.Primary()
	if !ok {
		return tensor.NewMasks(1, h, w)
	}
	return tensor.MaskFromBox(h, w, face.Box)
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox converts pixel boxes and clips the box to the unit square
func normalizeBox(b types.Box, imgW, imgH int) types.Box {
	if imgW > 0 && imgH > 0 && (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) {
		b = types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}

	x0, y0 := clamp(b.X, 0, 1), clamp(b.Y, 0, 1)
	x1, y1 := clamp(b.X+b.W, 0, 1), clamp(b.Y+b.H, 0, 1)
	return types.Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}
