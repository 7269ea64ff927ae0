package detector

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"opensentry/internal/detection"
)

// labelColor derives a stable per-class color from the label name, so
// the same class is always drawn the same way.
func labelColor(label string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(label))
	v := h.Sum32() % 255

	return color.RGBA{
		R: uint8((v * 47) % 256),
		G: uint8((v * 173) % 256),
		B: uint8((v * 71) % 256),
		A: 0,
	}
}

// Annotate draws a box, a filled label background, and a
// "label: confidence" caption for every detection onto the frame.
func Annotate(frame *gocv.Mat, detections []detection.Detection) error {
	for _, det := range detections {
		clr := labelColor(det.Label)

		if err := gocv.Rectangle(frame, det.Rect(), clr, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}

		label := fmt.Sprintf("%s: %.2f", det.Label, det.Confidence)
		size := gocv.GetTextSize(label, gocv.FontHersheySimplex, 0.5, 2)

		bg := image.Rect(det.X, det.Y-25, det.X+size.X, det.Y)
		if err := gocv.Rectangle(frame, bg, clr, -1); err != nil {
			return fmt.Errorf("failed to draw label background: %w", err)
		}

		pt := image.Pt(det.X, det.Y-5)
		black := color.RGBA{R: 0, G: 0, B: 0, A: 0}
		if err := gocv.PutText(frame, label, pt, gocv.FontHersheySimplex, 0.5, black, 2); err != nil {
			return fmt.Errorf("failed to draw label text: %w", err)
		}
	}

	return nil
}
