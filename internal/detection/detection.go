package detection

import (
	"image"
	"sort"
)

// Detection represents a single detected object on a frame. Coordinates
// are pixels in the source frame, X/Y being the top-left corner.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Rect returns the detection box as an image.Rectangle.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

// IoU calculates the Intersection over Union of two boxes.
// Returns a value between 0.0 (no overlap) and 1.0 (identical boxes).
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0.0
	}

	interArea := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()) + float64(b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0.0
	}

	return interArea / union
}

// Reducer filters raw detections and collapses overlapping boxes with
// non-maximum suppression. A zero-value Classes map disables class
// filtering; otherwise only listed labels survive.
type Reducer struct {
	ScoreThreshold float64
	IoUThreshold   float64
	Classes        map[string]bool
}

// NewReducer builds a Reducer for the given target class labels.
func NewReducer(scoreThreshold, iouThreshold float64, labels []string) Reducer {
	classes := make(map[string]bool, len(labels))
	for _, label := range labels {
		classes[label] = true
	}
	return Reducer{
		ScoreThreshold: scoreThreshold,
		IoUThreshold:   iouThreshold,
		Classes:        classes,
	}
}

// Reduce applies confidence/class filtering followed by non-maximum
// suppression. The sort is stable, so input order breaks confidence
// ties and the output is deterministic.
func (r Reducer) Reduce(detections []Detection) []Detection {
	candidates := make([]Detection, 0, len(detections))
	for _, det := range detections {
		if det.Confidence < r.ScoreThreshold {
			continue
		}
		if len(r.Classes) > 0 && !r.Classes[det.Label] {
			continue
		}
		candidates = append(candidates, det)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	var kept []Detection
	for len(candidates) > 0 {
		best := candidates[0]
		kept = append(kept, best)

		remaining := candidates[:0]
		for _, det := range candidates[1:] {
			if IoU(best.Rect(), det.Rect()) <= r.IoUThreshold {
				remaining = append(remaining, det)
			}
		}
		candidates = remaining
	}

	return kept
}

// Labels returns the distinct class labels present in the detections,
// each paired with the highest confidence seen for that label. Order
// follows first appearance.
func Labels(detections []Detection) []Detection {
	seen := make(map[string]int)
	var distinct []Detection
	for _, det := range detections {
		if idx, ok := seen[det.Label]; ok {
			if det.Confidence > distinct[idx].Confidence {
				distinct[idx] = det
			}
			continue
		}
		seen[det.Label] = len(distinct)
		distinct = append(distinct, det)
	}
	return distinct
}
