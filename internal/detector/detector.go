package detector

import (
	"gocv.io/x/gocv"

	"opensentry/internal/detection"
)

// Detector produces raw detections for a frame. Implementations must be
// safe for use from a single stream goroutine; they are not required to
// be safe for concurrent Infer calls.
type Detector interface {
	Infer(frame *gocv.Mat) ([]detection.Detection, error)
	Close() error
}
