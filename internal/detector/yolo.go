package detector

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	"gocv.io/x/gocv"

	"opensentry/internal/detection"
	"opensentry/internal/logger"
)

const (
	// yoloInputSize is the side length of the square network input.
	yoloInputSize = 416
	// minRawConfidence drops detector noise before the reducer runs.
	minRawConfidence = 0.1
)

// YOLODetector runs a YOLO network through the OpenCV DNN module.
type YOLODetector struct {
	net         gocv.Net
	outputNames []string
	classes     []string
	logger      *logger.Logger
}

// NewYOLODetector loads the network weights, config and class names.
func NewYOLODetector(modelPath, configPath, classesPath string, logger *logger.Logger) (*YOLODetector, error) {
	for _, path := range []string{modelPath, configPath, classesPath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", path)
		}
	}

	classes, err := loadClassNames(classesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load class names: %w", err)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, fmt.Errorf("failed to set network backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, fmt.Errorf("failed to set network target: %w", err)
	}

	d := &YOLODetector{
		net:         net,
		outputNames: outputLayerNames(&net),
		classes:     classes,
		logger:      logger,
	}

	logger.Info("Detection network initialized with %d classes", len(classes))
	return d, nil
}

// Infer runs a forward pass and returns raw detections in frame pixel
// coordinates. Confidence/class filtering is left to the reducer.
func (d *YOLODetector) Infer(frame *gocv.Mat) ([]detection.Detection, error) {
	if d.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}
	if frame.Empty() {
		return nil, fmt.Errorf("input frame is empty")
	}

	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(yoloInputSize, yoloInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	outputs := d.net.ForwardLayers(d.outputNames)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	frameWidth := float32(frame.Cols())
	frameHeight := float32(frame.Rows())

	var results []detection.Detection
	for _, output := range outputs {
		cols := output.Cols()
		// Each row: [cx, cy, w, h, objectness, class scores...]
		for row := 0; row < output.Rows(); row++ {
			classID, confidence := maxClassScore(&output, row, cols)
			if confidence < minRawConfidence || classID >= len(d.classes) {
				continue
			}

			centerX := output.GetFloatAt(row, 0) * frameWidth
			centerY := output.GetFloatAt(row, 1) * frameHeight
			width := output.GetFloatAt(row, 2) * frameWidth
			height := output.GetFloatAt(row, 3) * frameHeight

			results = append(results, detection.Detection{
				Label:      d.classes[classID],
				Confidence: float64(confidence),
				X:          int(centerX - width/2),
				Y:          int(centerY - height/2),
				Width:      int(width),
				Height:     int(height),
			})
		}
	}

	return results, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}

// maxClassScore finds the best class for one output row.
func maxClassScore(output *gocv.Mat, row, cols int) (int, float32) {
	bestID := 0
	var best float32
	for col := 5; col < cols; col++ {
		if score := output.GetFloatAt(row, col); score > best {
			best = score
			bestID = col - 5
		}
	}
	return bestID, best
}

// outputLayerNames resolves the unconnected output layers of the network.
func outputLayerNames(net *gocv.Net) []string {
	var names []string
	for _, id := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(id)
		name := layer.GetName()
		if name != "" && name != "_input" {
			names = append(names, name)
		}
		layer.Close()
	}
	return names
}

// loadClassNames reads one class label per line.
func loadClassNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var classes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if name := strings.TrimSpace(scanner.Text()); name != "" {
			classes = append(classes, name)
		}
	}
	return classes, scanner.Err()
}
