package detection

import (
	"image"
	"math"
	"testing"
)

// ========================================
// IoU Tests
// ========================================

func TestIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     image.Rectangle
		expected float64
	}{
		{"identical boxes", image.Rect(0, 0, 10, 10), image.Rect(0, 0, 10, 10), 1.0},
		{"no overlap", image.Rect(0, 0, 10, 10), image.Rect(20, 20, 30, 30), 0.0},
		{"touching edges", image.Rect(0, 0, 10, 10), image.Rect(10, 0, 20, 10), 0.0},
		{"half overlap", image.Rect(0, 0, 10, 10), image.Rect(5, 0, 15, 10), 50.0 / 150.0},
		{"zero area box", image.Rect(0, 0, 0, 0), image.Rect(0, 0, 0, 0), 0.0},
		{"contained box", image.Rect(0, 0, 10, 10), image.Rect(2, 2, 7, 7), 25.0 / 100.0},
	}

	for _, tt := range tests {
		result := IoU(tt.a, tt.b)
		if math.Abs(result-tt.expected) > 1e-9 {
			t.Errorf("%s: IoU = %f, expected %f", tt.name, result, tt.expected)
		}
	}
}

func TestIoU_Symmetric(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	b := image.Rect(3, 3, 14, 14)

	if IoU(a, b) != IoU(b, a) {
		t.Errorf("IoU should be symmetric: %f != %f", IoU(a, b), IoU(b, a))
	}
}

// ========================================
// Reducer Tests
// ========================================

func TestReduce_Empty(t *testing.T) {
	r := NewReducer(0.5, 0.4, []string{"person"})

	if result := r.Reduce(nil); len(result) != 0 {
		t.Errorf("Expected empty output for nil input, got %d detections", len(result))
	}
	if result := r.Reduce([]Detection{}); len(result) != 0 {
		t.Errorf("Expected empty output for empty input, got %d detections", len(result))
	}
}

func TestReduce_ScoreFilter(t *testing.T) {
	r := NewReducer(0.5, 0.4, []string{"person"})

	input := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.3, X: 100, Y: 100, Width: 10, Height: 10},
	}

	result := r.Reduce(input)
	if len(result) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(result))
	}
	if result[0].Confidence != 0.9 {
		t.Errorf("Expected the 0.9 detection to survive, got %f", result[0].Confidence)
	}
}

func TestReduce_ClassFilter(t *testing.T) {
	r := NewReducer(0.5, 0.4, []string{"person"})

	input := []Detection{
		{Label: "car", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.8, X: 100, Y: 100, Width: 10, Height: 10},
	}

	result := r.Reduce(input)
	if len(result) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(result))
	}
	if result[0].Label != "person" {
		t.Errorf("Expected only 'person' to survive, got %q", result[0].Label)
	}
}

func TestReduce_OverlappingBoxes(t *testing.T) {
	r := NewReducer(0.5, 0.5, []string{"person"})

	// Two near-identical boxes, the higher confidence one must win.
	input := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.8, X: 1, Y: 1, Width: 10, Height: 10},
	}

	result := r.Reduce(input)
	if len(result) != 1 {
		t.Fatalf("Expected 1 detection after NMS, got %d", len(result))
	}
	if result[0].Confidence != 0.9 {
		t.Errorf("Expected the 0.9 box to survive, got %f", result[0].Confidence)
	}
}

func TestReduce_DisjointBoxesBothSurvive(t *testing.T) {
	r := NewReducer(0.5, 0.4, []string{"person"})

	input := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.8, X: 200, Y: 200, Width: 10, Height: 10},
	}

	result := r.Reduce(input)
	if len(result) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(result))
	}
}

func TestReduce_OutputSubsetOfInput(t *testing.T) {
	r := NewReducer(0.5, 0.4, []string{"person", "car"})

	input := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.7, X: 2, Y: 2, Width: 10, Height: 10},
		{Label: "car", Confidence: 0.8, X: 50, Y: 50, Width: 20, Height: 20},
		{Label: "car", Confidence: 0.6, X: 55, Y: 50, Width: 20, Height: 20},
	}

	result := r.Reduce(input)
	for _, out := range result {
		found := false
		for _, in := range input {
			if out == in {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Output detection %+v not present in input", out)
		}
	}
}

func TestReduce_NoSurvivingPairExceedsThreshold(t *testing.T) {
	r := NewReducer(0.1, 0.3, []string{"person"})

	input := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 20, Height: 20},
		{Label: "person", Confidence: 0.8, X: 5, Y: 5, Width: 20, Height: 20},
		{Label: "person", Confidence: 0.7, X: 10, Y: 10, Width: 20, Height: 20},
		{Label: "person", Confidence: 0.6, X: 100, Y: 100, Width: 20, Height: 20},
	}

	result := r.Reduce(input)
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if iou := IoU(result[i].Rect(), result[j].Rect()); iou > r.IoUThreshold {
				t.Errorf("Surviving boxes %d and %d have IoU %f > threshold %f", i, j, iou, r.IoUThreshold)
			}
		}
	}
}

func TestReduce_OrderInvariant(t *testing.T) {
	r := NewReducer(0.5, 0.4, []string{"person"})

	forward := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.8, X: 1, Y: 1, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.7, X: 200, Y: 200, Width: 10, Height: 10},
	}
	reversed := []Detection{forward[2], forward[1], forward[0]}

	a := r.Reduce(forward)
	b := r.Reduce(reversed)

	if len(a) != len(b) {
		t.Fatalf("Different output lengths: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Output differs at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestReduce_HigherConfidenceOverlapWins(t *testing.T) {
	// Boxes (0,0,10,10,0.9) and (1,1,10,10,0.8) with IoU threshold 0.5:
	// only the higher confidence box survives.
	r := NewReducer(0.5, 0.5, []string{"person"})

	input := []Detection{
		{Label: "person", Confidence: 0.9, X: 0, Y: 0, Width: 10, Height: 10},
		{Label: "person", Confidence: 0.8, X: 1, Y: 1, Width: 10, Height: 10},
	}

	result := r.Reduce(input)
	if len(result) != 1 {
		t.Fatalf("Expected 1 detection, got %d", len(result))
	}
	if result[0].X != 0 || result[0].Confidence != 0.9 {
		t.Errorf("Expected the (0,0) box at 0.9 to survive, got %+v", result[0])
	}
}

// ========================================
// Labels Tests
// ========================================

func TestLabels_Distinct(t *testing.T) {
	input := []Detection{
		{Label: "person", Confidence: 0.7},
		{Label: "car", Confidence: 0.8},
		{Label: "person", Confidence: 0.9},
	}

	distinct := Labels(input)
	if len(distinct) != 2 {
		t.Fatalf("Expected 2 distinct labels, got %d", len(distinct))
	}
	if distinct[0].Label != "person" || distinct[0].Confidence != 0.9 {
		t.Errorf("Expected person at max confidence 0.9, got %+v", distinct[0])
	}
	if distinct[1].Label != "car" {
		t.Errorf("Expected car second, got %+v", distinct[1])
	}
}

func TestLabels_Empty(t *testing.T) {
	if result := Labels(nil); len(result) != 0 {
		t.Errorf("Expected empty result, got %v", result)
	}
}
