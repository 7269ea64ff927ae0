package stream

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"opensentry/internal/camera"
	"opensentry/internal/detection"
	"opensentry/internal/detector"
	"opensentry/internal/logger"
	"opensentry/internal/notify"
)

// FrameWriter receives one encoded JPEG frame per stream iteration. A
// write error means the viewer is gone and ends that viewer's loop.
type FrameWriter interface {
	WriteFrame(data []byte) error
}

// Streamer drives the per-viewer processing loop: read a frame, run
// the detector, reduce, annotate, notify, encode, emit. Each viewer
// gets its own Streamer.Run goroutine; the camera manager arbitrates
// the shared device underneath.
type Streamer struct {
	camera        *camera.Manager
	detector      detector.Detector
	reducer       detection.Reducer
	notifier      *notify.Notifier
	frameInterval time.Duration
	logger        *logger.Logger
}

// NewStreamer wires a Streamer.
func NewStreamer(cam *camera.Manager, det detector.Detector, reducer detection.Reducer,
	notifier *notify.Notifier, frameInterval time.Duration, logger *logger.Logger) *Streamer {
	return &Streamer{
		camera:        cam,
		detector:      det,
		reducer:       reducer,
		notifier:      notifier,
		frameInterval: frameInterval,
		logger:        logger,
	}
}

// Run streams annotated frames to w until the context is canceled, the
// viewer disconnects, or the camera fails. Camera errors terminate only
// this viewer and are returned; a disconnect returns nil.
func (s *Streamer) Run(ctx context.Context, w FrameWriter) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := s.camera.ReadFrame(&frame); err != nil {
			s.logger.Warning("Stream ended: %v", err)
			return err
		}

		raw, err := s.detector.Infer(&frame)
		if err != nil {
			s.logger.Error("Detector failure: %v", err)
			raw = nil
		}

		reduced := s.reducer.Reduce(raw)

		if err := detector.Annotate(&frame, reduced); err != nil {
			s.logger.Error("Failed to annotate frame: %v", err)
		}

		// One throttled notification attempt per distinct class in frame.
		for _, det := range detection.Labels(reduced) {
			s.notifier.TryNotify(det.Label, det.Confidence, &frame)
		}

		buf, err := gocv.IMEncode(".jpg", frame)
		if err != nil {
			// Encode failures skip the frame, never the stream.
			s.logger.Warning("Failed to encode frame: %v", err)
			continue
		}
		data := make([]byte, buf.Len())
		copy(data, buf.GetBytes())
		buf.Close()

		if err := w.WriteFrame(data); err != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.frameInterval):
		}
	}
}
