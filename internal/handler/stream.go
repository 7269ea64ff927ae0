package handler

import (
	"fmt"
	"net/http"

	"opensentry/internal/logger"
	"opensentry/internal/stream"
)

// streamBoundary separates the parts of the MJPEG multipart response.
const streamBoundary = "frame"

// mjpegWriter emits one multipart part per encoded frame and flushes it
// immediately so viewers see frames as they are produced.
type mjpegWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (m *mjpegWriter) WriteFrame(data []byte) error {
	if _, err := fmt.Fprintf(m.w, "--%s\r\n", streamBoundary); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(m.w, "Content-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := m.w.Write(data); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(m.w, "\r\n"); err != nil {
		return err
	}

	if m.flusher != nil {
		m.flusher.Flush()
	}
	return nil
}

// StreamHandler serves the annotated camera feed as an MJPEG multipart
// stream. The connection stays open until the client disconnects or the
// camera fails; each viewer runs its own processing loop.
func StreamHandler(streamer *stream.Streamer, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+streamBoundary)
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, _ := w.(http.Flusher)

		logger.Info("🎥 Viewer connected to stream")
		defer logger.Info("🎥 Viewer left stream")

		if err := streamer.Run(r.Context(), &mjpegWriter{w: w, flusher: flusher}); err != nil {
			// Camera-level failure; this viewer's stream simply ends.
			logger.Warning("Stream terminated: %v", err)
		}
	}
}
