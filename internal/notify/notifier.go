package notify

import (
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"opensentry/internal/logger"
	"opensentry/internal/model"
	"opensentry/internal/repository"
	"opensentry/internal/snapshot"
	"opensentry/internal/ws"
)

const dispatchQueueSize = 32

// Notifier combines the cooldown throttle with the alert side effects:
// a synchronous evidence snapshot, an alert log row, a hub broadcast,
// and an asynchronous sink dispatch. Nothing here may block or fail the
// frame loop beyond the snapshot write.
type Notifier struct {
	throttle *Throttle
	store    *snapshot.Store
	alerts   repository.AlertRepository
	hub      *ws.Hub
	sink     AlertSink
	logger   *logger.Logger

	queue    chan Event
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewNotifier creates a Notifier and starts its dispatch worker. The
// alert repository, hub and sink may each be nil, disabling that side
// effect.
func NewNotifier(throttle *Throttle, store *snapshot.Store, alerts repository.AlertRepository,
	hub *ws.Hub, sink AlertSink, logger *logger.Logger) *Notifier {
	n := &Notifier{
		throttle: throttle,
		store:    store,
		alerts:   alerts,
		hub:      hub,
		sink:     sink,
		logger:   logger,
		queue:    make(chan Event, dispatchQueueSize),
	}

	n.wg.Add(1)
	go n.dispatchWorker()

	return n
}

// TryNotify fires an alert for the label unless its cooldown is still
// running. On success the annotated frame is persisted as evidence
// before the event is handed to the dispatch queue. Returns true iff
// the alert actually fired.
func (n *Notifier) TryNotify(label string, confidence float64, frame *gocv.Mat) bool {
	if !n.throttle.Allow(label) {
		return false
	}

	filename, err := n.store.Save(label, frame)
	if err != nil {
		n.logger.Error("Failed to save alert snapshot for %s: %v", label, err)
		return false
	}

	event := Event{
		Label:        label,
		Confidence:   confidence,
		Timestamp:    time.Now(),
		SnapshotPath: filepath.Join(n.store.Directory(), filename),
	}

	if n.alerts != nil {
		_, err := n.alerts.Insert(&model.Alert{
			Label:      event.Label,
			Confidence: event.Confidence,
			Snapshot:   filename,
			CreatedAt:  event.Timestamp,
		})
		if err != nil {
			n.logger.Error("Failed to record alert: %v", err)
		}
	}

	if n.hub != nil {
		n.hub.BroadcastAlert(model.Alert{
			Label:      event.Label,
			Confidence: event.Confidence,
			Snapshot:   filename,
			CreatedAt:  event.Timestamp,
		})
	}

	if n.sink != nil {
		select {
		case n.queue <- event:
		default:
			n.logger.Warning("⚠️  Alert dispatch queue full - dropping %s event", label)
		}
	}

	n.logger.Info("🔔 Alert fired: %s detected (%.2f)", label, confidence)
	return true
}

// dispatchWorker drains the queue and delivers events to the sink.
// Failures are logged and swallowed, never retried.
func (n *Notifier) dispatchWorker() {
	defer n.wg.Done()

	for event := range n.queue {
		if n.sink == nil {
			continue
		}
		if err := n.sink.Dispatch(event); err != nil {
			n.logger.Error("Failed to dispatch alert for %s: %v", event.Label, err)
		}
	}
}

// Stop closes the dispatch queue and waits for in-flight deliveries.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.queue)
	})
	n.wg.Wait()
}
