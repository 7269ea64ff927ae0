package camera

import (
	"errors"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"opensentry/internal/logger"
)

var (
	// ErrDeviceUnavailable means the camera device could not be opened.
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	// ErrEndOfStream means a frame read failed mid-stream.
	ErrEndOfStream = errors.New("end of camera stream")
)

// Device is the open camera handle. *gocv.VideoCapture satisfies it.
type Device interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

// OpenFunc opens the camera device. Injectable for tests.
type OpenFunc func(deviceID int) (Device, error)

func defaultOpen(deviceID int) (Device, error) {
	return gocv.OpenVideoCapture(deviceID)
}

// Manager owns the single exclusive camera handle. The device is opened
// lazily on the first frame request and released by a periodic reaper
// once no viewer has read a frame for the idle timeout.
type Manager struct {
	deviceID     int
	idleTimeout  time.Duration
	reapInterval time.Duration
	open         OpenFunc
	logger       *logger.Logger

	mu         sync.Mutex
	device     Device
	lastAccess time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a camera Manager for the given device.
func NewManager(deviceID int, idleTimeout, reapInterval time.Duration, logger *logger.Logger) *Manager {
	return &Manager{
		deviceID:     deviceID,
		idleTimeout:  idleTimeout,
		reapInterval: reapInterval,
		open:         defaultOpen,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

// SetOpenFunc overrides how the underlying device is opened.
func (m *Manager) SetOpenFunc(open OpenFunc) {
	m.open = open
}

// acquire returns the open device, opening it if necessary. Creation is
// serialized by the manager lock so concurrent viewers never double-open
// the device.
func (m *Manager) acquire() (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		device, err := m.open(m.deviceID)
		if err != nil {
			m.logger.Error("Failed to open camera device %d: %v", m.deviceID, err)
			return nil, ErrDeviceUnavailable
		}
		m.device = device
		m.logger.Info("📷 Camera device %d opened", m.deviceID)
	}

	m.lastAccess = time.Now()
	return m.device, nil
}

// ReadFrame reads the next frame into dst. The device read happens
// outside the lock; only open/close and the access timestamp are
// guarded. Returns ErrDeviceUnavailable if the device cannot be opened
// and ErrEndOfStream if the read fails.
func (m *Manager) ReadFrame(dst *gocv.Mat) error {
	device, err := m.acquire()
	if err != nil {
		return err
	}

	if ok := device.Read(dst); !ok || dst.Empty() {
		return ErrEndOfStream
	}

	m.mu.Lock()
	m.lastAccess = time.Now()
	m.mu.Unlock()

	return nil
}

// Open reports whether a device handle is currently held.
func (m *Manager) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device != nil
}

// Run starts the reaper ticker loop. It releases the device once it has
// been idle past the timeout, and exits on Shutdown.
func (m *Manager) Run() {
	ticker := time.NewTicker(m.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.reap()
		case <-m.done:
			return
		}
	}
}

// reap closes the device if it has been idle past the timeout.
func (m *Manager) reap() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device == nil {
		return
	}
	if time.Since(m.lastAccess) <= m.idleTimeout {
		return
	}

	if err := m.device.Close(); err != nil {
		m.logger.Error("Error closing camera device: %v", err)
	}
	m.device = nil
	m.logger.Info("📷 Camera device released due to inactivity")
}

// Shutdown stops the reaper and force-closes the device regardless of
// idle state.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		if err := m.device.Close(); err != nil {
			m.logger.Error("Error closing camera device: %v", err)
		}
		m.device = nil
		m.logger.Info("📷 Camera device released during shutdown")
	}
}
