package camera

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"opensentry/internal/logger"
)

// fakeDevice produces solid frames and tracks whether it was closed.
type fakeDevice struct {
	mu       sync.Mutex
	closed   bool
	readFail bool
}

func (d *fakeDevice) Read(dst *gocv.Mat) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || d.readFail {
		return false
	}
	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()
	frame.CopyTo(dst)
	return true
}

func (d *fakeDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(t.TempDir())
}

func newTestManager(t *testing.T, idle, reap time.Duration) (*Manager, *int32) {
	t.Helper()
	opens := new(int32)
	m := NewManager(0, idle, reap, testLogger(t))
	m.SetOpenFunc(func(deviceID int) (Device, error) {
		atomic.AddInt32(opens, 1)
		return &fakeDevice{}, nil
	})
	return m, opens
}

func TestReadFrame_LazyOpen(t *testing.T) {
	m, opens := newTestManager(t, time.Minute, time.Minute)
	defer m.Shutdown()

	if m.Open() {
		t.Error("Device should not be open before the first read")
	}

	frame := gocv.NewMat()
	defer frame.Close()

	if err := m.ReadFrame(&frame); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !m.Open() {
		t.Error("Device should be open after a successful read")
	}
	if got := atomic.LoadInt32(opens); got != 1 {
		t.Errorf("Expected 1 open, got %d", got)
	}
}

func TestReadFrame_SingleHandleUnderConcurrency(t *testing.T) {
	m, opens := newTestManager(t, time.Minute, time.Minute)
	defer m.Shutdown()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			frame := gocv.NewMat()
			defer frame.Close()
			for j := 0; j < 10; j++ {
				if err := m.ReadFrame(&frame); err != nil {
					t.Errorf("ReadFrame failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(opens); got != 1 {
		t.Errorf("Expected a single device open under concurrent readers, got %d", got)
	}
}

func TestReadFrame_DeviceUnavailable(t *testing.T) {
	m := NewManager(0, time.Minute, time.Minute, testLogger(t))
	m.SetOpenFunc(func(deviceID int) (Device, error) {
		return nil, errors.New("no such device")
	})
	defer m.Shutdown()

	frame := gocv.NewMat()
	defer frame.Close()

	if err := m.ReadFrame(&frame); !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("Expected ErrDeviceUnavailable, got %v", err)
	}
	if m.Open() {
		t.Error("No handle should be held after a failed open")
	}
}

func TestReadFrame_EndOfStream(t *testing.T) {
	m := NewManager(0, time.Minute, time.Minute, testLogger(t))
	device := &fakeDevice{readFail: true}
	m.SetOpenFunc(func(deviceID int) (Device, error) {
		return device, nil
	})
	defer m.Shutdown()

	frame := gocv.NewMat()
	defer frame.Close()

	if err := m.ReadFrame(&frame); !errors.Is(err, ErrEndOfStream) {
		t.Errorf("Expected ErrEndOfStream, got %v", err)
	}
}

func TestReaper_ReleasesIdleDevice(t *testing.T) {
	m, _ := newTestManager(t, 50*time.Millisecond, 10*time.Millisecond)
	go m.Run()
	defer m.Shutdown()

	frame := gocv.NewMat()
	defer frame.Close()

	if err := m.ReadFrame(&frame); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if !m.Open() {
		t.Fatal("Device should be open after read")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.Open() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if m.Open() {
		t.Error("Device should have been released by the reaper")
	}
}

func TestReaper_KeepsActiveDevice(t *testing.T) {
	m, opens := newTestManager(t, 200*time.Millisecond, 20*time.Millisecond)
	go m.Run()
	defer m.Shutdown()

	frame := gocv.NewMat()
	defer frame.Close()

	// Keep polling faster than the idle timeout; the device must stay
	// open on the same handle throughout.
	for i := 0; i < 10; i++ {
		if err := m.ReadFrame(&frame); err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		time.Sleep(30 * time.Millisecond)
	}

	if !m.Open() {
		t.Error("Continuously polled device should stay open")
	}
	if got := atomic.LoadInt32(opens); got != 1 {
		t.Errorf("Expected no close/reopen thrash, got %d opens", got)
	}
}

func TestShutdown_ForceCloses(t *testing.T) {
	m, _ := newTestManager(t, time.Hour, time.Hour)

	frame := gocv.NewMat()
	defer frame.Close()

	if err := m.ReadFrame(&frame); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	m.Shutdown()
	if m.Open() {
		t.Error("Shutdown should close the device regardless of idle state")
	}

	// Shutdown is idempotent.
	m.Shutdown()
}
