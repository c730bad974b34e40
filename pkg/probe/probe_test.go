package probe

import (
	"testing"
	"time"

	"github.com/pkg/errors"
)

type MockProbe struct {
	windowInfo    *WindowInfo
	idleInfo      *IdleInfo
	isAvailable   bool
	displayServer string
	closeError    error
}

func (m *MockProbe) GetFocusedWindow() (*WindowInfo, error) {
	return m.windowInfo, nil
}

func (m *MockProbe) GetIdleInfo() (*IdleInfo, error) {
	return m.idleInfo, nil
}

func (m *MockProbe) IsAvailable() bool {
	return m.isAvailable
}

func (m *MockProbe) GetDisplayServer() string {
	return m.displayServer
}

func (m *MockProbe) Close() error {
	return m.closeError
}

func TestMockProbe(t *testing.T) {
	var _ Probe = (*MockProbe)(nil)

	mock := &MockProbe{
		windowInfo: &WindowInfo{
			AppName:       "TestApp",
			WindowTitle:   "Test Window",
			ProcessName:   "test",
			DisplayServer: "x11",
		},
		idleInfo: &IdleInfo{
			IsLocked: false,
			IdleTime: 0,
		},
		isAvailable:   true,
		displayServer: "x11",
	}

	windowInfo, err := mock.GetFocusedWindow()
	if err != nil {
		t.Errorf("GetFocusedWindow() error: %v", err)
	}
	if windowInfo.AppName != "TestApp" {
		t.Errorf("AppName = %s, want TestApp", windowInfo.AppName)
	}

	idleInfo, err := mock.GetIdleInfo()
	if err != nil {
		t.Errorf("GetIdleInfo() error: %v", err)
	}
	if idleInfo.IsLocked {
		t.Error("IsLocked = true, want false")
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	var p Probe = Unavailable{Reason: "no display"}

	if p.IsAvailable() {
		t.Error("IsAvailable() = true, want false")
	}
	if p.GetDisplayServer() != "none" {
		t.Errorf("GetDisplayServer() = %s, want none", p.GetDisplayServer())
	}

	_, err := p.GetFocusedWindow()
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetFocusedWindow() error = %v, want ErrUnavailable", err)
	}
	_, err = p.GetIdleInfo()
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("GetIdleInfo() error = %v, want ErrUnavailable", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestIdleThresholds(t *testing.T) {
	tests := []struct {
		name      string
		info      IdleInfo
		threshold time.Duration
		wantIdle  bool
	}{
		{"no idle time", IdleInfo{IdleTime: 0}, 300 * time.Second, false},
		{"below threshold", IdleInfo{IdleTime: 299 * time.Second}, 300 * time.Second, false},
		{"equal to threshold", IdleInfo{IdleTime: 300 * time.Second}, 300 * time.Second, false},
		{"above threshold", IdleInfo{IdleTime: 301 * time.Second}, 300 * time.Second, true},
		{"locked", IdleInfo{IsLocked: true}, 300 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsIdle(tt.threshold); got != tt.wantIdle {
				t.Errorf("IsIdle(%v) = %v, want %v", tt.threshold, got, tt.wantIdle)
			}
		})
	}
}
