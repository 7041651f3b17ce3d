package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

type fakeService struct {
	name    string
	initErr error
	runErr  error

	mu      sync.Mutex
	stopped bool
}

func (f *fakeService) Name() string { return f.name }
func (f *fakeService) Init() error  { return f.initErr }

func (f *fakeService) Run(ctx context.Context) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeService) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestManagerStopsOnContextDone(t *testing.T) {
	a, b := &fakeService{name: "a"}, &fakeService{name: "b"}
	m := NewManager(nopLogger{})
	m.AddService(a, b)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !a.isStopped() || !b.isStopped() {
		t.Fatal("expected every service to be stopped")
	}
}

func TestManagerInitFailureStopsStarted(t *testing.T) {
	a := &fakeService{name: "a"}
	b := &fakeService{name: "b", initErr: errors.New("no token")}
	m := NewManager(nopLogger{})
	m.AddService(a, b)

	err := m.Run(context.Background())
	if err == nil {
		t.Fatal("expected init error")
	}
	if !a.isStopped() {
		t.Fatal("initialised service should be stopped")
	}
	if b.isStopped() {
		t.Fatal("failed service should not be stopped")
	}
}

func TestManagerReturnsRunFailure(t *testing.T) {
	boom := errors.New("listen failed")
	a := &fakeService{name: "a", runErr: boom}
	m := NewManager(nopLogger{})
	m.AddService(a)

	err := m.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run error = %v, want %v", err, boom)
	}
	if !a.isStopped() {
		t.Fatal("service should be stopped after failure")
	}
}
