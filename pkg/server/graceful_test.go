package server

import (
	"errors"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGracefulServerReloadViaSignal(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler())

	reloaded := make(chan struct{}, 1)
	gs.SetReloadFunc(func() error {
		reloaded <- struct{}{}
		return nil
	})

	go func() {
		if err := gs.Start(); err != nil {
			t.Logf("Server stopped: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("Failed to send SIGHUP: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Error("Reload func was not called after SIGHUP")
	}

	if gs.IsShuttingDown() {
		t.Error("Server should not be shutting down after SIGHUP")
	}

	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
}

func TestGracefulServerReload(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler())

	called := false
	gs.SetReloadFunc(func() error {
		called = true
		return nil
	})

	if err := gs.Reload(); err != nil {
		t.Errorf("Reload() error = %v", err)
	}
	if !called {
		t.Error("Reload func was not called")
	}
}

func TestGracefulServerReloadError(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler())

	wantErr := errors.New("document rebuild failed")
	gs.SetReloadFunc(func() error {
		return wantErr
	})

	if err := gs.Reload(); !errors.Is(err, wantErr) {
		t.Errorf("Reload() error = %v, want %v", err, wantErr)
	}
}

func TestGracefulServerReloadWithoutFunc(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler())

	if err := gs.Reload(); err != nil {
		t.Errorf("Reload() without func should be a no-op, got %v", err)
	}
}

func TestGracefulServerShutdownIdempotent(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler())

	go func() {
		if err := gs.Start(); err != nil {
			t.Logf("Server stopped: %v", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("First shutdown error: %v", err)
	}
	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("Second shutdown should be a no-op, got %v", err)
	}
	if !gs.IsShuttingDown() {
		t.Error("IsShuttingDown should report true after Shutdown")
	}

	select {
	case <-gs.ShutdownChannel():
	default:
		t.Error("ShutdownChannel should be closed after Shutdown")
	}
}
