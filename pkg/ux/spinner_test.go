package ux

import (
	"testing"
	"time"
)

func TestSpinner_UpdateMessageWhileRunning(t *testing.T) {
	s := NewSpinner("first phase")
	s.Start()
	defer s.Stop()

	s.UpdateMessage("second phase")
	// Let at least one frame render with the new message.
	time.Sleep(100 * time.Millisecond)

	s.mu.Lock()
	message := s.message
	s.mu.Unlock()
	if message != "second phase" {
		t.Errorf("message = %q, want the updated one", message)
	}
}

func TestSpinner_StopIsIdempotent(t *testing.T) {
	s := NewSpinner("working")
	s.Start()
	s.Stop()
	s.Stop()
}
