package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a buffer shared with the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Loading org chart...", true)
	s.Start()
	time.Sleep(50 * time.Millisecond)
	s.SetMessage("Rendering svg...")
	time.Sleep(150 * time.Millisecond)
	s.Stop()

	got := out.String()
	if !strings.Contains(got, "Loading org chart...") {
		t.Errorf("first message not drawn: %q", got)
	}
	if !strings.Contains(got, "Rendering svg...") {
		t.Errorf("updated message not drawn: %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Errorf("line not cleared: %q", got)
	}
	if s.Cancelled() {
		t.Error("plain Stop reported as cancelled")
	}
}

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Loading...", false)
	s.Start()
	s.Stop()
	if got := out.String(); got != "" {
		t.Errorf("output = %q, want none", got)
	}
}

func TestSpinnerCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	s := newSpinnerTo(ctx, io.Discard, "Loading...", true)
	s.Start()
	<-ctx.Done()
	s.Stop()
	if !s.Cancelled() {
		t.Error("spinner should report the ended context")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), io.Discard, "Loading...", true)
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	done := make(chan struct{})
	go func() {
		newSpinnerTo(context.Background(), io.Discard, "Loading...", true).Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
