package cli

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestAwaitExitAck_NonInteractiveNeverBlocks(t *testing.T) {
	// A pipe with no writer would block any read forever.
	r, _ := io.Pipe()

	done := make(chan struct{})
	go func() {
		awaitExitAck(r, false)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("non-interactive exit must not wait for input")
	}
}

func TestAwaitExitAck_ReturnsOnEnter(t *testing.T) {
	awaitExitAck(strings.NewReader("\n"), true)
}

func TestAwaitExitAck_ReturnsOnClosedInput(t *testing.T) {
	awaitExitAck(strings.NewReader(""), true)
}
