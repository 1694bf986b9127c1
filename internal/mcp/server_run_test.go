package mcp

import (
	"context"
	"testing"
	"time"
)

func TestServer_Run_ServerMode_Shutdown(t *testing.T) {
	server, _ := newTestServer(t)
	server.config.Mode = "server"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
}
