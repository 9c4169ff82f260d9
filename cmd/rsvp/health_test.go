package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/go-rsvp/internal/server"
	"github.com/example/go-rsvp/internal/session"
)

func TestHealthCmd(t *testing.T) {
	srv := httptest.NewServer(server.NewHandler(session.NewStore(0)))
	defer srv.Close()

	out, err := runRoot(t, "", "health", "--addr", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("health failed: %v\n%s", err, out)
	}

	if !strings.HasPrefix(out, "ok (") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestHealthCmd_Unreachable(t *testing.T) {
	if _, err := runRoot(t, "", "health", "--addr", "127.0.0.1:1", "--timeout", "1s"); err == nil {
		t.Fatal("expected error for closed port")
	}
}
