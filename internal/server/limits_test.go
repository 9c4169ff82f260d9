package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/example/go-rsvp/internal/server"
	"github.com/example/go-rsvp/internal/session"
)

// ---------------------------------------------------------------------------
// Request limits
// ---------------------------------------------------------------------------

func TestOversizedTextRejectedAs413(t *testing.T) {
	h, _ := newTestHandler(server.WithMaxTextBytes(10))

	bigText := strings.Repeat("x", 11)

	for _, target := range []string{"/tokenize", "/sessions"} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, target, `{"text":"`+bigText+`"}`)
			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("want 413, got %d", rec.Code)
			}

			if body := decode[map[string]string](t, rec); body["error"] == "" {
				t.Error("want non-empty error field")
			}
		})
	}
}

func TestTextAtExactLimitIsAccepted(t *testing.T) {
	h, _ := newTestHandler(server.WithMaxTextBytes(5))

	rec := do(t, h, http.MethodPost, "/tokenize", `{"text":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestPlayStreams_BoundedByWorkers(t *testing.T) {
	store := session.NewStore(0)
	srv := httptest.NewServer(server.NewHandler(store, server.WithWorkers(1)))
	defer srv.Close()

	s, err := store.Create("one two three", session.Options{})
	require.NoError(t, err)

	url := wsURL(srv, s.ID())

	first, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer first.Close()

	// The first frame proves the stream holds its slot.
	var frame session.Frame
	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, first.ReadJSON(&frame))

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestOversizedText_CustomLimitDoesNotAffectEvents(t *testing.T) {
	h, _ := newTestHandler(server.WithMaxTextBytes(3))

	rec := do(t, h, http.MethodPost, "/sessions", `{"text":"`+strings.Repeat("y", 3)+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d", rec.Code)
	}

	snap := decode[session.Snapshot](t, rec)

	rec = do(t, h, http.MethodPost, "/sessions/"+snap.ID+"/events", `{"type":"open-settings"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
