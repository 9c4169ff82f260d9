package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/example/go-rsvp/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// errStreamClosed marks the normal end of a playback stream.
var errStreamClosed = errors.New("playback stream closed")

// handlePlay streams a session over a WebSocket. The server pushes a frame
// for every state change; the client sends events (toggle-play, seek,
// speed-change, open-settings, exit) as JSON messages.
func (h *handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := h.store.Get(id)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	// Streams hold a worker slot for their whole lifetime, so a full pool
	// is reported immediately instead of queueing.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		default:
			writeError(w, http.StatusServiceUnavailable, "too many playback streams")
			return
		}
		defer func() { <-h.sem }()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("session_id", id),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	start := time.Now()
	h.log.InfoContext(r.Context(), "playback started", slog.String("session_id", id))

	err = h.stream(r.Context(), conn, s)

	snap := s.Snapshot()
	if snap.Closed {
		_ = h.store.Clear(id)
	}

	attrs := []any{
		slog.String("session_id", id),
		slog.Int("index", snap.CurrentIndex),
		slog.String("state", string(snap.State)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if err != nil && !errors.Is(err, errStreamClosed) && !errors.Is(err, context.Canceled) {
		h.log.WarnContext(r.Context(), "playback ended with error", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	h.log.InfoContext(r.Context(), "playback ended", attrs...)
}

func (h *handler) stream(ctx context.Context, conn *websocket.Conn, s *session.Session) error {
	render := session.RendererFunc(func(f session.Frame) error {
		if h.opts.writeTimeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.writeTimeout))
		}
		return conn.WriteJSON(f)
	})

	player := session.NewPlayer(s, render,
		session.WithHoldOnFinish(),
		session.WithPlayerLogger(h.log),
	)

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})

	g.Go(func() error {
		err := player.Run(ctx)
		close(done)
		if err == nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		// Closing the connection unblocks the reader below.
		_ = conn.Close()
		if err == nil {
			return errStreamClosed
		}
		return err
	})

	g.Go(func() error {
		for {
			var ev session.Event
			if err := conn.ReadJSON(&ev); err != nil {
				select {
				case <-done:
					return nil
				default:
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return errStreamClosed
				}
				return err
			}
			if ev.Type == session.EventAdvance {
				continue
			}
			if err := player.Send(ctx, ev); err != nil {
				return err
			}
		}
	})

	return g.Wait()
}
