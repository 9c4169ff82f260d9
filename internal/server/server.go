package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cast"

	"github.com/example/go-rsvp/internal/config"
	"github.com/example/go-rsvp/internal/rsvp"
	"github.com/example/go-rsvp/internal/session"
)

const contentTypeCBOR = "application/cbor"

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes int
	workers      int
	writeTimeout time.Duration
	reader       config.ReaderConfig
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes: 1 << 20,
		workers:      8,
		writeTimeout: 10 * time.Second,
		reader:       config.DefaultConfig().Reader,
		logger:       slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent playback streams.
// Zero or less disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithWriteTimeout sets the deadline for each frame written to a playback
// stream.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// WithReader sets the default rate, limits and autoplay of new sessions.
func WithReader(r config.ReaderConfig) Option {
	return func(o *options) { o.reader = r }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	store *session.Store
	opts  options
	sem   chan struct{} // bounds concurrent playback streams
	log   *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /tokenize and the
// /sessions API backed by store.
func NewHandler(store *session.Store, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		store: store,
		opts:  opts,
		log:   opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("POST /tokenize", h.handleTokenize)
	mux.HandleFunc("GET /sessions", h.handleListSessions)
	mux.HandleFunc("POST /sessions", h.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", h.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", h.handleDeleteSession)
	mux.HandleFunc("POST /sessions/{id}/events", h.handleSessionEvent)
	mux.HandleFunc("GET /sessions/{id}/play", h.handlePlay)
	return mux
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type tokenizeRequest struct {
	Text string  `json:"text" cbor:"text"`
	WPM  float64 `json:"wpm" cbor:"wpm"`
}

type tokenizeResponse struct {
	WPM    float64      `json:"wpm" cbor:"wpm"`
	Count  int          `json:"count" cbor:"count"`
	Tokens []rsvp.Token `json:"tokens" cbor:"tokens"`
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if !h.checkTextSize(w, req.Text) {
		return
	}

	wpm, ok := h.resolveWPM(w, r, req.WPM)
	if !ok {
		return
	}

	start := time.Now()
	tokens, err := rsvp.Tokenize(req.Text, wpm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.InfoContext(r.Context(), "tokenize complete",
		slog.Int("text_len", len(req.Text)),
		slog.Int("tokens", len(tokens)),
		slog.Float64("wpm", wpm),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	h.respond(w, r, http.StatusOK, tokenizeResponse{WPM: wpm, Count: len(tokens), Tokens: tokens})
}

type createSessionRequest struct {
	Text      string  `json:"text" cbor:"text"`
	WPM       float64 `json:"wpm" cbor:"wpm"`
	SourceURL string  `json:"sourceUrl" cbor:"sourceUrl"`
	Autoplay  *bool   `json:"autoplay" cbor:"autoplay"`
}

func (h *handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if !h.checkTextSize(w, req.Text) {
		return
	}

	wpm, ok := h.resolveWPM(w, r, req.WPM)
	if !ok {
		return
	}

	autoplay := h.opts.reader.Autoplay
	if req.Autoplay != nil {
		autoplay = *req.Autoplay
	}

	s, err := h.store.Create(req.Text, session.Options{
		WPM:       wpm,
		SourceURL: req.SourceURL,
		Autoplay:  autoplay,
		Limits:    h.opts.reader.Limits(),
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	snap := s.Snapshot()
	h.log.InfoContext(r.Context(), "session created",
		slog.String("session_id", snap.ID),
		slog.Int("text_len", len(req.Text)),
		slog.Int("tokens", len(snap.Tokens)),
		slog.Float64("wpm", snap.WPM),
	)

	h.respond(w, r, http.StatusCreated, snap)
}

func (h *handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.store.List())
}

func (h *handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, s.Snapshot())
}

func (h *handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Clear(id); err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.log.InfoContext(r.Context(), "session cleared", slog.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	var ev session.Event
	if !h.decodeBody(w, r, &ev) {
		return
	}
	if ev.Type == session.EventAdvance {
		writeError(w, http.StatusBadRequest, "advance events are driven by playback")
		return
	}

	id := r.PathValue("id")
	snap, err := h.store.Update(id, ev)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	h.log.DebugContext(r.Context(), "session event",
		slog.String("session_id", id),
		slog.String("event", string(ev.Type)),
		slog.String("state", string(snap.State)),
	)

	if snap.Closed {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respond(w, r, http.StatusOK, snap)
}

// resolveWPM picks the rate for a request: ?wpm= beats the body, which beats
// the configured default.
func (h *handler) resolveWPM(w http.ResponseWriter, r *http.Request, bodyWPM float64) (float64, bool) {
	wpm := h.opts.reader.WPM
	if bodyWPM != 0 {
		wpm = bodyWPM
	}

	if q := r.URL.Query().Get("wpm"); q != "" {
		v, err := cast.ToFloat64E(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid wpm query %q", q))
			return 0, false
		}
		wpm = v
	}

	if err := rsvp.ValidateRate(wpm); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return wpm, true
}

func (h *handler) checkTextSize(w http.ResponseWriter, text string) bool {
	if len(text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return false
	}
	return true
}

// decodeBody reads a JSON or CBOR (by Content-Type) request body into v.
func (h *handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}

	var err error
	if isCBOR(r.Header.Get("Content-Type")) {
		err = cbor.NewDecoder(r.Body).Decode(v)
	} else {
		err = json.NewDecoder(r.Body).Decode(v)
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrClosed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrStoreFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, session.ErrEmptyText),
		errors.Is(err, session.ErrUnknownEvent),
		errors.Is(err, rsvp.ErrInvalidRate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("session request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// respond writes v as CBOR when the client asks for it and as JSON otherwise.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if !acceptsCBOR(r.Header.Get("Accept")) {
		writeJSON(w, status, v)
		return
	}

	data, err := cbor.Marshal(v)
	if err != nil {
		h.log.ErrorContext(r.Context(), "cbor encode failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "encode response")
		return
	}
	w.Header().Set("Content-Type", contentTypeCBOR)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func isCBOR(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == contentTypeCBOR
}

func acceptsCBOR(accept string) bool {
	for _, part := range strings.Split(accept, ",") {
		if isCBOR(strings.TrimSpace(part)) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	store           *session.Store
	shutdownTimeout time.Duration
}

// New returns a server for cfg. A nil store gets a fresh one sized by
// server.max_sessions.
func New(cfg config.Config, store *session.Store) *Server {
	if store == nil {
		store = session.NewStore(cfg.Server.MaxSessions)
	}
	return &Server{
		cfg:             cfg,
		store:           store,
		shutdownTimeout: 30 * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// Start listens on server.listen_addr and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	h := NewHandler(s.store,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithWriteTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithReader(s.cfg.Reader),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		// Playback streams are hijacked and outlive Shutdown; tie them to ctx.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	slog.Info("server listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHTTP checks that a server at addr answers /health with 200 and
// returns the version it reports.
func ProbeHTTP(ctx context.Context, addr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	var body struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("decode health response: %w", err)
	}
	return body.Version, nil
}
