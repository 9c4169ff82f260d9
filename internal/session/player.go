package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/go-rsvp/internal/rsvp"
)

// Frame is what a renderer shows after every state change.
type Frame struct {
	SessionID string     `json:"sessionId"`
	Index     int        `json:"index"`
	Total     int        `json:"total"`
	Token     rsvp.Token `json:"token"`
	WPM       float64    `json:"wpm"`
	State     State      `json:"state"`
	Progress  float64    `json:"progress"`
	Closed    bool       `json:"closed"`
}

// FrameOf builds the frame for snap.
func FrameOf(snap Snapshot) Frame {
	tok, _ := snap.Current()
	return Frame{
		SessionID: snap.ID,
		Index:     snap.CurrentIndex,
		Total:     len(snap.Tokens),
		Token:     tok,
		WPM:       snap.WPM,
		State:     snap.State,
		Progress:  snap.Progress(),
		Closed:    snap.Closed,
	}
}

// Renderer displays frames. An error from Render stops playback.
type Renderer interface {
	Render(Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame) error

func (f RendererFunc) Render(fr Frame) error { return f(fr) }

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithTimer replaces time.After as the source of advance ticks.
func WithTimer(after func(time.Duration) <-chan time.Time) PlayerOption {
	return func(p *Player) { p.after = after }
}

// WithHoldOnFinish keeps Run alive after the last token so that the reader
// can still seek back. Run then only returns on exit or cancellation.
func WithHoldOnFinish() PlayerOption {
	return func(p *Player) { p.hold = true }
}

// WithPlayerLogger sets the logger used for rejected events.
func WithPlayerLogger(l *slog.Logger) PlayerOption {
	return func(p *Player) { p.log = l }
}

// Player drives one session: it waits out each token's duration at the
// session's current rate, advances, and renders every change. Changes take
// effect immediately and restart the current token's timer, whether they
// arrive through Send or are applied to the session by someone else.
// Rejected events leave the timer running.
type Player struct {
	sess   *Session
	render Renderer
	events chan Event
	after  func(time.Duration) <-chan time.Time
	hold   bool
	log    *slog.Logger
}

// NewPlayer returns a player for s rendering to r.
func NewPlayer(s *Session, r Renderer, opts ...PlayerOption) *Player {
	p := &Player{
		sess:   s,
		render: r,
		events: make(chan Event),
		after:  time.After,
		log:    slog.Default(),
	}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

// Send delivers ev to a running player. It blocks until Run accepts the
// event or ctx is done.
func (p *Player) Send(ctx context.Context, ev Event) error {
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run plays the session until it finishes, is closed, or ctx is cancelled.
// It returns ctx.Err() on cancellation and nil otherwise.
func (p *Player) Run(ctx context.Context) error {
	snap, changed := p.sess.Watch()
	if err := p.render.Render(FrameOf(snap)); err != nil {
		return err
	}

	var tick <-chan time.Time
	for {
		if snap.Closed || (snap.State == Finished && !p.hold) {
			return nil
		}

		if snap.State != Playing {
			tick = nil
		} else if tick == nil {
			tick = p.after(p.sess.Delay())
		}

		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			_, err = p.sess.advanceFrom(snap.CurrentIndex)
		case ev := <-p.events:
			_, err = p.sess.Apply(ev)
		case <-changed:
		}

		if errors.Is(err, ErrClosed) {
			return nil
		}
		if err != nil {
			p.log.WarnContext(ctx, "event rejected",
				slog.String("session_id", snap.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		tick = nil
		snap, changed = p.sess.Watch()
		if err := p.render.Render(FrameOf(snap)); err != nil {
			return err
		}
	}
}
