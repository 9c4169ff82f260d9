// Package session owns reading sessions: a token sequence plus playback
// position, rate and state. Sessions are explicit values handed between the
// playback driver and whatever renders them; there is no process-wide
// current session.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/samber/lo"

	"github.com/example/go-rsvp/internal/rsvp"
	"github.com/example/go-rsvp/internal/text"
)

var (
	// ErrEmptyText is returned when a session is created from text with no words.
	ErrEmptyText = text.ErrEmptyText
	// ErrClosed is returned for events applied after an exit.
	ErrClosed = errors.New("session closed")
	// ErrUnknownEvent is returned for event types the state machine does not know.
	ErrUnknownEvent = errors.New("unknown event")
)

// State is a playback state.
type State string

const (
	Idle     State = "idle"
	Playing  State = "playing"
	Paused   State = "paused"
	Settings State = "settings"
	Finished State = "finished"
)

// Limits bound the reading rate and seek distance.
type Limits struct {
	MinWPM   float64
	MaxWPM   float64
	WPMStep  float64
	SeekStep int
}

// DefaultLimits returns the limits of the reader overlay.
func DefaultLimits() Limits {
	return Limits{
		MinWPM:   rsvp.MinWPM,
		MaxWPM:   rsvp.MaxWPM,
		WPMStep:  rsvp.WPMStep,
		SeekStep: rsvp.SeekStep,
	}
}

// Options configure New.
type Options struct {
	WPM       float64 // 0 means rsvp.DefaultWPM
	SourceURL string
	Autoplay  bool
	Limits    Limits // zero value means DefaultLimits()
	Now       func() time.Time
}

// Session is one reading of one text. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	sourceURL string
	createdAt time.Time
	rawText   string
	tokens    []rsvp.Token
	limits    Limits

	index          int
	wpm            float64
	state          State
	beforeSettings State
	closed         bool

	// changed is closed and replaced after every applied event.
	changed chan struct{}
}

// Snapshot is a point-in-time copy of a Session. Tokens is shared with the
// session and must be treated as read-only.
type Snapshot struct {
	ID           string       `json:"id" cbor:"id"`
	SourceURL    string       `json:"sourceUrl" cbor:"sourceUrl"`
	CreatedAt    time.Time    `json:"createdAt" cbor:"createdAt"`
	RawText      string       `json:"rawText" cbor:"rawText"`
	Tokens       []rsvp.Token `json:"tokens" cbor:"tokens"`
	CurrentIndex int          `json:"currentIndex" cbor:"currentIndex"`
	WPM          float64      `json:"wpm" cbor:"wpm"`
	State        State        `json:"state" cbor:"state"`
	IsPlaying    bool         `json:"isPlaying" cbor:"isPlaying"`
	Closed       bool         `json:"closed" cbor:"closed"`
}

// Progress returns the reading progress in percent, counting the current
// token as read.
func (s Snapshot) Progress() float64 {
	if len(s.Tokens) == 0 {
		return 0
	}
	p := float64(s.CurrentIndex+1) / float64(len(s.Tokens)) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Current returns the token at CurrentIndex, or the last token once
// playback has run past the end.
func (s Snapshot) Current() (rsvp.Token, bool) {
	switch {
	case len(s.Tokens) == 0:
		return rsvp.Token{}, false
	case s.CurrentIndex < len(s.Tokens):
		return s.Tokens[s.CurrentIndex], true
	default:
		return s.Tokens[len(s.Tokens)-1], true
	}
}

// New tokenizes raw at the requested rate and returns a session positioned
// on the first token. The starting rate is clamped into the limits.
func New(raw string, opts Options) (*Session, error) {
	if _, err := text.Normalize(raw); err != nil {
		return nil, err
	}

	limits := opts.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits()
	}
	if err := limits.validate(); err != nil {
		return nil, err
	}

	wpm := opts.WPM
	if wpm == 0 {
		wpm = rsvp.DefaultWPM
	}
	if err := rsvp.ValidateRate(wpm); err != nil {
		return nil, err
	}
	wpm = lo.Clamp(wpm, limits.MinWPM, limits.MaxWPM)

	tokens, err := rsvp.Tokenize(raw, wpm)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	state := Idle
	if opts.Autoplay {
		state = Playing
	}

	return &Session{
		id:        xid.New().String(),
		sourceURL: opts.SourceURL,
		createdAt: now(),
		rawText:   raw,
		tokens:    tokens,
		limits:    limits,
		wpm:       wpm,
		state:     state,
		changed:   make(chan struct{}),
	}, nil
}

func (l Limits) validate() error {
	for _, wpm := range []float64{l.MinWPM, l.MaxWPM, l.WPMStep} {
		if err := rsvp.ValidateRate(wpm); err != nil {
			return err
		}
	}
	if l.MinWPM > l.MaxWPM {
		return fmt.Errorf("%w: min %v above max %v", rsvp.ErrInvalidRate, l.MinWPM, l.MaxWPM)
	}
	if l.SeekStep <= 0 {
		return fmt.Errorf("seek step must be positive, got %d", l.SeekStep)
	}
	return nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Limits returns the rate and seek limits the session was created with.
func (s *Session) Limits() Limits { return s.limits }

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Watch returns the current state together with a channel that is closed
// on the next applied event, whoever applies it.
func (s *Session) Watch() (Snapshot, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), s.changed
}

// notify wakes every watcher. Callers hold s.mu.
func (s *Session) notify() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:           s.id,
		SourceURL:    s.sourceURL,
		CreatedAt:    s.createdAt,
		RawText:      s.rawText,
		Tokens:       s.tokens,
		CurrentIndex: s.index,
		WPM:          s.wpm,
		State:        s.state,
		IsPlaying:    s.state == Playing,
		Closed:       s.closed,
	}
}

// advanceFrom advances past index i if the session is still playing it.
// Players sharing a session each run a timer; only the first tick for a
// given token moves the position.
func (s *Session) advanceFrom(i int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshot(), ErrClosed
	}
	if s.index == i && s.state == Playing {
		s.advance()
		s.notify()
	}
	return s.snapshot(), nil
}

// Delay returns how long the current token stays on screen at the current
// rate. It is zero when there is nothing left to show.
func (s *Session) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.tokens) {
		return 0
	}
	return s.tokens[s.index].DurationAt(s.wpm)
}
