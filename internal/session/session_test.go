package session

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp/cmpopts"
	"gotest.tools/assert"

	"github.com/example/go-rsvp/internal/rsvp"
	"github.com/example/go-rsvp/internal/testutil"
)

const sample = "One two three four five six seven eight nine ten."

func newTestSession(t *testing.T, autoplay bool) *Session {
	t.Helper()

	s, err := New(sample, Options{WPM: 450, Autoplay: autoplay, SourceURL: "https://example.com/a"})
	assert.NilError(t, err)
	return s
}

func TestNew(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := New("Hello world.", Options{
		SourceURL: "https://example.com",
		Autoplay:  true,
		Now:       func() time.Time { return created },
	})
	assert.NilError(t, err)

	snap := s.Snapshot()
	assert.Assert(t, snap.ID != "")
	assert.DeepEqual(t, Snapshot{
		SourceURL: "https://example.com",
		CreatedAt: created,
		RawText:   "Hello world.",
		WPM:       rsvp.DefaultWPM,
		State:     Playing,
		IsPlaying: true,
	}, snap, cmpopts.IgnoreFields(Snapshot{}, "ID", "Tokens"))

	assert.Equal(t, len(snap.Tokens), 2)
	testutil.AssertTokenInvariants(t, snap.Tokens, rsvp.DefaultWPM)
}

func TestNew_IDsAreUnique(t *testing.T) {
	a := newTestSession(t, false)
	b := newTestSession(t, false)
	assert.Assert(t, a.ID() != b.ID())
}

func TestNew_StartsIdleWithoutAutoplay(t *testing.T) {
	assert.Equal(t, newTestSession(t, false).Snapshot().State, Idle)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("  \n ", Options{})
	assert.Assert(t, errors.Is(err, ErrEmptyText))

	_, err = New("words", Options{WPM: -5})
	assert.Assert(t, errors.Is(err, rsvp.ErrInvalidRate))

	_, err = New("words", Options{Limits: Limits{MinWPM: 500, MaxWPM: 100, WPMStep: 25, SeekStep: 5}})
	assert.Assert(t, errors.Is(err, rsvp.ErrInvalidRate))
}

func TestNew_RejectsInvalidLimits(t *testing.T) {
	valid := DefaultLimits()

	tests := []struct {
		name   string
		mutate func(*Limits)
	}{
		{"zero min", func(l *Limits) { l.MinWPM = 0 }},
		{"negative min", func(l *Limits) { l.MinWPM = -100 }},
		{"zero step", func(l *Limits) { l.WPMStep = 0 }},
		{"infinite max", func(l *Limits) { l.MaxWPM = math.Inf(1) }},
		{"nan step", func(l *Limits) { l.WPMStep = math.NaN() }},
		{"zero seek step", func(l *Limits) { l.SeekStep = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := valid
			tt.mutate(&limits)

			_, err := New("one two three", Options{WPM: 450, Limits: limits})
			assert.Assert(t, err != nil)
		})
	}
}

func TestNew_ClampsStartingRate(t *testing.T) {
	fast, err := New("one two three", Options{WPM: 5000})
	assert.NilError(t, err)
	assert.Equal(t, fast.Snapshot().WPM, float64(rsvp.MaxWPM))
	assert.Equal(t, fast.Snapshot().Tokens[0].BaseDurationMs, 30.0)

	snap, err := fast.Apply(SpeedChange(1))
	assert.NilError(t, err)
	assert.Equal(t, snap.WPM, float64(rsvp.MaxWPM))

	slow, err := New("one two three", Options{WPM: 10})
	assert.NilError(t, err)
	assert.Equal(t, slow.Snapshot().WPM, float64(rsvp.MinWPM))

	snap, err = slow.Apply(SpeedChange(-10))
	assert.NilError(t, err)
	assert.Equal(t, snap.WPM, float64(rsvp.MinWPM))
	assert.Assert(t, slow.Delay() > 0)
}

func TestWatch_ClosesOnAppliedEvent(t *testing.T) {
	s := newTestSession(t, false)

	_, changed := s.Watch()
	select {
	case <-changed:
		t.Fatal("changed closed before any event")
	default:
	}

	_, err := s.Apply(Event{Type: "bogus"})
	assert.Assert(t, errors.Is(err, ErrUnknownEvent))
	select {
	case <-changed:
		t.Fatal("rejected event woke watchers")
	default:
	}

	_, err = s.Apply(TogglePlay())
	assert.NilError(t, err)
	select {
	case <-changed:
	default:
		t.Fatal("applied event did not wake watchers")
	}

	snap, next := s.Watch()
	assert.Equal(t, snap.State, Playing)
	assert.Assert(t, next != changed)
}

func TestSnapshot_ProgressAndCurrent(t *testing.T) {
	s := newTestSession(t, true)

	snap := s.Snapshot()
	assert.Equal(t, snap.Progress(), 10.0)

	tok, ok := snap.Current()
	assert.Assert(t, ok)
	assert.Equal(t, tok.Text, "One")

	for range 10 {
		snap, _ = s.Apply(Advance())
	}
	assert.Equal(t, snap.State, Finished)
	assert.Equal(t, snap.CurrentIndex, 10)
	assert.Equal(t, snap.Progress(), 100.0)

	tok, ok = snap.Current()
	assert.Assert(t, ok)
	assert.Equal(t, tok.Text, "ten.")

	_, ok = Snapshot{}.Current()
	assert.Assert(t, !ok)
}

func TestDelay_UsesCurrentRate(t *testing.T) {
	s, err := New("Stop.", Options{WPM: 600})
	assert.NilError(t, err)
	assert.Equal(t, s.Delay(), 200*time.Millisecond)

	_, err = s.Apply(SetSpeed(300))
	assert.NilError(t, err)
	assert.Equal(t, s.Delay(), 400*time.Millisecond)
}
