package session

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/example/go-rsvp/internal/rsvp"
)

// EventType names a transition of the playback state machine.
type EventType string

const (
	EventTogglePlay   EventType = "toggle-play"
	EventSeek         EventType = "seek"
	EventSpeedChange  EventType = "speed-change"
	EventOpenSettings EventType = "open-settings"
	EventExit         EventType = "exit"
	// EventAdvance is fired by the playback timer, not by users.
	EventAdvance EventType = "advance"
)

// Event is one input to the state machine.
//
// For EventSeek, Delta is the signed number of tokens to move.
// For EventSpeedChange, a positive WPM sets the rate directly; otherwise the
// rate moves by Delta steps of Limits.WPMStep.
type Event struct {
	Type  EventType `json:"type" cbor:"type"`
	Delta int       `json:"delta,omitempty" cbor:"delta,omitempty"`
	WPM   float64   `json:"wpm,omitempty" cbor:"wpm,omitempty"`
}

func TogglePlay() Event           { return Event{Type: EventTogglePlay} }
func Seek(delta int) Event        { return Event{Type: EventSeek, Delta: delta} }
func SpeedChange(steps int) Event { return Event{Type: EventSpeedChange, Delta: steps} }
func SetSpeed(wpm float64) Event  { return Event{Type: EventSpeedChange, WPM: wpm} }
func OpenSettings() Event         { return Event{Type: EventOpenSettings} }
func Exit() Event                 { return Event{Type: EventExit} }
func Advance() Event              { return Event{Type: EventAdvance} }

// Apply runs ev through the state machine and returns the resulting state.
// Events that make no sense in the current state (seeking while the
// settings panel is open, advancing while paused) are ignored without error.
func (s *Session) Apply(ev Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshot(), ErrClosed
	}

	switch ev.Type {
	case EventTogglePlay:
		s.togglePlay()
	case EventAdvance:
		s.advance()
	case EventSeek:
		s.seek(ev.Delta)
	case EventSpeedChange:
		if err := s.changeSpeed(ev); err != nil {
			return s.snapshot(), err
		}
	case EventOpenSettings:
		s.toggleSettings()
	case EventExit:
		if s.state == Settings {
			s.closeSettings()
		} else {
			s.closed = true
		}
	default:
		return s.snapshot(), fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}

	s.notify()
	return s.snapshot(), nil
}

func (s *Session) togglePlay() {
	switch s.state {
	case Idle, Paused:
		s.state = Playing
	case Playing:
		s.state = Paused
	}
}

func (s *Session) advance() {
	if s.state != Playing {
		return
	}
	s.index++
	if s.index >= len(s.tokens) {
		s.index = len(s.tokens)
		s.state = Finished
	}
}

func (s *Session) seek(delta int) {
	if s.state == Settings {
		return
	}
	s.index = lo.Clamp(s.index+delta, 0, len(s.tokens)-1)
	if s.state == Finished {
		s.state = Paused
	}
}

func (s *Session) changeSpeed(ev Event) error {
	wpm := s.wpm + float64(ev.Delta)*s.limits.WPMStep
	if ev.WPM != 0 {
		if err := rsvp.ValidateRate(ev.WPM); err != nil {
			return err
		}
		wpm = ev.WPM
	}
	s.wpm = lo.Clamp(wpm, s.limits.MinWPM, s.limits.MaxWPM)
	return nil
}

func (s *Session) toggleSettings() {
	if s.state == Settings {
		s.closeSettings()
		return
	}
	s.beforeSettings = s.state
	s.state = Settings
}

func (s *Session) closeSettings() {
	s.state = s.beforeSettings
	if s.state == Playing {
		s.state = Paused
	}
}
