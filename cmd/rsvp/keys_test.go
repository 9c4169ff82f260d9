package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/go-rsvp/internal/session"
)

func TestKeyEvents(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     []session.Event
		wantQuit bool
	}{
		{"space toggles", " ", []session.Event{session.TogglePlay()}, false},
		{"arrow up", "\x1b[A", []session.Event{session.SpeedChange(1)}, false},
		{"arrow down", "\x1b[B", []session.Event{session.SpeedChange(-1)}, false},
		{"arrow right", "\x1b[C", []session.Event{session.Seek(5)}, false},
		{"arrow left", "\x1b[D", []session.Event{session.Seek(-5)}, false},
		{"lone escape exits", "\x1b", []session.Event{session.Exit()}, false},
		{"ctrl-c quits", "\x03", nil, true},
		{"ctrl-c drops later keys", "s\x03 q", []session.Event{session.OpenSettings()}, true},
		{"settings", "s", []session.Event{session.OpenSettings()}, false},
		{"letters", "hl+-q", []session.Event{
			session.Seek(-5), session.Seek(5),
			session.SpeedChange(1), session.SpeedChange(-1),
			session.Exit(),
		}, false},
		{"burst", " \x1b[C\x1b[C ", []session.Event{
			session.TogglePlay(), session.Seek(5), session.Seek(5), session.TogglePlay(),
		}, false},
		{"unknown keys ignored", "xyz\x1b[Z", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, quit := keyEvents([]byte(tt.in), 5)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("keyEvents(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
			if quit != tt.wantQuit {
				t.Errorf("keyEvents(%q) quit = %v; want %v", tt.in, quit, tt.wantQuit)
			}
		})
	}
}
