package main

import "github.com/example/go-rsvp/internal/session"

const (
	keyCtrlC  = 0x03
	keyEscape = 0x1b
)

// keyEvents translates raw terminal input into reader events. Arrow keys
// arrive as ESC [ A..D; a lone ESC is the exit key. Ctrl-C reports quit
// instead of an event and drops any input after it.
func keyEvents(b []byte, seekStep int) (evs []session.Event, quit bool) {
	for i := 0; i < len(b); i++ {
		c := b[i]

		if c == keyEscape && i+2 < len(b) && b[i+1] == '[' {
			switch b[i+2] {
			case 'A':
				evs = append(evs, session.SpeedChange(1))
			case 'B':
				evs = append(evs, session.SpeedChange(-1))
			case 'C':
				evs = append(evs, session.Seek(seekStep))
			case 'D':
				evs = append(evs, session.Seek(-seekStep))
			}
			i += 2
			continue
		}

		switch c {
		case ' ':
			evs = append(evs, session.TogglePlay())
		case '+', '=':
			evs = append(evs, session.SpeedChange(1))
		case '-', '_':
			evs = append(evs, session.SpeedChange(-1))
		case 'h':
			evs = append(evs, session.Seek(-seekStep))
		case 'l':
			evs = append(evs, session.Seek(seekStep))
		case 's':
			evs = append(evs, session.OpenSettings())
		case 'q', keyEscape:
			evs = append(evs, session.Exit())
		case keyCtrlC:
			return evs, true
		}
	}

	return evs, false
}
