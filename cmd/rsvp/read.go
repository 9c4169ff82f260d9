package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/example/go-rsvp/internal/render"
	"github.com/example/go-rsvp/internal/session"
)

func newReadCmd() *cobra.Command {
	var text string
	var file string
	var column int
	var noColor bool

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Play text word by word in the terminal",
		Long: `Play text word by word in the terminal.

When text comes from --text or --file and stdin is a terminal, the reader
takes keyboard control:

  space        play / pause
  up / +       faster
  down / -     slower
  left / h     back
  right / l    forward
  s            settings
  esc / q      close settings, then exit
  ctrl-c       quit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			input, err := readInput(text, cmd.Flags().Changed("text"), file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := session.New(input, session.Options{
				WPM:       cfg.Reader.WPM,
				SourceURL: file,
				Autoplay:  cfg.Reader.Autoplay,
				Limits:    cfg.Reader.Limits(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			view := render.NewTerminal(out,
				render.WithColumn(column),
				render.WithColor(!noColor && isTTY(out)),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interactive := (text != "" || file != "") && isTTY(os.Stdin)
			err = play(ctx, s, view, interactive)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to read (reads stdin when empty)")
	cmd.Flags().StringVar(&file, "file", "", "Read text from a file")
	cmd.Flags().IntVar(&column, "column", render.DefaultColumn, "Screen column of the anchor character")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable ANSI colour")

	return cmd
}

// play runs s to completion. Without keyboard control the player stops on
// the last word; with it, playback holds there until the reader exits.
func play(ctx context.Context, s *session.Session, r session.Renderer, interactive bool) error {
	if !interactive {
		if s.Snapshot().State == session.Idle {
			if _, err := s.Apply(session.TogglePlay()); err != nil {
				return err
			}
		}
		return session.NewPlayer(s, r).Run(ctx)
	}

	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() { _ = term.Restore(fd, old) }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := session.NewPlayer(s, r, session.WithHoldOnFinish())
	go forwardKeys(ctx, cancel, os.Stdin, p, s.Limits().SeekStep)

	return p.Run(ctx)
}

// forwardKeys feeds key presses from in to p until ctx is done or in fails.
// Ctrl-C calls quit; raw mode delivers it as a byte rather than a signal.
func forwardKeys(ctx context.Context, quit context.CancelFunc, in io.Reader, p *session.Player, seekStep int) {
	buf := make([]byte, 16)
	for {
		n, err := in.Read(buf)
		evs, stop := keyEvents(buf[:n], seekStep)
		for _, ev := range evs {
			if sendErr := p.Send(ctx, ev); sendErr != nil {
				return
			}
		}
		if stop {
			quit()
			return
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("keyboard input ended", slog.String("error", err.Error()))
			}
			return
		}
	}
}

func isTTY(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}
