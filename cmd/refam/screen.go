package main

import (
	"context"
	"fmt"
	"os"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/tinunadno/render-engine-family/pkg/render"
)

// screen is a terminal in alternate-screen mode with mouse tracking on.
type screen struct {
	term          *uv.Terminal
	width, height int
}

func openScreen() (*screen, error) {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	return &screen{term: term, width: width, height: height}, nil
}

// frameSize returns the framebuffer size that fills the terminal.
func (s *screen) frameSize() (int, int) {
	return render.TerminalResolution(s.width, s.height)
}

func (s *screen) resize(width, height int) {
	s.width, s.height = width, height
	s.term.Erase()
	s.term.Resize(width, height)
}

// toFrame converts a cell position to framebuffer pixels.
func (s *screen) toFrame(x, y int) (int, int) {
	return x, y * 2
}

// present draws fb and the overlay lines, top first and bottom last, then
// flushes the terminal.
func (s *screen) present(fb *render.Framebuffer, top, bottom string) error {
	s.term.Draw(fb)
	if top != "" {
		uv.NewStyledString(top).Draw(s.term, uv.Rect(0, 0, s.width, 1))
	}
	if bottom != "" && s.height > 1 {
		uv.NewStyledString(bottom).Draw(s.term, uv.Rect(0, s.height-1, s.width, 1))
	}
	if err := s.term.Display(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func (s *screen) close() {
	fmt.Fprint(os.Stdout, "\x1b[?1003l")
	fmt.Fprint(os.Stdout, "\x1b[?1006l")
	s.term.ExitAltScreen()
	s.term.ShowCursor()
	s.term.Shutdown(context.Background())
}
