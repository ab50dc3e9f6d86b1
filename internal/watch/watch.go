package watch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"

	"github.com/angeloszaimis/proxy-dashboard/internal/view"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	keyCtrlC    = 3
)

// Refresher runs refresh cycles against the shared view.
type Refresher interface {
	Refresh(ctx context.Context) error
	Trigger(ctx context.Context) <-chan struct{}
}

// Dashboard is the view the session paints.
type Dashboard interface {
	Page() view.Page
	Changed() <-chan struct{}
}

type Options struct {
	In  io.Reader
	Out io.Writer

	// Renderer decides whether colors are emitted. Defaults to a renderer
	// on Out.
	Renderer *lipgloss.Renderer

	// Once refreshes a single time, prints the view and returns.
	Once bool

	// Raw means In is a terminal in raw mode: output needs "\r\n" line
	// endings and the screen is cleared before each paint.
	Raw bool
}

type Session struct {
	logger    *slog.Logger
	refresher Refresher
	dashboard Dashboard
	styles    view.TextStyles
	in        io.Reader
	out       io.Writer
	once      bool
	raw       bool
}

// Run drives the session until the user quits, input ends or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	if s.once {
		if err := s.refresher.Refresh(ctx); err != nil {
			s.logger.Debug("Refresh failed", slog.Any("err", err))
		}
		return s.paint()
	}

	keys := make(chan byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go s.readKeys(keys, readErr, done)

	s.refresher.Trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.dashboard.Changed():
			if err := s.paint(); err != nil {
				return err
			}

		case key, ok := <-keys:
			if !ok {
				return <-readErr
			}

			switch key {
			case 'r', 'R', '\r', '\n':
				s.logger.Debug("Refresh requested")
				s.refresher.Trigger(ctx)
			case 'q', 'Q', keyCtrlC:
				return nil
			}
		}
	}
}

func (s *Session) readKeys(keys chan<- byte, readErr chan<- error, done <-chan struct{}) {
	defer close(keys)

	r := bufio.NewReader(s.in)
	for {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			readErr <- err
			return
		}

		select {
		case keys <- b:
		case <-done:
			return
		}
	}
}

func (s *Session) paint() error {
	out := s.out
	if s.raw {
		out = crlfWriter{w: s.out}
		if _, err := io.WriteString(out, clearScreen); err != nil {
			return err
		}
	}

	if err := view.RenderText(out, s.dashboard.Page(), s.styles); err != nil {
		return err
	}

	if !s.once {
		_, err := fmt.Fprintf(out, "\n%s\n", s.styles.Plain.Faint(true).Render("r: refresh  q: quit"))
		return err
	}

	return nil
}

func New(logger *slog.Logger, refresher Refresher, dashboard Dashboard, options Options) *Session {
	renderer := options.Renderer
	if renderer == nil {
		renderer = lipgloss.NewRenderer(options.Out)
	}

	return &Session{
		logger:    logger,
		refresher: refresher,
		dashboard: dashboard,
		styles:    view.NewTextStyles(renderer),
		in:        options.In,
		out:       options.Out,
		once:      options.Once,
		raw:       options.Raw,
	}
}
