// Package tui renders a wizard session in the terminal with Bubble Tea.
// It drives a wizard.Controller: every key that changes the session goes
// through the controller, and controller outcomes come back as toasts.
package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	wizard "github.com/goliatone/go-wizard"
	"github.com/goliatone/go-wizard/notify"
)

var (
	// ErrNoController is returned by New without a controller.
	ErrNoController = errors.New("tui: a controller is required")
	// ErrProgramRunning reports that Start was invoked while the program is already running.
	ErrProgramRunning = errors.New("tui: program already running")
)

// Config controls how an App is assembled.
type Config struct {
	Defaults       map[string]any
	Titles         map[string]string
	Center         *notify.Center
	Toasts         *notify.Toasts
	ProgramOptions []tea.ProgramOption
	Clipboard      func(string) error
	Clock          func() time.Time
}

// Option mutates Config during construction.
type Option func(*Config)

// WithDefaults seeds the form data passed to Controller.Start.
func WithDefaults(data map[string]any) Option {
	return func(cfg *Config) {
		cfg.Defaults = wizard.MergeData(cfg.Defaults, data)
	}
}

// WithTitles overrides the toast title per wizard id.
func WithTitles(titles map[string]string) Option {
	return func(cfg *Config) {
		cfg.Titles = titles
	}
}

// WithCenter publishes session notifications on an existing center, so
// other subscribers see them too.
func WithCenter(center *notify.Center) Option {
	return func(cfg *Config) {
		cfg.Center = center
	}
}

// WithToasts replaces the toast queue.
func WithToasts(t *notify.Toasts) Option {
	return func(cfg *Config) {
		cfg.Toasts = t
	}
}

// WithProgramOptions appends tea.Program options.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(cfg *Config) {
		cfg.ProgramOptions = append(cfg.ProgramOptions, opts...)
	}
}

// WithClipboard replaces the clipboard writer used by ctrl+y.
func WithClipboard(fn func(string) error) Option {
	return func(cfg *Config) {
		if fn != nil {
			cfg.Clipboard = fn
		}
	}
}

// WithClock sets the time source used to expire toasts.
func WithClock(now func() time.Time) Option {
	return func(cfg *Config) {
		if now != nil {
			cfg.Clock = now
		}
	}
}

// App hosts one wizard session.
type App struct {
	ctrl     *wizard.Controller
	cfg      Config
	mu       sync.Mutex
	program  *tea.Program
	inFlight bool
}

// New constructs an App for ctrl. The controller must not be started yet.
func New(ctrl *wizard.Controller, opts ...Option) (*App, error) {
	if ctrl == nil {
		return nil, ErrNoController
	}
	cfg := Config{
		Clipboard: clipboard.WriteAll,
		Clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Center == nil {
		cfg.Center = notify.NewCenter(notify.WithClock(cfg.Clock))
	}
	if cfg.Toasts == nil {
		cfg.Toasts = notify.NewToasts(notify.DefaultToastLimit, 8*time.Second)
	}
	return &App{ctrl: ctrl, cfg: cfg}, nil
}

// Start runs the session until it is submitted and dismissed, or the
// user quits. It returns the final session state.
func (a *App) Start(ctx context.Context) (wizard.State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	m, err := newModel(ctx, a.ctrl, a.cfg)
	if err != nil {
		return a.ctrl.State(), err
	}
	defer m.close()
	program := tea.NewProgram(m, a.cfg.ProgramOptions...)

	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return a.ctrl.State(), ErrProgramRunning
	}
	a.program = program
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.program = nil
		a.inFlight = false
		a.mu.Unlock()
	}()

	_, runErr := program.Run()
	return a.ctrl.State(), runErr
}

// Stop signals the running program (if any) to exit.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.program == nil {
		return nil
	}
	a.program.Quit()
	return nil
}
