package ui

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner wraps briandowns/spinner with our color scheme.
// It only animates when stderr is a terminal.
type Spinner struct {
	spinner *spinner.Spinner
	active  bool
}

// NewSpinner creates a new spinner with a message
func NewSpinner(message string) *Spinner {
	s := spinner.New(
		spinner.CharSets[14], // dots style
		100*time.Millisecond,
		spinner.WithColor("cyan"),
		spinner.WithSuffix(" "+message),
		spinner.WithWriter(os.Stderr),
	)
	return &Spinner{spinner: s, active: IsTerminal()}
}

// IsTerminal reports whether stderr is attached to a terminal
func IsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Start starts the spinner
func (s *Spinner) Start() {
	if s.active {
		s.spinner.Start()
	}
}

// Stop stops the spinner
func (s *Spinner) Stop() {
	s.spinner.Stop()
}

// Success stops the spinner and shows a success message
func (s *Spinner) Success(message string) {
	s.spinner.Stop()
	_, _ = successColor.Fprintf(os.Stderr, "%s %s\n", successSymbol, message)
}

// Error stops the spinner and shows an error message
func (s *Spinner) Error(message string) {
	s.spinner.Stop()
	_, _ = errorColor.Fprintf(os.Stderr, "%s %s\n", errorSymbol, message)
}

// Warning stops the spinner and shows a warning message
func (s *Spinner) Warning(message string) {
	s.spinner.Stop()
	_, _ = warningColor.Fprintf(os.Stderr, "%s %s\n", warningSymbol, message)
}

// UpdateMessage updates the spinner message while it's running
func (s *Spinner) UpdateMessage(message string) {
	s.spinner.Suffix = " " + message
}

// WithSpinner runs a function with a spinner
// Returns the spinner so you can call Success/Error on it
func WithSpinner(message string, fn func() error) error {
	s := NewSpinner(message)
	s.Start()

	err := fn()

	if err != nil {
		s.Error(message + " failed")
		return err
	}

	s.Success(message)
	return nil
}
