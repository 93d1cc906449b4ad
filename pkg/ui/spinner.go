package ui

import (
	"time"

	"github.com/briandowns/spinner"
)

// Spinner marks a phase with no known length, such as walking the feed.
// It only animates on a terminal.
type Spinner struct {
	s      *spinner.Spinner
	active bool
}

// NewSpinner creates a stopped spinner with msg as its suffix
func NewSpinner(msg string) *Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(Out))
	s.Suffix = " " + msg
	return &Spinner{s: s}
}

// Start begins animating unless output is redirected or quiet
func (sp *Spinner) Start() {
	if sp.active || IsQuietMode() || !IsTerminal(Out) {
		return
	}
	sp.active = true
	sp.s.Start()
}

// Update replaces the message shown next to the spinner
func (sp *Spinner) Update(msg string) {
	sp.s.Lock()
	sp.s.Suffix = " " + msg
	sp.s.Unlock()
}

// Stop clears the spinner line
func (sp *Spinner) Stop() {
	if !sp.active {
		return
	}
	sp.active = false
	sp.s.Stop()
}

// Pause stops the animation so that a full line can be printed, and
// returns a function that resumes it
func (sp *Spinner) Pause() func() {
	if !sp.active {
		return func() {}
	}
	sp.Stop()
	return sp.Start
}
