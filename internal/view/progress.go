package view

import "fmt"

// Screen control sequences used when redrawing in watch mode.
const (
	ClearScreen = "\x1b[2J\x1b[H"
	ClearLine   = "\r\x1b[K"
)

// Terminal progress indicators (OSC 9;4), understood by Windows Terminal, ConEmu and others.
const (
	ProgressReset         = "\x1b]9;4;0;0;\x07"
	ProgressIndeterminate = "\x1b]9;4;3;0;\x07"
)

// ProgressError shows an error progress bar at percent.
func ProgressError(percent int) string {
	return progress(2, percent)
}

// ProgressWarning shows a warning progress bar at percent.
func ProgressWarning(percent int) string {
	return progress(4, percent)
}

func progress(state, percent int) string {
	percent = max(0, min(percent, 100))
	return fmt.Sprintf("\x1b]9;4;%d;%d;\x07", state, percent)
}
