package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Finecision ASCII banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green to teal, one shade per line.
	lines := []struct {
		text  string
		color string
	}{
		{"  _____ _                     _     _             ", "#4ade80"},
		{" |  ___(_)_ __   ___  ___ ___(_)___(_) ___  _ __  ", "#34d399"},
		{" | |_  | | '_ \\ / _ \\/ __/ _ \\ / __| |/ _ \\| '_ \\ ", "#2dd4bf"},
		{" |  _| | | | | |  __/ (_|  __/ \\__ \\ | (_) | | | |", "#22d3ee"},
		{" |_|   |_|_| |_|\\___|\\___\\___|_|___/_|\\___/|_| |_|", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
