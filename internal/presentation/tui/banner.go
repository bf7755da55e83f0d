package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowcanvas banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _                                              ", "#818cf8"},
		{"  / _| | _____      _____ __ _ _ ____   ____ _ ___   ", "#a78bfa"},
		{" | |_| |/ _ \\ \\ /\\ / / __/ _` | '_ \\ \\ / / _` / __|  ", "#c084fc"},
		{" |  _| | (_) \\ V  V / (_| (_| | | | \\ V / (_| \\__ \\  ", "#e879f9"},
		{" |_| |_|\\___/ \\_/\\_/ \\___\\__,_|_| |_|\\_/ \\__,_|___/  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
