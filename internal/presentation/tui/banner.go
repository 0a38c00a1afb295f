package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the simulator banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"   __ _                 ", "#34d399"},
		{"  / _| |_   ___  _____  ", "#2dd4bf"},
		{" | |_| | | | \\ \\/ / _ \\ ", "#22d3ee"},
		{" |  _| | |_| |>  < (_) |", "#38bdf8"},
		{" |_| |_|\\__,_/_/\\_\\___/ ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// SystemStyle returns a formatter that dims system lines and marks them with a bullet.
func SystemStyle() func(string) string {
	p := termenv.ColorProfile()
	return func(s string) string {
		return termenv.String("• " + s).Foreground(p.Color("#94a3b8")).Italic().String()
	}
}
