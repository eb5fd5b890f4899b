package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Reflex ASCII banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"  ____       __ _           ", "#34d399"},
		{" |  _ \\ ___ / _| | _____  __", "#2dd4bf"},
		{" | |_) / _ \\ |_| |/ _ \\ \\/ /", "#22d3ee"},
		{" |  _ <  __/  _| |  __/>  < ", "#38bdf8"},
		{" |_| \\_\\___|_| |_|\\___/_/\\_\\", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
