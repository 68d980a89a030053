package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`     _         _`, "#34d399"},
	{`    / \   _ __| |__   ___  _ __`, "#10b981"},
	{`   / _ \ | '__| '_ \ / _ \| '__|`, "#059669"},
	{`  / ___ \| |  | |_) | (_) | |`, "#047857"},
	{` /_/   \_\_|  |_.__/ \___/|_|`, "#065f46"},
}

// PrintBanner writes the arbor banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
