package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

type parseProgressReporter struct {
	out     io.Writer
	enabled bool
	label   string
	start   time.Time
	spinner int
	lastLen int
}

// newParseProgressReporter draws a spinner on stderr only when stderr is a
// terminal and machine-readable output was not requested.
func newParseProgressReporter(label string, asJSON bool) *parseProgressReporter {
	fd := os.Stderr.Fd()
	enabled := (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && !asJSON
	return &parseProgressReporter{
		out:     os.Stderr,
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

func (r *parseProgressReporter) Update(file string, count, total int) {
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	file = strings.TrimSpace(file)
	if len(file) > 88 {
		file = "..." + file[len(file)-85:]
	}

	status := fmt.Sprintf("%s %s %d parsing %s", frame, r.label, count, file)
	if total > 0 {
		status = fmt.Sprintf("%s %s %d/%d parsing %s", frame, r.label, count, total, file)
	}
	r.printStatus(status)
}

func (r *parseProgressReporter) Done(count int) {
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	status := fmt.Sprintf("%s complete (%d files in %s)", r.label, count, elapsed)
	r.printStatus(status)
	fmt.Fprintln(r.out)
}

func (r *parseProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}
