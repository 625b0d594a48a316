package printer

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
)

// Green, Red, Yellow and Cyan color a value for terminal output
func Green(a ...interface{}) string  { return green(a...) }
func Red(a ...interface{}) string    { return red(a...) }
func Yellow(a ...interface{}) string { return yellow(a...) }
func Cyan(a ...interface{}) string   { return cyan(a...) }

// Success prints a green line with a check mark
func Success(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, "✅ %s\n", green(fmt.Sprintf(format, a...)))
}

// Failure prints a red line with a cross
func Failure(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, "❌ %s\n", red(fmt.Sprintf(format, a...)))
}

// Warning prints a yellow line
func Warning(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, "⚠️  %s\n", yellow(fmt.Sprintf(format, a...)))
}

// Info prints a plain line
func Info(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}

// IsTTY reports whether w is an interactive terminal
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress shows a spinner with message until the returned func is called.
// Outside a terminal the message is printed once instead.
func Progress(w io.Writer, message string) func() {
	if !IsTTY(w) {
		fmt.Fprintln(w, message)
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	_ = s.Color("bold", "green")
	s.Start()

	return func() {
		s.Stop()
	}
}
