package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// formatter colours terminal output and falls back to plain decorations
// when colour is off.
type formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

func (f formatter) Sprint(a ...any) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

func (f formatter) Sprintf(format string, a ...any) string {
	return f.Sprint(fmt.Sprintf(format, a...))
}

func noColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return true
	}
	return color.NoColor
}

var (
	uiSuccess   = formatter{color.New(color.FgGreen), "", ""}
	uiWarning   = formatter{color.New(color.FgYellow), "", ""}
	uiError     = formatter{color.New(color.FgRed), "", ""}
	uiHighlight = formatter{color.New(color.FgCyan), "'", "'"}
	uiMuted     = formatter{color.New(color.FgHiBlack), "(", ")"}
)

// startSpinner shows progress on w while a blob is in flight. It does
// nothing unless w is a terminal.
func startSpinner(w io.Writer, message string) (stop func()) {
	f, ok := w.(*os.File)
	if !ok || !isTerminal(int(f.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = " " + message
	_ = s.Color("cyan")
	s.Start()
	return s.Stop
}
