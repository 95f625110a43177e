package log

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// SetupDefaultHandler routes the root logger to stderr at the given
// verbosity. Colored terminal output is used when stderr is a tty, logfmt
// otherwise, and JSON when asJSON is set.
func SetupDefaultHandler(lvl Lvl, asJSON bool) {
	var (
		output   io.Writer = os.Stderr
		usecolor           = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		format   Format
	)
	switch {
	case asJSON:
		format = JSONFormat()
	case usecolor:
		output = colorable.NewColorableStderr()
		format = TerminalFormat(true)
	default:
		format = TerminalFormat(false)
	}
	Root().SetHandler(LvlFilterHandler(lvl, StreamHandler(output, format)))
}
