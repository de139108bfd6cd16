package command

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	conerr "sshconsole/internal/errors"
	"sshconsole/util"
)

// NewFlagSet returns a flag set for a free-form command.  Usage and
// diagnostics go to w with CRLF line endings; "-h" makes Parse return
// flag.ErrHelp after printing usage.
func NewFlagSet(name string, w io.Writer) *flag.FlagSet {
	out := util.NewCRLFWriter(w)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "usage: %s [options] [args]\n\noptions:\n", name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseFlags parses args into fs.  Help requests and parse errors are
// reported on the flag set's output and turned into ErrExit so the
// command ends quietly.
func ParseFlags(fs *flag.FlagSet, w io.Writer, args []string) error {
	err := fs.Parse(args)
	switch {
	case err == nil:
		return nil
	case conerr.Is(err, flag.ErrHelp):
		return ErrExit
	}
	fmt.Fprintf(util.NewCRLFWriter(w), "error: %v\n", err)
	fs.Usage()
	return ErrExit
}
