package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const newHelp = `fatcat new -type=<format> <path>

Create an empty archive of the given format at path: just enough of a
skeleton header (a zero entry count, a signature where the format has one)
for fatcat and fatfuse to recognize and open it as that format.

Example:
  % fatcat new -type grp empty.grp
  % fatcat new -type pod empty.pod
`

func cmdnew(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("new", flag.ExitOnError)
	kind := fset.String("type", "", "archive format to create (required)")
	fset.Usage = usage(fset, newHelp)
	fset.Parse(args)

	if *kind == "" || fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	path := fset.Arg(0)

	format, err := cliutil.FormatByKind(*kind)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	werr := format.WriteHeader(f, nil)
	cerr := f.Close()
	if werr != nil {
		os.Remove(path)
		return fmt.Errorf("writing skeleton header: %w", werr)
	}
	if cerr != nil {
		return cerr
	}

	// Confirm the format parses back what we wrote.
	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return fmt.Errorf("created %s but it didn't parse back: %w", path, err)
	}
	fs.Close()
	if n := len(a.List()); n != 0 {
		return fmt.Errorf("created %s but it has %d entries, want 0", path, n)
	}
	return nil
}
