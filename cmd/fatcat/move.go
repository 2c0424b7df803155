package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const moveHelp = `fatcat move [-flags] <archive> <from> <to>

Reposition entry from (index or name) so it occupies index to. Implemented
as a remove-then-reinsert of the entry's raw stored bytes, so it is not
atomic: an interrupted move can leave the entry missing.

Example:
  % fatcat move duke3d.grp TEMP.MAP 0
  % fatcat move duke3d.grp 5 0
`

func cmdmove(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("move", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	fset.Usage = usage(fset, moveHelp)
	fset.Parse(args)

	if fset.NArg() != 3 {
		fset.Usage()
		os.Exit(2)
	}
	path, fromRef, toRef := fset.Arg(0), fset.Arg(1), fset.Arg(2)

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	from, err := cliutil.ResolveEntry(a, fromRef)
	if err != nil {
		return err
	}

	// to is tried as a plain index first; anything that is not a valid index
	// goes to cliutil.ResolveEntry, which resolves names and reports
	// out-of-range numbers.
	to, err := strconv.Atoi(toRef)
	if err != nil || to < 0 || to >= len(a.List()) {
		to, err = cliutil.ResolveEntry(a, toRef)
		if err != nil {
			return err
		}
	}

	if err := a.MoveFile(from, to); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	return fs.Flush()
}
