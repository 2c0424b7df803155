package main

import (
	"context"
	"flag"
	"os"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const removeHelp = `fatcat remove [-flags] <archive> <index-or-name>

Delete an entry, identified by its index or exact name.

Example:
  % fatcat remove duke3d.grp TEMP.MAP
  % fatcat remove duke3d.grp 3
`

func cmdremove(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("remove", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	fset.Usage = usage(fset, removeHelp)
	fset.Parse(args)

	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	path, ref := fset.Arg(0), fset.Arg(1)

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	idx, err := cliutil.ResolveEntry(a, ref)
	if err != nil {
		return err
	}
	if err := a.RemoveFile(idx); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	return fs.Flush()
}
