package main

import (
	"context"
	"flag"
	"os"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const renameHelp = `fatcat rename [-flags] <archive> <index-or-name> <newname>

Rename an entry, identified by its index or exact current name.

Example:
  % fatcat rename duke3d.grp TEMP.MAP FINAL.MAP
`

func cmdrename(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("rename", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	fset.Usage = usage(fset, renameHelp)
	fset.Parse(args)

	if fset.NArg() != 3 {
		fset.Usage()
		os.Exit(2)
	}
	path, ref, newName := fset.Arg(0), fset.Arg(1), fset.Arg(2)

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	idx, err := cliutil.ResolveEntry(a, ref)
	if err != nil {
		return err
	}
	if err := a.RenameFile(idx, newName); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	return fs.Flush()
}
