package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const resizeHelp = `fatcat resize [-flags] <archive> <index-or-name> <newsize>

Truncate or extend an entry's stored bytes to newsize, zero-filling any
newly added bytes.

Example:
  % fatcat resize duke3d.grp TEMP.MAP 4096
`

func cmdresize(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("resize", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	fset.Usage = usage(fset, resizeHelp)
	fset.Parse(args)

	if fset.NArg() != 3 {
		fset.Usage()
		os.Exit(2)
	}
	path, ref, sizeArg := fset.Arg(0), fset.Arg(1), fset.Arg(2)

	newSize, err := strconv.ParseInt(sizeArg, 10, 64)
	if err != nil {
		return err
	}

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	idx, err := cliutil.ResolveEntry(a, ref)
	if err != nil {
		return err
	}
	if err := a.ResizeFile(idx, newSize); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	return fs.Flush()
}
