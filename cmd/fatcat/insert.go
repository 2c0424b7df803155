package main

import (
	"context"
	"flag"
	"os"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const insertHelp = `fatcat insert [-flags] <archive> <name> <datafile>

Insert datafile's contents into archive as a new entry named name, at the
position given by -at (default: append at the end). The bytes are taken
as-is; no filter is applied, matching InsertFile's stored-bytes contract.

Example:
  % fatcat insert duke3d.grp NEWART.ART newart.bin
  % fatcat insert -at 0 duke3d.grp FIRST.MAP first.bin
`

func cmdinsert(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("insert", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	at := fset.Int("at", -1, "index to insert at (default: append)")
	fset.Usage = usage(fset, insertHelp)
	fset.Parse(args)

	if fset.NArg() != 3 {
		fset.Usage()
		os.Exit(2)
	}
	path, name, datapath := fset.Arg(0), fset.Arg(1), fset.Arg(2)

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	data, err := os.ReadFile(datapath)
	if err != nil {
		return err
	}

	idx := *at
	if idx < 0 {
		idx = len(a.List())
	}
	if err := a.InsertFile(idx, name, data); err != nil {
		return err
	}
	if err := a.Flush(); err != nil {
		return err
	}
	return fs.Flush()
}
