package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const listHelp = `fatcat list [-flags] <archive>

List an archive's entries: index, name, stored size, real size, and any
attributes or filter applied.

Example:
  % fatcat list duke3d.grp
  % fatcat list -type epf SIMBA.EPF
`

const (
	colorReset  = "\x1b[0m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
)

func cmdlist(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("list", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	fset.Usage = usage(fset, listHelp)
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	path := fset.Arg(0)

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	color := isatty.IsTerminal(os.Stdout.Fd())
	entries := a.List()
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("#%d", e.Index)
		}
		attrs := ""
		if e.Attrs != 0 {
			attrs = " " + e.Attrs.String()
		}
		if color && e.Attrs != 0 {
			attrs = " " + colorYellow + e.Attrs.String() + colorReset
		}
		if e.Filter != "" {
			attrs += " filter=" + e.Filter
		}
		if !e.Valid {
			if color {
				fmt.Printf("%6d  %s%-20s%s  %10d  %10d  <corrupt>%s\n", e.Index, colorCyan, name, colorReset, e.StoredSize, e.RealSize, attrs)
			} else {
				fmt.Printf("%6d  %-20s  %10d  %10d  <corrupt>%s\n", e.Index, name, e.StoredSize, e.RealSize, attrs)
			}
			continue
		}
		if color {
			fmt.Printf("%6d  %s%-20s%s  %10d  %10d%s\n", e.Index, colorCyan, name, colorReset, e.StoredSize, e.RealSize, attrs)
		} else {
			fmt.Printf("%6d  %-20s  %10d  %10d%s\n", e.Index, name, e.StoredSize, e.RealSize, attrs)
		}
	}
	stat := a.Stat()
	fmt.Fprintf(os.Stderr, "%s: %d entries, %d bytes stored, %d bytes decoded\n", a.Kind(), stat.Count, stat.StoredBytes, stat.RealBytes)
	return nil
}
