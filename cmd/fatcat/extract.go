package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const extractHelp = `fatcat extract [-flags] <archive> <outdir>

Extract every entry of an archive into outdir, decoding each entry's filter
(if any) as it is read. Nested folder entries (POD) are recursed into and
written under their own subdirectory.

Example:
  % fatcat extract duke3d.grp ./out
  % fatcat extract -type pod Mortal.pod ./out
`

func cmdextract(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("extract", flag.ExitOnError)
	kind := fset.String("type", "", "archive format (default: auto-detect)")
	fset.Usage = usage(fset, extractHelp)
	fset.Parse(args)

	if fset.NArg() != 2 {
		fset.Usage()
		os.Exit(2)
	}
	path := fset.Arg(0)
	outdir := fset.Arg(1)

	a, fs, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer fs.Close()

	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return err
	}
	return extractEntries(a, a.List(), outdir)
}

func extractEntries(a *fatarchive.Archive, entries []fatarchive.Entry, outdir string) error {
	for _, e := range entries {
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("entry-%d", e.Index)
		}
		name = strings.ReplaceAll(name, string(filepath.Separator), "_")

		if e.Attrs&fatarchive.AttrFolder != 0 {
			children, err := a.OpenFolder(e.Index)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			sub := filepath.Join(outdir, name)
			if err := os.MkdirAll(sub, 0o755); err != nil {
				return err
			}
			if err := extractEntries(a, children, sub); err != nil {
				return err
			}
			continue
		}
		if !e.Valid {
			fmt.Fprintf(os.Stderr, "skipping corrupt entry %s\n", name)
			continue
		}

		r, err := a.OpenEntry(e.Index)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		f, err := os.Create(filepath.Join(outdir, name))
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(f, r)
		closeErr := f.Close()
		if copyErr != nil {
			return fmt.Errorf("%s: %w", name, copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("%s: %w", name, closeErr)
		}
	}
	return nil
}
