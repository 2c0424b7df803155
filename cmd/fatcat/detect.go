package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const detectHelp = `fatcat detect <path>

Sniff path against every registered format and print each candidate along
with its confidence, most confident first.

Example:
  % fatcat detect mystery.dat
`

func cmddetect(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("detect", flag.ExitOnError)
	fset.Usage = usage(fset, detectHelp)
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		os.Exit(2)
	}
	path := fset.Arg(0)

	fs, err := cliutil.OpenBacking(path)
	if err != nil {
		return err
	}
	defer fs.Close()

	candidates, err := fatarchive.Detect(fs)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Println("no known format matched")
		return nil
	}
	for _, c := range candidates {
		fmt.Printf("%-10s %v\n", c.Kind, c.Confidence)
	}
	return nil
}
