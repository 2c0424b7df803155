// Command fatcat lists, extracts, and edits retro-game FAT-style archives
// (GRP, DAT-Sango, EPF, RES, POD, DAT-Hugo, DAT-Mystic, roads.lzs) from the
// command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/retroglyph/fatarchive"

	// The concrete formats self-register via init() when imported;
	// internal/cliutil imports each by name so "new" can construct its
	// Format directly.
)

var (
	debug      = flag.Bool("debug", false, "format error messages with additional detail")
	cpuprofile = flag.String("cpuprofile", "", "path to store a CPU profile at")
)

type cmd struct {
	fn func(ctx context.Context, args []string) error
}

func funcmain() error {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	verbs := map[string]cmd{
		"list":    {cmdlist},
		"extract": {cmdextract},
		"insert":  {cmdinsert},
		"remove":  {cmdremove},
		"rename":  {cmdrename},
		"move":    {cmdmove},
		"resize":  {cmdresize},
		"new":     {cmdnew},
		"detect":  {cmddetect},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "fatcat <command> [-flags] <args>\n")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "To get help on any command, use fatcat <command> -help.\n")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "\tlist     - list an archive's entries\n")
		fmt.Fprintf(os.Stderr, "\textract  - extract entries to a directory\n")
		fmt.Fprintf(os.Stderr, "\tinsert   - add a file to an archive\n")
		fmt.Fprintf(os.Stderr, "\tremove   - delete an entry\n")
		fmt.Fprintf(os.Stderr, "\trename   - rename an entry\n")
		fmt.Fprintf(os.Stderr, "\tmove     - reposition an entry\n")
		fmt.Fprintf(os.Stderr, "\tresize   - truncate or extend an entry's stored bytes\n")
		fmt.Fprintf(os.Stderr, "\tnew      - create an empty archive\n")
		fmt.Fprintf(os.Stderr, "\tdetect   - guess an archive's format\n")
		return fmt.Errorf("no command given")
	}
	verb, rest := args[0], args[1:]
	v, ok := verbs[verb]
	if !ok {
		return fmt.Errorf("unknown command %q", verb)
	}
	ctx, canc := fatarchive.InterruptibleContext()
	defer canc()
	if err := v.fn(ctx, rest); err != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, err)
		}
		return fmt.Errorf("%s: %v", verb, err)
	}
	return fatarchive.RunAtExit()
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
