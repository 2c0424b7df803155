// Command fatfuse mounts a retro-game FAT-style archive (GRP, DAT-Sango,
// EPF, RES, POD, DAT-Hugo, DAT-Mystic, roads.lzs) as a read-only FUSE file
// system, so any tool that walks a directory tree can read an archive's
// members without going through fatcat extract first.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/cliutil"
)

const help = `fatfuse [-flags] <archive> <mountpoint>

Mount archive read-only at mountpoint. Entries whose name contains a path
separator (as POD's do) appear as real nested directories. Unmount with
fusermount -u (Linux) or umount (BSD/macOS).

Example:
  % mkdir /tmp/mnt && fatfuse duke3d.grp /tmp/mnt
  % fatfuse -type pod Mortal.pod /tmp/mnt
`

var debug = flag.Bool("debug", false, "format error messages with additional detail")

func funcmain() error {
	kind := flag.String("type", "", "archive format (default: auto-detect)")
	prefetch := flag.Bool("prefetch", false, "decode every entry concurrently at mount time instead of lazily on first read")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, help)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	path, mountpoint := flag.Arg(0), flag.Arg(1)

	a, backing, err := cliutil.OpenArchive(path, *kind)
	if err != nil {
		return err
	}
	defer backing.Close()

	if err := bumpRlimitNOFILE(); err != nil {
		log.Printf("Warning: bumping RLIMIT_NOFILE failed: %v", err)
	}

	ctx, canc := fatarchive.InterruptibleContext()
	defer canc()

	fs := newFuseFS(a)
	if *prefetch {
		if err := fs.prefetch(ctx); err != nil {
			return fmt.Errorf("prefetch: %w", err)
		}
	}
	server := fuseutil.NewFileSystemServer(fs)

	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{
		FSName:   "fatfuse",
		ReadOnly: true,
		// The whole tree is built once at mount time and never changes
		// underneath the kernel, so skip the OpenDir/OpenFile round trip.
		EnableNoOpenSupport:    true,
		EnableNoOpendirSupport: true,
	})
	if err != nil {
		return fmt.Errorf("fuse.Mount: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := fuse.Unmount(mountpoint); err != nil {
			fmt.Fprintf(os.Stderr, "fuse.Unmount: %v\n", err)
		}
	}()

	if err := mfs.Join(ctx); err != nil {
		if *debug {
			return fmt.Errorf("%+v", err)
		}
		return err
	}
	return fatarchive.RunAtExit()
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
