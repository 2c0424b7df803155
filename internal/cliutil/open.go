// Package cliutil holds the archive-opening and entry-resolution logic
// shared by cmd/fatcat and cmd/fatfuse, the way the teacher's
// internal/env and internal/repo packages centralize logic shared across
// its cmd/distri subcommands.
package cliutil

import (
	"fmt"
	"strconv"

	"github.com/retroglyph/fatarchive"
	"github.com/retroglyph/fatarchive/internal/fatfs"
	"github.com/retroglyph/fatarchive/internal/fstream"

	"github.com/retroglyph/fatarchive/formats/epf"
	"github.com/retroglyph/fatarchive/formats/grp"
	"github.com/retroglyph/fatarchive/formats/hugo"
	"github.com/retroglyph/fatarchive/formats/mystic"
	"github.com/retroglyph/fatarchive/formats/pod"
	"github.com/retroglyph/fatarchive/formats/res"
	"github.com/retroglyph/fatarchive/formats/roads"
	"github.com/retroglyph/fatarchive/formats/sango"
)

// FormatByKind maps a -type flag value to its concrete fatfs.FatFormat,
// independent of the root package's private registry: "fatcat new" needs
// to write a skeleton header before an *fatarchive.Archive can be opened
// at all, so it talks to the format directly rather than through
// fatarchive.Open.
func FormatByKind(kind string) (fatfs.FatFormat, error) {
	switch kind {
	case "grp":
		return grp.Format{}, nil
	case "sango":
		return sango.Format{}, nil
	case "epf":
		return epf.Format{}, nil
	case "res":
		return res.Format{}, nil
	case "pod":
		return pod.Format{}, nil
	case "hugo":
		return hugo.Format{}, nil
	case "mystic":
		return mystic.Format{}, nil
	case "roads":
		return roads.Format{}, nil
	default:
		return nil, fmt.Errorf("unknown archive type %q (known: %v)", kind, fatarchive.Types())
	}
}

// OpenBacking opens path as a FileStream, the random-access, splice-capable
// backing every *fatarchive.Archive reads and writes through.
func OpenBacking(path string) (*fstream.FileStream, error) {
	return fstream.OpenFile(path)
}

// OpenArchive opens path, sniffing its format via fatarchive.Detect unless
// kind is explicitly given.
func OpenArchive(path, kind string) (*fatarchive.Archive, *fstream.FileStream, error) {
	fs, err := OpenBacking(path)
	if err != nil {
		return nil, nil, err
	}
	if kind == "" {
		candidates, err := fatarchive.Detect(fs)
		if err != nil {
			fs.Close()
			return nil, nil, err
		}
		if len(candidates) == 0 {
			fs.Close()
			return nil, nil, fmt.Errorf("%s: no known format matched (pass -type explicitly)", path)
		}
		if len(candidates) > 1 && candidates[0].Confidence == candidates[1].Confidence {
			fs.Close()
			return nil, nil, fmt.Errorf("%s: ambiguous format, could be any of %v (pass -type explicitly)", path, candidates)
		}
		kind = candidates[0].Kind
	}
	a, err := fatarchive.Open(fs, kind)
	if err != nil {
		fs.Close()
		return nil, nil, err
	}
	return a, fs, nil
}

// ResolveEntry interprets ref as either a decimal index or an exact entry
// name, returning the matching index.
func ResolveEntry(a *fatarchive.Archive, ref string) (int, error) {
	if idx, err := strconv.Atoi(ref); err == nil {
		entries := a.List()
		if idx < 0 || idx >= len(entries) {
			return 0, fmt.Errorf("index %d out of range (archive has %d entries)", idx, len(entries))
		}
		return idx, nil
	}
	idx := a.Find(ref)
	if idx < 0 {
		return 0, fmt.Errorf("no entry named %q", ref)
	}
	return idx, nil
}
