package fatarchive

import (
	"context"
	"sort"
	"sync"

	"github.com/retroglyph/fatarchive/internal/fatfs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

var (
	registryMu sync.Mutex
	registry   = map[string]fatfs.FatFormat{}
)

// RegisterFormat adds a format under kind to the process-wide registry.
// Format packages (formats/grp, formats/sango, …) call this from their
// init(), the way image/png or database/sql drivers self-register when
// blank-imported; cmd/fatcat and cmd/fatfuse get every format through
// internal/cliutil, which imports each format package by name.
func RegisterFormat(kind string, format fatfs.FatFormat) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[kind] = format
}

func lookupFormat(kind string) (fatfs.FatFormat, error) {
	registryMu.Lock()
	defer registryMu.Unlock()
	f, ok := registry[kind]
	if !ok {
		return nil, xerrors.Errorf("fatarchive: unknown archive type %q (known: %v)", kind, typesLocked())
	}
	return f, nil
}

// Types returns every registered format identifier, sorted.
func Types() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	return typesLocked()
}

func typesLocked() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Candidate is one format's detection result from Detect.
type Candidate struct {
	Kind       string
	Confidence fatfs.Confidence
}

// Detect sniffs backing against every registered format concurrently (via
// errgroup, the way the teacher fans out concurrent package scans) and
// returns every format that didn't rule itself out, most confident first.
// Callers that want "open this file, whatever it is" take Detect's first
// result when exactly one DefinitelyYes candidate exists; an ambiguous
// PossiblyYes set means the caller should ask the user for an explicit
// -type flag.
func Detect(backing Backing) ([]Candidate, error) {
	registryMu.Lock()
	kinds := make([]string, 0, len(registry))
	formats := make([]fatfs.FatFormat, 0, len(registry))
	for k, f := range registry {
		kinds = append(kinds, k)
		formats = append(formats, f)
	}
	registryMu.Unlock()

	results := make([]fatfs.Confidence, len(kinds))
	g, _ := errgroup.WithContext(context.Background())
	size := backing.Size()
	for i := range kinds {
		i := i
		g.Go(func() error {
			c, err := formats[i].Detect(backing, size)
			if err != nil {
				return xerrors.Errorf("fatarchive: detect %s: %w", kinds[i], err)
			}
			results[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Candidate
	for i, c := range results {
		if c == fatfs.DefinitelyNo {
			continue
		}
		out = append(out, Candidate{Kind: kinds[i], Confidence: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}
