package fatfs

import "time"

// Entry describes one file held in a FAT-style archive's entry table. Every
// format adapter fills these fields from its own on-disk header layout, and
// every field here is something the generic engine (insert/remove/rename/
// move/resize) needs to reason about without knowing that layout.
type Entry struct {
	// Index is this entry's position in the archive's entry table. It
	// changes when entries are inserted, removed, or moved.
	Index int

	// Offset is the byte offset of this entry's data within the archive's
	// backing stream, header included when HeaderLen > 0.
	Offset int64

	// HeaderLen is the length of a per-entry inline header stored
	// immediately before the entry's data (RES); zero for formats
	// whose metadata lives entirely in a separate FAT region.
	HeaderLen int64

	// StoredSize is the number of bytes the entry occupies on disk,
	// post-filter (e.g. the compressed size).
	StoredSize int64

	// RealSize is the entry's logical, decoded size. Equal to StoredSize
	// when no filter is applied.
	RealSize int64

	// Name is the entry's filename as the format stores it. Nameless
	// formats (DAT-Sango) leave this empty and reject RenameFile.
	Name string

	// Type is a format-specific content-type tag (often empty); formats
	// that infer type from extension or header byte use it here.
	Type string

	// Attrs is a bitmask of attribute flags the format understands; see
	// the Attr* constants below. Use SupportedAttributes to learn which
	// bits a given format adapter honors.
	Attrs Attr

	// Filter is the name of the registered filter.Pair to apply to this
	// entry's bytes, or "" for no filter.
	Filter string

	// ModTime is the entry's last-modified time for formats that carry
	// one (POD, Mystic); the zero Time for formats that don't.
	ModTime time.Time

	// Valid is false for entries the format's hooks could validate enough
	// to list, but not enough to trust for data access (a corrupt size, an
	// out-of-range offset); the engine still reports these via List but
	// open() on them returns CorruptHeader.
	Valid bool

	// Extra carries format-specific data the generic engine never
	// inspects (e.g. the child indices of a POD folder entry), round-tripped
	// opaquely back to the format adapter on every hook call.
	Extra interface{}
}

// Attr is a bitmask of entry attribute flags.
type Attr uint32

const (
	// AttrCompressed marks an entry whose StoredSize bytes must be passed
	// through Entry.Filter's decoder to yield RealSize bytes.
	AttrCompressed Attr = 1 << iota
	// AttrFolder marks an entry that is itself a nested sub-archive or
	// directory marker, openable via FolderOpener.
	AttrFolder
	// AttrEncrypted marks an entry whose bytes are enciphered rather than
	// compressed (Raptor's GLB cipher).
	AttrEncrypted
)

func (a Attr) String() string {
	if a == 0 {
		return "none"
	}
	s := ""
	add := func(bit Attr, name string) {
		if a&bit != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(AttrCompressed, "compressed")
	add(AttrFolder, "folder")
	add(AttrEncrypted, "encrypted")
	return s
}
