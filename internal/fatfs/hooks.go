package fatfs

import "io"

// Confidence is the three-valued result a format's Detect returns: most
// formats can tell definitively from a signature or structural check, but
// some (bare FAT tables with no magic, like DAT-Sango) can only ever say
// "this would parse", never "this is definitely mine".
type Confidence int

const (
	DefinitelyNo Confidence = iota
	PossiblyYes
	DefinitelyYes
)

func (c Confidence) String() string {
	switch c {
	case DefinitelyNo:
		return "definitely-no"
	case PossiblyYes:
		return "possibly-yes"
	case DefinitelyYes:
		return "definitely-yes"
	default:
		return "unknown"
	}
}

// HeaderLayout says where a format's entry table lives relative to file
// data: at the start of the archive (GRP, RES, POD, Hugo, DAT-Sango,
// roads.lzs) or at the end (EPF, DAT-Mystic).
type HeaderLayout int

const (
	HeaderAtStart HeaderLayout = iota
	HeaderAtEnd
)

// FatFormat is the capability interface a concrete archive format
// implements. It stands in for the original engine's base-class hook
// methods (preInsertFile, preRemoveFile, updateFileOffset, updateFileName,
// updateLastEntry, …): instead of a format subclassing the engine, the
// engine holds a FatFormat and calls out to it at each point the original
// would have called a virtual method.
type FatFormat interface {
	// Name identifies the format for error messages and the -type flag.
	Name() string

	// MaxFilenameLen returns the longest name the format can store, or 0
	// for formats with no filename field at all (nameless formats reject
	// RenameFile with UnsupportedOperation).
	MaxFilenameLen() int

	// SupportedAttributes returns the Attr bits this format understands.
	SupportedAttributes() Attr

	// Layout reports where the entry table lives in the archive.
	Layout() HeaderLayout

	// Detect sniffs r (size bytes long) and reports how confident the
	// format is that r is an instance of it.
	Detect(r io.ReaderAt, size int64) (Confidence, error)

	// ParseHeader reads the entry table from r and returns the decoded
	// entries plus the length of the header/FAT region in bytes (measured
	// from the start of the archive if Layout is HeaderAtStart, or from
	// the start of the FAT if HeaderAtEnd — see shift.go for how the two
	// are reconciled against the overall archive size).
	ParseHeader(r io.ReaderAt, size int64) (entries []Entry, headerLen int64, err error)

	// WriteHeader serializes entries back into the format's on-disk header
	// representation, called once during Flush after every pending
	// structural change has been applied to the in-memory entry table. It
	// writes directly through backing's WriteAt rather than returning
	// bytes, since formats that store an inline per-entry header (RES)
	// need to write scattered through the data region, not just at
	// one fixed header block.
	WriteHeader(backing io.WriterAt, entries []Entry) error

	// PreInsert is called before the engine splices space for a new entry
	// at index idx. It may grow the header region (e.g. appending a new
	// FAT slot) and must fill in any Entry fields the format owns that
	// the caller didn't set (Type, default Attrs). The returned headerGrowth
	// is how many bytes the header/FAT region grows by, which the engine
	// uses to shift every existing entry's Offset.
	PreInsert(entries []Entry, idx int, newEntry *Entry) (headerGrowth int64, err error)

	// PreRemove is called before the engine deletes entries[idx]. It
	// returns how many bytes the header/FAT region shrinks by.
	PreRemove(entries []Entry, idx int) (headerShrink int64, err error)

	// PreRename validates newName against format constraints (length,
	// charset, duplicates) before the engine commits the rename.
	PreRename(entries []Entry, idx int, newName string) error

	// PreMove validates that moving entries[from] to position to is
	// possible; formats with filter regions that can't be reordered
	// independently return ErrFilterChange.
	PreMove(entries []Entry, from, to int) error

	// PreResize validates/prepares a size change of entries[idx] to
	// newStoredSize, returning the delta applied to the header region (most
	// formats return 0; formats that store size redundantly in a separate
	// description block may need to grow/shrink it).
	PreResize(entries []Entry, idx int, newStoredSize int64) (headerDelta int64, err error)
}

// FolderOpener is implemented by formats whose entries can themselves be
// opened as nested archives or directories (POD's nested PATH folders).
// Formats that don't support folders simply don't implement it; the engine
// falls back to UnsupportedOperation.
type FolderOpener interface {
	// OpenFolder returns the entries nested under entries[idx], which must
	// carry AttrFolder.
	OpenFolder(entries []Entry, idx int) ([]Entry, error)
}
