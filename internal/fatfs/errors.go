package fatfs

import "golang.org/x/xerrors"

// Kind classifies the errors a FAT archive operation can fail with. Callers
// match against these with errors.Is rather than string comparison.
type Kind int

const (
	// Io wraps a failure from the underlying byte stream.
	Io Kind = iota
	// Truncated means the archive is shorter than the format requires.
	Truncated
	// CorruptHeader means a header field is out of range given the file size.
	CorruptHeader
	// FilenameTooLong means a name exceeds the format's max_filename bound.
	FilenameTooLong
	// UnsupportedOperation means the format doesn't implement the requested
	// operation (e.g. rename on a nameless format).
	UnsupportedOperation
	// DuplicateName means the format forbids two entries sharing a name.
	DuplicateName
	// FilterChange means a move would cross a filter boundary.
	FilterChange
	// NotFound means an entry lookup failed.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Io:
		return "io"
	case Truncated:
		return "truncated"
	case CorruptHeader:
		return "corrupt header"
	case FilenameTooLong:
		return "filename too long"
	case UnsupportedOperation:
		return "unsupported operation"
	case DuplicateName:
		return "duplicate name"
	case FilterChange:
		return "filter change"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every exported fatfs operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the same Kind, so callers can write
// errors.Is(err, fatfs.ErrNotFound) without caring about Op/Err.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(op string, kind Kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Sentinel errors for errors.Is comparisons, one per Kind.
var (
	ErrIo                   = &Error{Kind: Io}
	ErrTruncated            = &Error{Kind: Truncated}
	ErrCorruptHeader        = &Error{Kind: CorruptHeader}
	ErrFilenameTooLong      = &Error{Kind: FilenameTooLong}
	ErrUnsupportedOperation = &Error{Kind: UnsupportedOperation}
	ErrDuplicateName        = &Error{Kind: DuplicateName}
	ErrFilterChange         = &Error{Kind: FilterChange}
	ErrNotFound             = &Error{Kind: NotFound}
)

// wrap adds op context to err the way the teacher wraps errors with
// xerrors.Errorf across cmd/distri, while preserving the Kind for errors.Is.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*Error); ok {
		return xerrors.Errorf("%s: %w", op, fe)
	}
	return xerrors.Errorf("%s: %w", op, newErr(op, Io, err))
}
