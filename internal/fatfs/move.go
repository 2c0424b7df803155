package fatfs

// MoveFile repositions entries[from] to logical index to. It is
// implemented as a remove followed by a re-insert of the same bytes at the
// new position, which is not atomic: if the process is interrupted between
// the two steps the file is gone from the archive until retried. The
// original engine this is modeled on carries the same restriction — moving
// an entry's on-disk bytes in place while also updating every other
// entry's offsets has no single-splice representation in a flat FAT, so
// remove+insert is the accepted tradeoff rather than a half-implemented
// in-place shuffle.
func (a *Archive) MoveFile(from, to int) error {
	const op = "fatfs.MoveFile"
	if from < 0 || from >= len(a.entries) {
		return wrap(op, newErr("MoveFile", NotFound, nil))
	}
	if to < 0 || to >= len(a.entries) {
		return wrap(op, newErr("MoveFile", NotFound, nil))
	}
	if from == to {
		return nil
	}
	if err := a.format.PreMove(a.entries, from, to); err != nil {
		return wrap(op, err)
	}

	data, err := a.readRawEntryBytes(from)
	if err != nil {
		return wrap(op, err)
	}
	moved := a.entries[from]
	moved.Offset = 0
	moved.Index = 0

	if err := a.RemoveFile(from); err != nil {
		return wrap(op, err)
	}
	insertAt := to
	if err := a.InsertFile(insertAt, moved, data); err != nil {
		return wrap(op, err)
	}
	return nil
}

// readRawEntryBytes returns entries[idx]'s stored (pre-filter) bytes,
// straight from the backing stream — used by MoveFile, which must carry a
// filtered entry's compressed bytes across the move verbatim rather than
// decode-then-recompress them.
func (a *Archive) readRawEntryBytes(idx int) ([]byte, error) {
	e := a.entries[idx]
	buf := make([]byte, e.StoredSize)
	if e.StoredSize == 0 {
		return buf, nil
	}
	if _, err := a.backing.ReadAt(buf, a.entryDataStart(idx)); err != nil {
		return nil, err
	}
	return buf, nil
}
