package fatfs

// ResizeFile changes entries[idx]'s stored size, padding with zero bytes
// when growing or truncating when shrinking. It is also reachable through
// the view OpenEntry returns: a write past the view's end runs the view's
// TruncateFunc, so a caller can grow a file simply by seeking past its
// current end and writing.
func (a *Archive) ResizeFile(idx int, newStoredSize int64) error {
	const op = "fatfs.ResizeFile"
	if idx < 0 || idx >= len(a.entries) {
		return wrap(op, newErr("ResizeFile", NotFound, nil))
	}
	if newStoredSize < 0 {
		return wrap(op, newErr("ResizeFile", CorruptHeader, nil))
	}
	if err := a.resizeEntry(idx, newStoredSize); err != nil {
		return wrap(op, err)
	}
	return nil
}

func (a *Archive) resizeEntry(idx int, newStoredSize int64) error {
	old := a.entries[idx]
	delta := newStoredSize - old.StoredSize

	headerDelta, err := a.format.PreResize(a.entries, idx, newStoredSize)
	if err != nil {
		return err
	}
	if headerDelta != 0 {
		if err := a.shiftData(a.headerRegionStart(), headerDelta); err != nil {
			return err
		}
		a.headerLen += headerDelta
	}

	if delta != 0 {
		at := a.entryDataEnd(idx)
		if delta < 0 {
			at += delta // cut this entry's own tail, not the next entry's head
		}
		own := a.entries[idx].Offset
		if err := a.shiftData(at, delta); err != nil {
			return err
		}
		a.entries[idx].Offset = own
	}

	a.entries[idx].StoredSize = newStoredSize
	if a.entries[idx].Filter == "" {
		a.entries[idx].RealSize = newStoredSize
	}
	a.relocateOpenViews(idx)
	return nil
}
