package fatfs

// shiftData splices delta bytes (positive to insert, negative to remove)
// into the backing stream at byte offset at, then adjusts every entry
// whose on-disk Offset is at or past at by delta, and finally relocates any
// open views over those entries. This is the one place the engine actually
// moves bytes: insert, remove and resize call it once or twice (for the
// header region and for the entry's own bytes), move goes through remove
// and insert, and rename never calls it.
func (a *Archive) shiftData(at int64, delta int64) error {
	if delta == 0 {
		return nil
	}
	if _, err := a.backing.Seek(at, 0); err != nil {
		return wrap("fatfs.shiftData", err)
	}
	if delta > 0 {
		if err := a.backing.Insert(delta); err != nil {
			return wrap("fatfs.shiftData", err)
		}
	} else {
		if err := a.backing.Remove(-delta); err != nil {
			return wrap("fatfs.shiftData", err)
		}
	}

	first := len(a.entries)
	for i := range a.entries {
		if a.entries[i].Offset >= at {
			a.entries[i].Offset += delta
			if i < first {
				first = i
			}
		}
	}
	a.relocateOpenViews(first)
	return nil
}

// entryDataStart returns the byte offset, in the backing stream, at which
// entries[idx]'s own data (after its inline header, if any) begins.
func (a *Archive) entryDataStart(idx int) int64 {
	return a.entries[idx].Offset + a.entries[idx].HeaderLen
}

// entryDataEnd returns the byte offset one past entries[idx]'s stored
// bytes.
func (a *Archive) entryDataEnd(idx int) int64 {
	return a.entryDataStart(idx) + a.entries[idx].StoredSize
}

// dataRegionEnd returns the byte offset one past the last byte of file
// data in the archive, i.e. where a newly appended entry's bytes would
// start: the end of the backing stream for a head-FAT format, or the
// start of the trailing FAT region for a tail-FAT format.
func (a *Archive) dataRegionEnd() int64 {
	if a.format.Layout() == HeaderAtEnd {
		return a.backing.Size() - a.headerLen
	}
	return a.backing.Size()
}

// headerRegionStart returns the byte offset at which the header/FAT region
// begins: 0 for a head-FAT format, or size-headerLen for a tail-FAT format.
func (a *Archive) headerRegionStart() int64 {
	if a.format.Layout() == HeaderAtEnd {
		return a.backing.Size() - a.headerLen
	}
	return 0
}
